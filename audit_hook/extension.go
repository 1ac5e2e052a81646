// Package audithook bridges StreamPay lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xraph/streampay/plugin"
	"github.com/xraph/streampay/stream"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnStreamCreated    = (*Extension)(nil)
	_ plugin.OnWithdrawal       = (*Extension)(nil)
	_ plugin.OnStreamDrained    = (*Extension)(nil)
	_ plugin.OnWithdrawalDenied = (*Extension)(nil)
	_ plugin.OnTransferFailed   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly. Callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges StreamPay lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// OnStreamCreated implements plugin.OnStreamCreated.
func (e *Extension) OnStreamCreated(ctx context.Context, s interface{}) error {
	kv := []any{"event", "stream_created"}
	resourceID := ""
	if st, ok := s.(*stream.Stream); ok {
		resourceID = strconv.FormatUint(st.ID, 10)
		kv = append(kv,
			"payer", st.Payer.String(),
			"recipient", st.Recipient.String(),
			"funds", uint64(st.OriginalBalance),
			"start_date", st.StartDate,
			"end_date", st.EndDate,
		)
	}
	return e.record(ctx, ActionStreamCreated, SeverityInfo, OutcomeSuccess,
		ResourceStream, resourceID, CategoryStreaming, nil, kv...)
}

// OnWithdrawal implements plugin.OnWithdrawal.
func (e *Extension) OnWithdrawal(ctx context.Context, s interface{}, amount uint64) error {
	kv := []any{
		"event", "withdrawal_completed",
		"amount", amount,
	}
	resourceID := ""
	if st, ok := s.(*stream.Stream); ok {
		resourceID = strconv.FormatUint(st.ID, 10)
		kv = append(kv,
			"recipient", st.Recipient.String(),
			"remaining", uint64(st.CurrentBalance),
		)
	}
	return e.record(ctx, ActionWithdrawal, SeverityInfo, OutcomeSuccess,
		ResourceWithdrawal, resourceID, CategoryPayment, nil, kv...)
}

// OnStreamDrained implements plugin.OnStreamDrained.
func (e *Extension) OnStreamDrained(ctx context.Context, s interface{}) error {
	resourceID := ""
	if st, ok := s.(*stream.Stream); ok {
		resourceID = strconv.FormatUint(st.ID, 10)
	}
	return e.record(ctx, ActionStreamDrained, SeverityInfo, OutcomeSuccess,
		ResourceStream, resourceID, CategoryStreaming, nil,
		"event", "stream_drained",
	)
}

// OnWithdrawalDenied implements plugin.OnWithdrawalDenied.
func (e *Extension) OnWithdrawalDenied(ctx context.Context, streamID uint64, caller, reason string) error {
	return e.record(ctx, ActionWithdrawalDenied, SeverityWarning, OutcomeFailure,
		ResourceWithdrawal, strconv.FormatUint(streamID, 10), CategoryAccess, nil,
		"event", "withdrawal_denied",
		"caller", caller,
		"deny_reason", reason,
	)
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (e *Extension) OnTransferFailed(ctx context.Context, streamID uint64, amount uint64, err error) error {
	return e.record(ctx, ActionTransferFailed, SeverityCritical, OutcomeFailure,
		ResourceTransfer, strconv.FormatUint(streamID, 10), CategoryPayment, err,
		"event", "transfer_failed",
		"amount", amount,
	)
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
