// Package observability provides a metrics extension for StreamPay that
// records stream lifecycle event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/streampay/plugin"
	"github.com/xraph/streampay/stream"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnStreamCreated    = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawal       = (*MetricsExtension)(nil)
	_ plugin.OnStreamDrained    = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalDenied = (*MetricsExtension)(nil)
	_ plugin.OnTransferFailed   = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a StreamPay plugin to automatically track stream metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Stream metrics
	StreamsCreated Counter
	StreamsDrained Counter
	StreamFunds    Histogram

	// Withdrawal metrics
	Withdrawals       Counter
	WithdrawalsDenied Counter
	WithdrawalAmount  Histogram

	// Transfer metrics
	TransferFailures Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		StreamsCreated: factory.Counter("streampay.stream.created"),
		StreamsDrained: factory.Counter("streampay.stream.drained"),
		StreamFunds:    factory.Histogram("streampay.stream.funds"),

		Withdrawals:       factory.Counter("streampay.withdrawal.count"),
		WithdrawalsDenied: factory.Counter("streampay.withdrawal.denied"),
		WithdrawalAmount:  factory.Histogram("streampay.withdrawal.amount"),

		TransferFailures: factory.Counter("streampay.transfer.failures"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// OnStreamCreated implements plugin.OnStreamCreated.
func (m *MetricsExtension) OnStreamCreated(_ context.Context, s interface{}) error {
	m.StreamsCreated.Inc()
	if funds, ok := fundsOf(s); ok {
		m.StreamFunds.Observe(funds)
	}
	return nil
}

// OnWithdrawal implements plugin.OnWithdrawal.
func (m *MetricsExtension) OnWithdrawal(_ context.Context, _ interface{}, amount uint64) error {
	m.Withdrawals.Inc()
	m.WithdrawalAmount.Observe(float64(amount))
	return nil
}

// OnStreamDrained implements plugin.OnStreamDrained.
func (m *MetricsExtension) OnStreamDrained(_ context.Context, _ interface{}) error {
	m.StreamsDrained.Inc()
	return nil
}

// OnWithdrawalDenied implements plugin.OnWithdrawalDenied.
func (m *MetricsExtension) OnWithdrawalDenied(_ context.Context, _ uint64, _, _ string) error {
	m.WithdrawalsDenied.Inc()
	return nil
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (m *MetricsExtension) OnTransferFailed(_ context.Context, _ uint64, _ uint64, _ error) error {
	m.TransferFailures.Inc()
	return nil
}

// fundsOf extracts the committed amount from a stream payload.
func fundsOf(s interface{}) (float64, bool) {
	if st, ok := s.(*stream.Stream); ok {
		return float64(st.OriginalBalance), true
	}
	return 0, false
}
