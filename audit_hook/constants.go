package audithook

// Action constants for audit events.
const (
	// Stream actions
	ActionStreamCreated = "stream.created"
	ActionStreamDrained = "stream.drained"

	// Withdrawal actions
	ActionWithdrawal       = "withdrawal.completed"
	ActionWithdrawalDenied = "withdrawal.denied"

	// Transfer actions
	ActionTransferFailed = "transfer.failed"
)

// Resource constants for audit events.
const (
	ResourceStream     = "stream"
	ResourceWithdrawal = "withdrawal"
	ResourceTransfer   = "transfer"
)

// Category constants for audit events.
const (
	CategoryStreaming = "streaming"
	CategoryPayment   = "payment"
	CategoryAccess    = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
