package log

// Field names shared across components, so log aggregation can join on
// them. One-off fields stay inline at their call site.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"

	FieldCreditID    = "credit_id"
	FieldInstallment = "installment_id"
	FieldParticipant = "participant_id"
	FieldProjectID   = "project_id"
	FieldDueMonth    = "due_month"
	FieldAmountCents = "amount_cents"
	FieldLedgerRef   = "ledger_ref"
)
