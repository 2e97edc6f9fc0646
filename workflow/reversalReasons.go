package workflow

// Standardized reasons for cash entry reversals.
// These are human-readable strings stored in CashEntry.reversal_reason.
const (
	ReversalReasonChequeBounced = "Cheque Bounced"
	ReversalReasonEntryMistake  = "Entry mistake"
)
