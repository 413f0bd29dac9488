package constvars

const (
	ScribeCreatedSuccess   = "scribe request created successfully"
	ScribeGetSuccess       = "get scribe request successfully"
	ScribeReadySuccess     = "scribe request queued for processing"
	ScribeFeedbackSuccess  = "feedback recorded successfully"
	QuotaGetSuccess        = "get scribe quota successfully"
	TermsAcceptedSuccess   = "terms and conditions accepted"
)
