package constvars

// Client messages are safe to return to callers; Dev messages end up in logs
// and in the scribe processing log.
const (
	ErrClientCannotProcessRequest          = "failed to process your request"
	ErrClientSomethingWrongWithApplication = "there is something wrong with the application"
	ErrClientServerLongRespond             = "the app taking too long to respond"
	ErrClientNotAuthorized                 = "you can't access this feature"
	ErrClientNotLoggedIn                   = "your session ended, please login again"
	ErrClientScribeNotFound                = "scribe request not found"
	ErrClientQuotaNotFound                 = "no scribe quota found for your account"
	ErrClientFormTooLarge                  = "the form is too large for scribe, please try again with a smaller form"

	// Authorization denial reasons (user-facing, specific per QuotaGuard step)
	ErrClientFacilityQuotaMissing  = "facility does not have a scribe quota"
	ErrClientUserQuotaMissing      = "user does not have a scribe quota"
	ErrClientStaleTermsAcceptance  = "user has not accepted the latest terms and conditions"
	ErrClientFacilityQuotaExceeded = "facility has exceeded its scribe quota"
	ErrClientUserQuotaExceeded     = "user has exceeded their scribe quota"
	ErrClientOCRNotAllowed         = "OCR is not enabled for this user or facility"
)

const (
	ErrDevInvalidInput              = "invalid input"
	ErrDevCannotParseJSON           = "cannot parse JSON into struct or other data types"
	ErrDevCannotMarshalJSON         = "cannot convert struct or other data types to JSON"
	ErrDevValidationFailed          = "request validation failed"
	ErrDevURLParamIDValidationFailed = "URL param %s validation failed"
	ErrDevServerDeadlineExceeded    = "server deadline exceeded while processing request"
	ErrDevUnauthorized              = "unauthorized access"

	ErrDevAuthTokenMissing          = "authorization token is missing"
	ErrDevAuthTokenInvalidOrExpired = "authorization token is invalid or expired"
	ErrDevAuthSigningMethod         = "unexpected JWT signing method"

	ErrDevMongoDBInsertDocument = "failed to insert document to mongoDB"
	ErrDevMongoDBFindDocument   = "failed to find document in mongoDB"
	ErrDevMongoDBUpdateDocument = "failed to update document in mongoDB"
	ErrDevMongoDBNotObjectID    = "given ID is not a valid mongoDB object ID"

	ErrDevMinioFetchObject = "failed to fetch object from minio bucket %s"

	ErrDevScribeNotFound         = "scribe does not exist"
	ErrDevScribeNotReady         = "scribe is not in the READY state"
	ErrDevScribeInvalidStatus    = "scribe status transition from %s to %s is not allowed"
	ErrDevScribeFormInvalid      = "scribe form schema failed validation"
	ErrDevScribeOverrideDenied   = "model override attempted without elevated privilege"
	ErrDevInvalidProviderName    = "invalid AI provider %q"
	ErrDevInvalidModelIdentifier = "invalid model identifier %q, expected provider/model"

	ErrDevProviderTranscription   = "error generating transcript: %s"
	ErrDevProviderExtraction      = "AI extraction call failed"
	ErrDevProviderFinishReason    = "AI response did not finish successfully: %s"
	ErrDevProviderMalformedOutput = "AI response was malformed, please retry: %s"
	ErrDevProviderEmptyResponse   = "AI backend returned no candidates"

	ErrDevRedisSet    = "failed to set data to redis"
	ErrDevRedisGet    = "failed to get data from redis for key %s"
	ErrDevRedisDelete = "failed to delete data from redis"
	ErrDevRedisSetNX  = "failed to set data to redis with NX option"

	ErrDevQuotaDenied      = "scribe quota authorization denied"
	ErrDevQuotaRecalculate = "failed to recalculate quota usage"
	ErrDevEnqueueScribe    = "failed to enqueue scribe processing task"
	ErrDevPublishEvent     = "failed to publish scribe status event"
)
