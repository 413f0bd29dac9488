package constvars

type ContextKey string

// ContextKeySession carries the parsed models.Session through the request.
const ContextKeySession ContextKey = "sessionData"

const (
	ResponseUnknown = "unknown"

	// Mongo collections
	MongoCollectionScribes      = "scribes"
	MongoCollectionScribeQuotas = "scribe_quotas"
	MongoCollectionScribeFiles  = "scribe_files"

	// AI providers
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderGoogle = "google"

	// Session roles
	RoleAdmin = "admin"

	// Redis keys
	RedisKeyScribeEnqueueFormat = "scribe:enqueued:%s"
	RedisKeyProviderCacheFormat = "scribe:provider-cache:%s"

	// Queue / messaging
	TaskScribeProcess      = "scribe:process"
	ScribeStatusQueueName  = "scribe_status_events"
	ScribeStatusEventTopic = "scribe.status"

	// Extraction wire shape
	AnonymousFieldKeyFormat = "q%d"
	TranscriptionFieldKey   = "__scribe__transcription"
	ExtractionFunctionName  = "process_ai_form_fill"
)
