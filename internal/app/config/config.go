package config

import (
	"log"

	"scribe-service/internal/pkg/constvars"
	"scribe-service/internal/pkg/utils"

	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func NewDriverConfig() *DriverConfig {
	return &DriverConfig{
		MongoDB: MongoDB{
			Port:     utils.GetEnvString("MONGODB_PORT", "27017"),
			Host:     utils.GetEnvString("MONGODB_HOST", "localhost"),
			DbName:   utils.GetEnvString("MONGODB_DB_NAME", "scribe"),
			Username: utils.GetEnvString("MONGODB_USERNAME", "defaultUsername"),
			Password: utils.GetEnvString("MONGODB_PASSWORD", "defaultPassword"),
		},
		Redis: Redis{
			Host:     utils.GetEnvString("REDIS_HOST", "localhost"),
			Port:     utils.GetEnvString("REDIS_PORT", "6379"),
			Password: utils.GetEnvString("REDIS_PASSWORD", ""),
		},
		Minio: Minio{
			Host:       utils.GetEnvString("MINIO_HOST", "localhost"),
			Port:       utils.GetEnvString("MINIO_PORT", "9000"),
			Username:   utils.GetEnvString("MINIO_USERNAME", "defaultUsername"),
			Password:   utils.GetEnvString("MINIO_PASSWORD", "defaultPassword"),
			BucketName: utils.GetEnvString("MINIO_BUCKET_NAME", "scribe-files"),
			UseSSL:     utils.GetEnvBool("MINIO_USE_SSL", false),
		},
		RabbitMQ: RabbitMQ{
			Host:     utils.GetEnvString("RABBITMQ_HOST", "localhost"),
			Port:     utils.GetEnvString("RABBITMQ_PORT", "5672"),
			Username: utils.GetEnvString("RABBITMQ_USERNAME", "defaultUsername"),
			Password: utils.GetEnvString("RABBITMQ_PASSWORD", "defaultPassword"),
		},
		Logger: Logger{
			Level:               utils.GetEnvString("LOGGER_LEVEL", "debug"),
			OutputFileName:      utils.GetEnvString("LOGGER_OUTPUT_FILENAME", "logger.log"),
			OutputErrorFileName: utils.GetEnvString("LOGGER_OUTPUT_ERROR_FILENAME", "logger_error.log"),
		},
	}
}

func NewInternalConfig() *InternalConfig {
	termsText := utils.GetEnvString("SCRIBE_TNC", "<Please add your terms and conditions here>")

	cfg := &InternalConfig{
		App: App{
			Env:             utils.GetEnvString("APP_ENV", "development"),
			Port:            utils.GetEnvString("APP_PORT", ":8080"),
			Version:         utils.GetEnvString("APP_VERSION", "v1"),
			EndpointPrefix:  utils.GetEnvString("APP_ENDPOINT_PREFIX", "api"),
			MaxRequests:     utils.GetEnvInt("APP_MAX_REQUEST", 10),
			ShutdownTimeout: utils.GetEnvInt("APP_SHUTDOWN_TIMEOUT", 10),
		},
		JWT: JWT{
			Secret: utils.GetEnvString("JWT_SECRET", "anyjwt"),
		},
		Scribe: Scribe{
			Provider:        utils.GetEnvString("SCRIBE_API_PROVIDER", constvars.ProviderOpenAI),
			ChatModelName:   utils.GetEnvString("SCRIBE_CHAT_MODEL_NAME", "gpt-4o"),
			AudioModelName:  utils.GetEnvString("SCRIBE_AUDIO_MODEL_NAME", "whisper-1"),
			TermsText:       termsText,
			TermsHash:       utils.HashString(termsText),
			CallTimeoutSecs: utils.GetEnvInt("AI_CALL_TIMEOUT_SECONDS", 120),
			ProviderRPS:     utils.GetEnvFloat("AI_PROVIDER_RPS", 2),

			OpenAIAPIKey:    utils.GetEnvString("SCRIBE_OPENAI_API_KEY", ""),
			AzureAPIKey:     utils.GetEnvString("SCRIBE_AZURE_API_KEY", ""),
			AzureEndpoint:   utils.GetEnvString("SCRIBE_AZURE_ENDPOINT", ""),
			AzureAPIVersion: utils.GetEnvString("SCRIBE_AZURE_API_VERSION", ""),
			GoogleProjectID: utils.GetEnvString("SCRIBE_GOOGLE_PROJECT_ID", ""),
			GoogleLocation:  utils.GetEnvString("SCRIBE_GOOGLE_LOCATION", ""),
		},
	}

	validateScribeConfig(&cfg.Scribe)
	return cfg
}

// validateScribeConfig enforces the per-provider required settings up front so
// a misconfigured deployment fails at boot, not on the first request.
func validateScribeConfig(s *Scribe) {
	switch s.Provider {
	case constvars.ProviderOpenAI:
		if s.OpenAIAPIKey == "" {
			log.Fatal("SCRIBE_OPENAI_API_KEY is required when SCRIBE_API_PROVIDER is openai")
		}
	case constvars.ProviderAzure:
		if s.AzureAPIKey == "" || s.AzureEndpoint == "" || s.AzureAPIVersion == "" {
			log.Fatal("SCRIBE_AZURE_API_KEY, SCRIBE_AZURE_ENDPOINT and SCRIBE_AZURE_API_VERSION are required when SCRIBE_API_PROVIDER is azure")
		}
	case constvars.ProviderGoogle:
		if s.GoogleProjectID == "" || s.GoogleLocation == "" {
			log.Fatal("SCRIBE_GOOGLE_PROJECT_ID and SCRIBE_GOOGLE_LOCATION are required when SCRIBE_API_PROVIDER is google")
		}
	default:
		log.Fatalf("Invalid SCRIBE_API_PROVIDER %q, expected openai, azure or google", s.Provider)
	}
}
