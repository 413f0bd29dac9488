package config

type (
	InternalConfig struct {
		App    App
		JWT    JWT
		Scribe Scribe
	}

	DriverConfig struct {
		MongoDB  MongoDB
		Redis    Redis
		Minio    Minio
		RabbitMQ RabbitMQ
		Logger   Logger
	}

	App struct {
		Env             string
		Port            string
		Version         string
		EndpointPrefix  string
		MaxRequests     int
		ShutdownTimeout int
	}

	JWT struct {
		Secret string
	}

	// Scribe carries the AI pipeline settings. Exactly one provider is the
	// system default; per-request overrides are a privileged operation.
	Scribe struct {
		Provider        string
		ChatModelName   string
		AudioModelName  string
		TermsText       string
		TermsHash       string
		CallTimeoutSecs int
		ProviderRPS     float64

		OpenAIAPIKey    string
		AzureAPIKey     string
		AzureEndpoint   string
		AzureAPIVersion string
		GoogleProjectID string
		GoogleLocation  string
	}

	MongoDB struct {
		Port     string
		Host     string
		DbName   string
		Username string
		Password string
	}

	Redis struct {
		Host     string
		Port     string
		Password string
	}

	Minio struct {
		Host       string
		Port       string
		Username   string
		Password   string
		BucketName string
		UseSSL     bool
	}

	RabbitMQ struct {
		Port     string
		Host     string
		Username string
		Password string
	}

	Logger struct {
		Level               string
		OutputFileName      string
		OutputErrorFileName string
	}
)
