package main

import (
	"scribe-service/internal/app/config"
	"scribe-service/internal/app/drivers/database"
	"scribe-service/internal/app/drivers/logger"
	"scribe-service/internal/app/drivers/messaging"
	driverqueue "scribe-service/internal/app/drivers/queue"
	"scribe-service/internal/app/drivers/storage"
	"scribe-service/internal/app/queue"
	"scribe-service/internal/app/services/ai"
	"scribe-service/internal/app/services/core/quotas"
	"scribe-service/internal/app/services/core/scribefiles"
	"scribe-service/internal/app/services/core/scribes"
	"scribe-service/internal/app/services/shared/events"
	"scribe-service/internal/app/services/shared/redis"
	"scribe-service/internal/pkg/utils"
)

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	log := logger.NewLogger(internalConfig)
	zapLog := logger.NewZapLogger(driverConfig, internalConfig)

	mongoDB := database.NewMongoDB(driverConfig)
	redisClient := database.NewRedisClient(driverConfig)
	minioClient := storage.NewMinio(driverConfig)
	rabbitConn := messaging.NewRabbitMQ(driverConfig)

	// Repositories
	redisRepository := redis.NewRedisRepository(redisClient)
	scribeRepository := scribes.NewScribeMongoRepository(mongoDB, driverConfig.MongoDB.DbName)
	quotaRepository := quotas.NewQuotaMongoRepository(mongoDB, driverConfig.MongoDB.DbName)
	fileRepository := scribefiles.NewScribeFileMongoRepository(mongoDB, driverConfig.MongoDB.DbName)
	fileStore := scribefiles.NewMinioFileStore(minioClient, driverConfig.Minio.BucketName)

	// Collaborators
	entitlements := quotas.NewQuotaFlagEntitlements(quotaRepository)
	quotaUsecase := quotas.NewQuotaUsecase(quotaRepository, scribeRepository, entitlements, internalConfig.Scribe.TermsHash, zapLog)
	providerFactory := ai.NewFactory(internalConfig.Scribe, zapLog, redisRepository)
	publisher, err := events.NewRabbitPublisher(rabbitConn, zapLog)
	if err != nil {
		log.Fatalf("Failed to set up status event publisher: %v", err)
	}

	processor := scribes.NewProcessor(
		scribeRepository,
		fileRepository,
		fileStore,
		quotaUsecase,
		providerFactory,
		publisher,
		internalConfig.Scribe,
		zapLog,
	)

	concurrency := utils.GetEnvInt("WORKER_CONCURRENCY", 5)
	server := driverqueue.NewAsynqServer(driverConfig, concurrency)
	handler := queue.NewHandler(processor, zapLog)

	if err := server.Run(handler.Mux()); err != nil {
		log.Fatalf("Worker stopped: %v", err)
	}
}
