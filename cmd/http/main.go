package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scribe-service/internal/app/config"
	"scribe-service/internal/app/delivery/http/controllers"
	"scribe-service/internal/app/delivery/http/middlewares"
	"scribe-service/internal/app/delivery/http/routers"
	"scribe-service/internal/app/drivers/database"
	"scribe-service/internal/app/drivers/logger"
	driverqueue "scribe-service/internal/app/drivers/queue"
	"scribe-service/internal/app/queue"
	"scribe-service/internal/app/services/core/quotas"
	"scribe-service/internal/app/services/core/scribes"
	"scribe-service/internal/app/services/shared/redis"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	log := logger.NewLogger(internalConfig)
	zapLog := logger.NewZapLogger(driverConfig, internalConfig)

	mongoDB := database.NewMongoDB(driverConfig)
	redisClient := database.NewRedisClient(driverConfig)
	asynqClient := driverqueue.NewAsynqClient(driverConfig)
	chiRouter := chi.NewRouter()

	// Repositories
	redisRepository := redis.NewRedisRepository(redisClient)
	scribeRepository := scribes.NewScribeMongoRepository(mongoDB, driverConfig.MongoDB.DbName)
	quotaRepository := quotas.NewQuotaMongoRepository(mongoDB, driverConfig.MongoDB.DbName)

	// Usecases
	entitlements := quotas.NewQuotaFlagEntitlements(quotaRepository)
	quotaUsecase := quotas.NewQuotaUsecase(quotaRepository, scribeRepository, entitlements, internalConfig.Scribe.TermsHash, zapLog)
	enqueuer := queue.NewAsynqEnqueuer(asynqClient)
	scribeUsecase := scribes.NewScribeUsecase(scribeRepository, redisRepository, enqueuer, zapLog)

	// Delivery
	mw := middlewares.NewMiddlewares(zapLog, internalConfig)
	scribeController := controllers.NewScribeController(zapLog, scribeUsecase)
	quotaController := controllers.NewQuotaController(zapLog, quotaUsecase)
	routers.SetupRoutes(chiRouter, internalConfig, mw, scribeController, quotaController)

	server := &http.Server{
		Addr:    internalConfig.App.Port,
		Handler: chiRouter,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	logrus.Println("Waiting for pending requests that already received by server to be processed..")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(internalConfig.App.ShutdownTimeout),
	)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	asynqClient.Close()

	log.Println("Server exiting")
}
