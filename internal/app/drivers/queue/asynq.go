package queue

import (
	"fmt"

	"scribe-service/internal/app/config"

	"github.com/hibiken/asynq"
)

func redisOpt(driverConfig *config.DriverConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%s", driverConfig.Redis.Host, driverConfig.Redis.Port),
		Password: driverConfig.Redis.Password,
	}
}

func NewAsynqClient(driverConfig *config.DriverConfig) *asynq.Client {
	return asynq.NewClient(redisOpt(driverConfig))
}

// NewAsynqServer builds the worker-side server. Concurrency stays low because
// each task holds long-running provider calls, not CPU.
func NewAsynqServer(driverConfig *config.DriverConfig, concurrency int) *asynq.Server {
	return asynq.NewServer(redisOpt(driverConfig), asynq.Config{
		Concurrency: concurrency,
	})
}
