package queue

import (
	"context"

	"scribe-service/internal/app/contracts"
	"scribe-service/internal/pkg/constvars"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
)

// ProcessPayload is serialized into the task so the worker knows which scribe
// to run.
type ProcessPayload struct {
	ScribeID string `json:"scribe_id"`
}

type asynqEnqueuer struct {
	client *asynq.Client
}

func NewAsynqEnqueuer(client *asynq.Client) contracts.TaskEnqueuer {
	return &asynqEnqueuer{client: client}
}

// EnqueueProcess schedules one processing run. MaxRetry is zero: the state
// machine records its own failures terminally and a re-run would be refused
// by the READY-only entry guard anyway.
func (e *asynqEnqueuer) EnqueueProcess(ctx context.Context, scribeID string) error {
	data, err := json.Marshal(ProcessPayload{ScribeID: scribeID})
	if err != nil {
		return err
	}
	task := asynq.NewTask(constvars.TaskScribeProcess, data)
	_, err = e.client.EnqueueContext(ctx, task, asynq.MaxRetry(0))
	return err
}
