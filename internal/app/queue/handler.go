package queue

import (
	"context"

	"scribe-service/internal/app/contracts"
	"scribe-service/internal/pkg/constvars"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Handler plugs the scribe processor into the asynq worker loop.
type Handler struct {
	Processor contracts.ScribeProcessor
	Log       *zap.Logger
}

func NewHandler(processor contracts.ScribeProcessor, logger *zap.Logger) *Handler {
	return &Handler{Processor: processor, Log: logger}
}

func (h *Handler) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(constvars.TaskScribeProcess, h.handleProcess)
	return mux
}

func (h *Handler) handleProcess(ctx context.Context, task *asynq.Task) error {
	var payload ProcessPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		h.Log.Error("cannot decode scribe task payload", zap.Error(err))
		return err
	}
	return h.Processor.Process(ctx, payload.ScribeID)
}
