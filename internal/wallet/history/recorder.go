package history

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
	"github.com/younicoin/LunariumCoin-2.0/pkg/batcher"
)

const (
	defaultFlushSize     = 500
	defaultFlushInterval = 5 * time.Second
	defaultFlushRPS      = 10
)

// Recorder buffers status events and flushes them to the event store in
// batches, so tracker mutations never wait on storage.
type Recorder struct {
	events *batcher.Batcher[model.StatusEvent]
}

func NewRecorder(store EventStore, logger *zap.Logger) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("event store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	return &Recorder{
		events: batcher.New[model.StatusEvent](
			logger.Named("statusEvents"),
			store.InsertStatusEvents,
			defaultFlushSize,
			defaultFlushInterval,
			defaultFlushRPS,
		),
	}, nil
}

// Start begins background flushing.
func (r *Recorder) Start(ctx context.Context) {
	r.events.Start(ctx)
}

// Stop flushes buffered events and stops the background loop.
func (r *Recorder) Stop() {
	r.events.Stop()
}

// RecordStatusEvent queues one status transition for the audit trail.
func (r *Recorder) RecordStatusEvent(ctx context.Context, event model.StatusEvent) error {
	return r.events.Add(ctx, event)
}
