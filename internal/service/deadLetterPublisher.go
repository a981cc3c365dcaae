package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
)

// DeadLetterSink stores events that could not be delivered.
type DeadLetterSink interface {
	Store(ctx context.Context, event *entity.Envelope, cause error) error
}

// DeadLetterPublisher публикует событие, а при ошибке сохраняет его в DLQ
type DeadLetterPublisher struct {
	next      EventPublisher
	sink      DeadLetterSink
	sinkAfter time.Duration
}

const deadLetterStoreTimeout = time.Second

func NewDeadLetterPublisher(next EventPublisher, sink DeadLetterSink) *DeadLetterPublisher {
	return &DeadLetterPublisher{next: next, sink: sink, sinkAfter: deadLetterStoreTimeout}
}

// Publish returns an error only when the event was neither delivered nor parked.
func (p *DeadLetterPublisher) Publish(ctx context.Context, event *entity.Envelope) error {
	err := p.next.Publish(ctx, event)
	if err == nil {
		return nil
	}

	// the publish may have used up ctx; parking gets its own short deadline
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.sinkAfter)
	defer cancel()

	if sinkErr := p.sink.Store(storeCtx, event, err); sinkErr != nil {
		return fmt.Errorf("publish failed: %v; dead letter failed: %w", err, sinkErr)
	}
	return nil
}
