package service

import (
	"context"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
)

type deadLetterService struct {
	reader DeadLetterReader
}

// NewDeadLetterService wraps the dead letter store. A nil reader means events are
// not being parked, so there is never anything to show.
func NewDeadLetterService(reader DeadLetterReader) DeadLetterService {
	return &deadLetterService{reader: reader}
}

func (s *deadLetterService) ListFailedEvents(ctx context.Context, actor entity.Actor, limit int) ([]*entity.FailedEvent, error) {
	if !actor.IsAdmin() {
		return nil, entity.ErrUnauthorized
	}
	if s.reader == nil {
		return []*entity.FailedEvent{}, nil
	}
	return s.reader.List(ctx, limit)
}

func (s *deadLetterService) FailedEventStats(ctx context.Context, actor entity.Actor) (*entity.DeadLetterStats, error) {
	if !actor.IsAdmin() {
		return nil, entity.ErrUnauthorized
	}
	if s.reader == nil {
		return &entity.DeadLetterStats{}, nil
	}
	return s.reader.Stats(ctx)
}
