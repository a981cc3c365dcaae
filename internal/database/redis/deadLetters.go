package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const DefaultDeadLetterKey = "hotel_booking:events:dlq"

// EventDeadLetters keeps unpublished events in a sorted set scored by failure time.
type EventDeadLetters struct {
	client *redis.Client
	key    string
}

func NewEventDeadLetters(client *redis.Client, key string) *EventDeadLetters {
	if key == "" {
		key = DefaultDeadLetterKey
	}
	return &EventDeadLetters{client: client, key: key}
}

// Store records a failed event.
func (d *EventDeadLetters) Store(ctx context.Context, event *entity.Envelope, cause error) error {
	failed := &entity.FailedEvent{
		Event:    event,
		Error:    cause.Error(),
		FailedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("failed to marshal failed event: %w", err)
	}

	score := float64(failed.FailedAt.UnixNano()) / 1e9
	if err := d.client.ZAdd(ctx, d.key, &redis.Z{Score: score, Member: data}).Err(); err != nil {
		return fmt.Errorf("failed to store event in dead letters: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"event_id":   event.EventID,
		"event_type": event.EventType,
	}).Warn("Event moved to dead letters")
	return nil
}

// List returns failed events, newest first.
func (d *EventDeadLetters) List(ctx context.Context, limit int) ([]*entity.FailedEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	items, err := d.client.ZRevRangeByScore(ctx, d.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "+inf",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read dead letters: %w", err)
	}

	return decodeFailedEvents(items), nil
}

// Stats returns the size of the set and the failure time range.
func (d *EventDeadLetters) Stats(ctx context.Context) (*entity.DeadLetterStats, error) {
	count, err := d.client.ZCard(ctx, d.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to count dead letters: %w", err)
	}

	stats := &entity.DeadLetterStats{QueueSize: count}
	if count == 0 {
		return stats, nil
	}

	oldest, err := d.client.ZRange(ctx, d.key, 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get oldest dead letter: %w", err)
	}
	newest, err := d.client.ZRange(ctx, d.key, -1, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get newest dead letter: %w", err)
	}

	if events := decodeFailedEvents(oldest); len(events) > 0 {
		stats.OldestFailure = events[0].FailedAt
	}
	if events := decodeFailedEvents(newest); len(events) > 0 {
		stats.NewestFailure = events[0].FailedAt
	}
	return stats, nil
}

func decodeFailedEvents(items []string) []*entity.FailedEvent {
	events := make([]*entity.FailedEvent, 0, len(items))
	for _, item := range items {
		var failed entity.FailedEvent
		if err := json.Unmarshal([]byte(item), &failed); err != nil {
			logrus.WithError(err).Warn("Skipping undecodable dead letter")
			continue
		}
		events = append(events, &failed)
	}
	return events
}
