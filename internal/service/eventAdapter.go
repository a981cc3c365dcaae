package service

import (
	"context"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/ds124wfegd/hotel-booking/pkg/kafka"
)

// KafkaEventAdapter адаптирует kafka.Producer к EventPublisher интерфейсу
type KafkaEventAdapter struct {
	producer kafka.Producer
}

func NewKafkaEventAdapter(p kafka.Producer) *KafkaEventAdapter {
	return &KafkaEventAdapter{producer: p}
}

// Publish keys messages by correlation id so events of one reservation stay ordered.
func (a *KafkaEventAdapter) Publish(ctx context.Context, event *entity.Envelope) error {
	if a.producer == nil {
		return nil // Если продюсер не инициализирован, игнорируем
	}
	return a.producer.SendMessage(ctx, event.CorrelationID, event)
}
