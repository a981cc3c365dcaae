package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventReservationCreated   = "ReservationCreated"
	EventReservationCancelled = "ReservationCancelled"
	EventReservationConfirmed = "ReservationConfirmed"
	EventReservationExpired   = "ReservationExpired"
	EventPaymentFailed        = "PaymentFailed"
)

const eventProducer = "hotel-booking"

// Envelope wraps every domain event published to the broker.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type ReservationEventPayload struct {
	ReservationID string            `json:"reservation_id"`
	RoomID        string            `json:"room_id"`
	HotelID       string            `json:"hotel_id"`
	UserID        string            `json:"user_id"`
	CheckIn       time.Time         `json:"check_in"`
	CheckOut      time.Time         `json:"check_out"`
	Status        ReservationStatus `json:"status"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	TotalPrice    float64           `json:"total_price"`
}

// NewReservationEnvelope builds an envelope correlated by reservation id.
func NewReservationEnvelope(eventType string, r *Reservation, at time.Time) (*Envelope, error) {
	payload, err := json.Marshal(ReservationEventPayload{
		ReservationID: r.ID,
		RoomID:        r.RoomID,
		HotelID:       r.HotelID,
		UserID:        r.UserID,
		CheckIn:       r.CheckIn,
		CheckOut:      r.CheckOut,
		Status:        r.Status,
		PaymentStatus: r.PaymentStatus,
		TotalPrice:    r.TotalPrice,
	})
	if err != nil {
		return nil, err
	}
	return &Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    at.UTC(),
		Producer:      eventProducer,
		CorrelationID: r.ID,
		Payload:       payload,
	}, nil
}

// FailedEvent is a reservation event that could not be published.
type FailedEvent struct {
	Event    *Envelope `json:"event"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// DeadLetterStats contains statistics about the dead letter set
type DeadLetterStats struct {
	QueueSize     int64     `json:"queue_size"`
	OldestFailure time.Time `json:"oldest_failure"`
	NewestFailure time.Time `json:"newest_failure"`
}
