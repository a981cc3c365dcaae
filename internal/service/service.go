package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
)

// ReservationService определяет операции движка бронирования номеров
type ReservationService interface {
	// Основные операции
	CheckAndReserve(ctx context.Context, req *ReserveRequest) (*entity.Reservation, error)
	Cancel(ctx context.Context, reservationID string, actor entity.Actor) (*entity.Reservation, error)
	CheckAvailability(ctx context.Context, roomID string, checkIn, checkOut time.Time) (*entity.RoomAvailability, error)

	// Оплата
	AttachPaymentOrder(ctx context.Context, reservationID string, actor entity.Actor, orderID string) (*entity.Reservation, error)
	ConfirmPayment(ctx context.Context, reservationID string, actor entity.Actor, proof entity.PaymentProof) (*entity.Reservation, error)
	GetPaymentDetails(ctx context.Context, reservationID string, actor entity.Actor) (*entity.PaymentDetails, error)

	// Чтение
	GetReservation(ctx context.Context, reservationID string, actor entity.Actor) (*entity.Reservation, error)
	ListUserReservations(ctx context.Context, userID string) ([]*entity.Reservation, error)
	ListOwnerReservations(ctx context.Context, actor entity.Actor, ownerID string) ([]*entity.Reservation, error)
	ListReservations(ctx context.Context, actor entity.Actor, filter entity.ReservationFilter) ([]*entity.Reservation, error)

	// Операции истечения срока
	ExpireStaleReservations(ctx context.Context) (int, error)
}

// DeadLetterService показывает администраторам неотправленные события
type DeadLetterService interface {
	ListFailedEvents(ctx context.Context, actor entity.Actor, limit int) ([]*entity.FailedEvent, error)
	FailedEventStats(ctx context.Context, actor entity.Actor) (*entity.DeadLetterStats, error)
}

// RoomService is the read-only room catalog exposed to clients.
type RoomService interface {
	GetRoom(ctx context.Context, roomID string) (*entity.Room, error)
	ListHotelRooms(ctx context.Context, hotelID string) ([]*entity.Room, error)
}

// ReserveRequest представляет данные для бронирования номера
type ReserveRequest struct {
	RoomID     string
	UserID     string
	CheckIn    time.Time
	CheckOut   time.Time
	GuestCount int

	// IdempotencyKey is optional. Replays with the same key return the first reservation.
	IdempotencyKey string
}

// IdempotencyStore remembers which reservation a client's idempotency key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID, key string) (string, bool, error)
	Remember(ctx context.Context, userID, key, reservationID string) (bool, error)
}

// EventPublisher публикует доменные события бронирований
type EventPublisher interface {
	Publish(ctx context.Context, event *entity.Envelope) error
}

// DeadLetterReader reads parked events back, newest first.
type DeadLetterReader interface {
	List(ctx context.Context, limit int) ([]*entity.FailedEvent, error)
	Stats(ctx context.Context) (*entity.DeadLetterStats, error)
}

// Notifier delivers short operator messages.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
