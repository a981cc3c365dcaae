package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	repository "github.com/ds124wfegd/hotel-booking/internal/database/postgres"
	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/ds124wfegd/hotel-booking/internal/metrics"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	ConfirmationModeAuto    = "auto"
	ConfirmationModePayment = "payment"
)

// ReservationOptions настраивает поведение движка бронирования
type ReservationOptions struct {
	// auto: reservations are CONFIRMED at admission; payment: PENDING until paid
	ConfirmationMode string
	// HoldTTL bounds how long an unpaid PENDING reservation holds a unit. Zero disables expiry.
	HoldTTL         time.Duration
	PaymentSecret   string
	ExpiryBatchSize int
	Retry           RetryPolicy
	// PublishTimeout bounds how long an event publish may delay the response.
	PublishTimeout time.Duration
}

const defaultPublishTimeout = 2 * time.Second

type reservationService struct {
	rooms       repository.RoomRepository
	ledger      repository.ReservationLedger
	idempotency IdempotencyStore
	publisher   EventPublisher
	notifier    Notifier
	verifier    *SignatureVerifier
	opts        ReservationOptions
	now         func() time.Time
}

// NewReservationService создает новый экземпляр ReservationService.
// idempotency, publisher and notifier may be nil.
func NewReservationService(
	rooms repository.RoomRepository,
	ledger repository.ReservationLedger,
	idempotency IdempotencyStore,
	publisher EventPublisher,
	notifier Notifier,
	opts ReservationOptions,
) ReservationService {
	if opts.ConfirmationMode == "" {
		opts.ConfirmationMode = ConfirmationModePayment
	}
	if opts.ExpiryBatchSize <= 0 {
		opts.ExpiryBatchSize = 100
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	return &reservationService{
		rooms:       rooms,
		ledger:      ledger,
		idempotency: idempotency,
		publisher:   publisher,
		notifier:    notifier,
		verifier:    NewSignatureVerifier(opts.PaymentSecret),
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CheckAndReserve проверяет доступность номера и создает бронирование
func (s *reservationService) CheckAndReserve(ctx context.Context, req *ReserveRequest) (*entity.Reservation, error) {
	started := time.Now()
	defer func() { metrics.ReserveDuration.Observe(time.Since(started).Seconds()) }()

	stay := entity.Stay{CheckIn: req.CheckIn, CheckOut: req.CheckOut}
	if err := stay.Validate(); err != nil {
		metrics.ReservationsRejected.WithLabelValues("invalid_date_range").Inc()
		return nil, err
	}
	if req.GuestCount < 1 {
		metrics.ReservationsRejected.WithLabelValues("invalid_guest_count").Inc()
		return nil, entity.ErrInvalidGuestCount
	}

	if existing := s.replayed(ctx, req); existing != nil {
		return existing, nil
	}

	room, err := s.rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, entity.ErrRoomNotFound) {
			metrics.ReservationsRejected.WithLabelValues("room_not_found").Inc()
		}
		return nil, err
	}

	now := s.now()
	nights := stay.Nights()
	candidate := &entity.Reservation{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		RoomID:        room.ID,
		HotelID:       room.HotelID,
		CheckIn:       stay.CheckIn,
		CheckOut:      stay.CheckOut,
		GuestCount:    req.GuestCount,
		TotalPrice:    entity.TotalPrice(nights, room.PricePerNight),
		Status:        s.initialStatus(),
		PaymentStatus: entity.PaymentStatusUnset,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if candidate.Status == entity.ReservationStatusPending && s.opts.HoldTTL > 0 {
		expiresAt := now.Add(s.opts.HoldTTL)
		candidate.ExpiresAt = &expiresAt
	}

	var (
		admitted    *entity.Reservation
		conflicting int
		inventory   = room.Inventory
	)
	err = s.opts.Retry.Do(ctx, "check_and_reserve", func(attempt int) error {
		return s.ledger.WithinRoomLock(ctx, room.ID, func(ctx context.Context, tx repository.LedgerTx) error {
			// An earlier attempt may have committed before its error surfaced.
			if attempt > 1 {
				existing, err := tx.Find(ctx, candidate.ID)
				if err == nil {
					admitted = existing
					return nil
				}
				if !errors.Is(err, entity.ErrReservationNotFound) {
					return err
				}
			}

			count, err := tx.CountOverlapping(ctx, room.ID, stay, entity.ActiveStatuses)
			if err != nil {
				return err
			}
			conflicting = count
			inventory = tx.Inventory()
			if count >= inventory {
				return entity.ErrRoomUnavailable
			}

			if err := tx.Insert(ctx, candidate); err != nil {
				return err
			}
			admitted = candidate
			return nil
		})
	})

	fields := logrus.Fields{
		"room_id":   room.ID,
		"user_id":   req.UserID,
		"check_in":  stay.CheckIn.Format(time.RFC3339),
		"check_out": stay.CheckOut.Format(time.RFC3339),
		"inventory": inventory,
		"conflicts": conflicting,
	}

	if err != nil {
		switch {
		case errors.Is(err, entity.ErrRoomUnavailable):
			metrics.ReservationsRejected.WithLabelValues("unavailable").Inc()
			logrus.WithFields(fields).Info("Reservation rejected: room unavailable")
		case errors.Is(err, entity.ErrRoomNotFound):
			metrics.ReservationsRejected.WithLabelValues("room_not_found").Inc()
		default:
			metrics.ReservationsRejected.WithLabelValues("store_error").Inc()
			logrus.WithFields(fields).WithError(err).Error("Reservation failed")
		}
		return nil, err
	}

	metrics.ReservationsAdmitted.WithLabelValues(string(admitted.Status)).Inc()
	fields["reservation_id"] = admitted.ID
	fields["status"] = admitted.Status
	logrus.WithFields(fields).Info("Reservation admitted")

	s.rememberIdempotency(ctx, req, admitted.ID)
	s.publish(ctx, entity.EventReservationCreated, admitted)
	s.notify(fmt.Sprintf("New reservation %s: room %s, %s to %s, %d night(s), total %.2f, status %s",
		admitted.ID, admitted.RoomID,
		admitted.CheckIn.Format(entity.StayDateLayout), admitted.CheckOut.Format(entity.StayDateLayout),
		nights, admitted.TotalPrice, admitted.Status))

	return admitted, nil
}

func (s *reservationService) initialStatus() entity.ReservationStatus {
	if s.opts.ConfirmationMode == ConfirmationModeAuto {
		return entity.ReservationStatusConfirmed
	}
	return entity.ReservationStatusPending
}

// replayed returns the reservation an earlier request with the same idempotency key produced.
func (s *reservationService) replayed(ctx context.Context, req *ReserveRequest) *entity.Reservation {
	if s.idempotency == nil || req.IdempotencyKey == "" {
		return nil
	}

	id, found, err := s.idempotency.Lookup(ctx, req.UserID, req.IdempotencyKey)
	if err != nil {
		logrus.WithError(err).Warn("Idempotency lookup failed, continuing without it")
		return nil
	}
	if !found {
		return nil
	}

	existing, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		logrus.WithError(err).WithField("reservation_id", id).Warn("Idempotency key points to an unreadable reservation")
		return nil
	}
	logrus.WithFields(logrus.Fields{
		"reservation_id": existing.ID,
		"user_id":        req.UserID,
	}).Info("Replayed reservation request")
	return existing
}

func (s *reservationService) rememberIdempotency(ctx context.Context, req *ReserveRequest, reservationID string) {
	if s.idempotency == nil || req.IdempotencyKey == "" {
		return
	}
	if _, err := s.idempotency.Remember(ctx, req.UserID, req.IdempotencyKey, reservationID); err != nil {
		logrus.WithError(err).WithField("reservation_id", reservationID).Warn("Failed to remember idempotency key")
	}
}

// CheckAvailability returns a snapshot of free units. It does not hold anything.
func (s *reservationService) CheckAvailability(ctx context.Context, roomID string, checkIn, checkOut time.Time) (*entity.RoomAvailability, error) {
	stay := entity.Stay{CheckIn: checkIn, CheckOut: checkOut}
	if err := stay.Validate(); err != nil {
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	var overlapping int
	err = s.opts.Retry.Do(ctx, "check_availability", func(int) error {
		var err error
		overlapping, err = s.ledger.CountOverlapping(ctx, room.ID, stay, entity.ActiveStatuses)
		return err
	})
	if err != nil {
		return nil, err
	}

	nights := stay.Nights()
	return &entity.RoomAvailability{
		RoomID:      room.ID,
		Inventory:   room.Inventory,
		Overlapping: overlapping,
		Available:   room.AvailableUnits(overlapping),
		Nights:      nights,
		TotalPrice:  entity.TotalPrice(nights, room.PricePerNight),
	}, nil
}

// Cancel отменяет бронирование. Повторная отмена не является ошибкой.
func (s *reservationService) Cancel(ctx context.Context, reservationID string, actor entity.Actor) (*entity.Reservation, error) {
	reservation, err := s.authorized(ctx, reservationID, actor)
	if err != nil {
		return nil, err
	}
	if !reservation.Status.Active() {
		return reservation, nil
	}

	cancelled, err := s.transition(ctx, "cancel", reservationID, entity.StatusTransition{
		From: entity.ActiveStatuses,
		To:   entity.ReservationStatusCancelled,
	})
	if errors.Is(err, entity.ErrInvalidReservationStatus) {
		// Lost a race with another transition; settle on whatever won.
		current, getErr := s.ledger.GetByID(ctx, reservationID)
		if getErr == nil && !current.Status.Active() {
			return current, nil
		}
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"reservation_id": cancelled.ID,
		"room_id":        cancelled.RoomID,
		"actor":          actor.UserID,
		"role":           actor.Role,
	}).Info("Reservation cancelled")

	s.publish(ctx, entity.EventReservationCancelled, cancelled)
	s.notify(fmt.Sprintf("Reservation %s cancelled (room %s, %s to %s)",
		cancelled.ID, cancelled.RoomID,
		cancelled.CheckIn.Format(entity.StayDateLayout), cancelled.CheckOut.Format(entity.StayDateLayout)))

	return cancelled, nil
}

// AttachPaymentOrder records the gateway order created for this reservation.
func (s *reservationService) AttachPaymentOrder(ctx context.Context, reservationID string, actor entity.Actor, orderID string) (*entity.Reservation, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", entity.ErrInvalidInput)
	}

	reservation, err := s.authorized(ctx, reservationID, actor)
	if err != nil {
		return nil, err
	}
	if !reservation.Status.Active() {
		return nil, entity.ErrInvalidReservationStatus
	}
	if reservation.PaymentStatus == entity.PaymentStatusSucceeded {
		return nil, entity.ErrPaymentAlreadyCompleted
	}

	updated, err := s.transition(ctx, "attach_payment_order", reservationID, entity.StatusTransition{
		From:                entity.ActiveStatuses,
		ExceptPaymentStatus: entity.PaymentStatusSucceeded,
		Payment: entity.PaymentUpdate{
			PaymentStatus:  entity.PaymentStatusProcessing,
			PaymentOrderID: orderID,
		},
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"reservation_id": updated.ID,
		"order_id":       orderID,
	}).Info("Payment order attached")
	return updated, nil
}

// ConfirmPayment подтверждает оплату по подписи платежного шлюза
func (s *reservationService) ConfirmPayment(ctx context.Context, reservationID string, actor entity.Actor, proof entity.PaymentProof) (*entity.Reservation, error) {
	reservation, err := s.authorized(ctx, reservationID, actor)
	if err != nil {
		return nil, err
	}
	if !reservation.Status.Active() {
		return nil, entity.ErrInvalidReservationStatus
	}

	if reservation.PaymentStatus == entity.PaymentStatusSucceeded {
		if reservation.PaymentID == proof.PaymentID {
			return reservation, nil
		}
		return nil, entity.ErrPaymentAlreadyCompleted
	}

	fields := logrus.Fields{
		"reservation_id": reservation.ID,
		"order_id":       proof.OrderID,
		"payment_id":     proof.PaymentID,
	}

	if reservation.PaymentOrderID == "" || reservation.PaymentOrderID != proof.OrderID {
		logrus.WithFields(fields).Warn("Payment order does not match reservation")
		return nil, fmt.Errorf("%w: order id mismatch", entity.ErrPaymentVerificationFailed)
	}

	now := s.now()
	if reservation.Status == entity.ReservationStatusPending && reservation.ExpiresAt != nil && now.After(*reservation.ExpiresAt) {
		if expired, err := s.expire(ctx, reservation.ID); err == nil {
			s.publish(ctx, entity.EventReservationExpired, expired)
		}
		return nil, entity.ErrReservationExpired
	}

	if !s.verifier.Verify(proof) {
		failed, err := s.transition(ctx, "mark_payment_failed", reservation.ID, entity.StatusTransition{
			From:                entity.ActiveStatuses,
			ExceptPaymentStatus: entity.PaymentStatusSucceeded,
			Payment:             entity.PaymentUpdate{PaymentStatus: entity.PaymentStatusFailed},
		})
		if err != nil {
			logrus.WithFields(fields).WithError(err).Error("Failed to record payment failure")
		} else {
			s.publish(ctx, entity.EventPaymentFailed, failed)
		}
		logrus.WithFields(fields).Warn("Payment signature mismatch")
		return nil, fmt.Errorf("%w: signature mismatch", entity.ErrPaymentVerificationFailed)
	}

	confirmed, err := s.transition(ctx, "confirm_payment", reservation.ID, entity.StatusTransition{
		From:                entity.ActiveStatuses,
		To:                  entity.ReservationStatusConfirmed,
		ExceptPaymentStatus: entity.PaymentStatusSucceeded,
		Payment: entity.PaymentUpdate{
			PaymentStatus:    entity.PaymentStatusSucceeded,
			PaymentID:        proof.PaymentID,
			PaymentSignature: proof.Signature,
			PaidAt:           &now,
		},
	})
	if errors.Is(err, entity.ErrInvalidReservationStatus) {
		// A concurrent confirmation with the same payment wins idempotently.
		current, getErr := s.ledger.GetByID(ctx, reservation.ID)
		if getErr == nil && current.PaymentStatus == entity.PaymentStatusSucceeded && current.PaymentID == proof.PaymentID {
			return current, nil
		}
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(fields).Info("Payment confirmed")
	s.publish(ctx, entity.EventReservationConfirmed, confirmed)
	s.notify(fmt.Sprintf("Reservation %s paid: %.2f (payment %s)", confirmed.ID, confirmed.TotalPrice, proof.PaymentID))

	return confirmed, nil
}

func (s *reservationService) GetPaymentDetails(ctx context.Context, reservationID string, actor entity.Actor) (*entity.PaymentDetails, error) {
	reservation, err := s.authorized(ctx, reservationID, actor)
	if err != nil {
		return nil, err
	}
	return reservation.PaymentDetails(), nil
}

func (s *reservationService) GetReservation(ctx context.Context, reservationID string, actor entity.Actor) (*entity.Reservation, error) {
	return s.authorized(ctx, reservationID, actor)
}

// ListUserReservations returns the user's reservations, newest first.
func (s *reservationService) ListUserReservations(ctx context.Context, userID string) ([]*entity.Reservation, error) {
	return s.ledger.GetByUserID(ctx, userID)
}

// ListOwnerReservations returns reservations on the rooms an owner manages. An empty
// ownerID means the actor's own rooms; only admins may ask about another owner.
func (s *reservationService) ListOwnerReservations(ctx context.Context, actor entity.Actor, ownerID string) ([]*entity.Reservation, error) {
	if !actor.ManagesRooms() {
		return nil, entity.ErrUnauthorized
	}
	if ownerID == "" {
		ownerID = actor.UserID
	}
	if ownerID != actor.UserID && !actor.IsAdmin() {
		return nil, entity.ErrUnauthorized
	}
	return s.ledger.GetByRoomOwner(ctx, ownerID)
}

func (s *reservationService) ListReservations(ctx context.Context, actor entity.Actor, filter entity.ReservationFilter) ([]*entity.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, entity.ErrUnauthorized
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", entity.ErrInvalidInput, filter.Status)
	}
	return s.ledger.List(ctx, filter)
}

// ExpireStaleReservations переводит неоплаченные просроченные брони в EXPIRED
func (s *reservationService) ExpireStaleReservations(ctx context.Context) (int, error) {
	stale, err := s.ledger.GetExpiredPending(ctx, s.now(), s.opts.ExpiryBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to load expired reservations: %w", err)
	}

	expiredCount := 0
	for _, reservation := range stale {
		if ctx.Err() != nil {
			return expiredCount, ctx.Err()
		}

		expired, err := s.expire(ctx, reservation.ID)
		if errors.Is(err, entity.ErrInvalidReservationStatus) {
			// paid or cancelled since it was listed
			continue
		}
		if err != nil {
			logrus.WithField("reservation_id", reservation.ID).WithError(err).Error("Failed to expire reservation")
			continue
		}

		expiredCount++
		s.publish(ctx, entity.EventReservationExpired, expired)
	}

	return expiredCount, nil
}

func (s *reservationService) expire(ctx context.Context, reservationID string) (*entity.Reservation, error) {
	return s.transition(ctx, "expire", reservationID, entity.StatusTransition{
		From:                []entity.ReservationStatus{entity.ReservationStatusPending},
		To:                  entity.ReservationStatusExpired,
		ExceptPaymentStatus: entity.PaymentStatusSucceeded,
	})
}

// authorized loads a reservation the actor is allowed to see.
func (s *reservationService) authorized(ctx context.Context, reservationID string, actor entity.Actor) (*entity.Reservation, error) {
	reservation, err := s.ledger.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !reservation.OwnedBy(actor) {
		return nil, entity.ErrUnauthorized
	}
	return reservation, nil
}

func (s *reservationService) transition(ctx context.Context, op, reservationID string, t entity.StatusTransition) (*entity.Reservation, error) {
	var updated *entity.Reservation
	err := s.opts.Retry.Do(ctx, op, func(int) error {
		var err error
		updated, err = s.ledger.Transition(ctx, reservationID, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	if t.To != "" {
		metrics.ReservationTransitions.WithLabelValues(string(t.To)).Inc()
	}
	return updated, nil
}

func (s *reservationService) publish(ctx context.Context, eventType string, reservation *entity.Reservation) {
	if s.publisher == nil {
		return
	}

	event, err := entity.NewReservationEnvelope(eventType, reservation, s.now())
	if err != nil {
		logrus.WithError(err).Error("Failed to build reservation event")
		return
	}

	// the reservation is already committed; a cancelled request must not drop its event
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PublishTimeout)
	defer cancel()

	if err := s.publisher.Publish(publishCtx, event); err != nil {
		logrus.WithFields(logrus.Fields{
			"event_type":     eventType,
			"reservation_id": reservation.ID,
		}).WithError(err).Warn("Failed to publish reservation event")
	}
}

func (s *reservationService) notify(text string) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.Notify(ctx, text); err != nil {
			logrus.WithError(err).Warn("Failed to send notification")
		}
	}()
}
