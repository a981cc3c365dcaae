package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/lib/pq"
)

const reservationColumns = `
	id, user_id, room_id, hotel_id, check_in, check_out, guest_count, total_price,
	status, payment_status, payment_order_id, payment_id, payment_signature,
	paid_at, expires_at, created_at, updated_at`

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

type reservationLedger struct {
	db          *sql.DB
	lockTimeout time.Duration
}

// NewReservationLedger returns a PostgreSQL ledger. The per-room critical section is a
// row lock on rooms.id held for the duration of one READ COMMITTED transaction.
func NewReservationLedger(db *sql.DB, lockTimeout time.Duration) ReservationLedger {
	return &reservationLedger{db: db, lockTimeout: lockTimeout}
}

// WithinRoomLock opens a transaction, locks the room row and hands the transaction to fn.
func (r *reservationLedger) WithinRoomLock(ctx context.Context, roomID string, fn func(ctx context.Context, tx LedgerTx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return classifyError("begin transaction", err)
	}
	defer tx.Rollback()

	if r.lockTimeout > 0 {
		// SET does not take bind parameters; the value is an integer we format ourselves.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return classifyError("set lock timeout", err)
		}
	}

	var inventory int
	err = tx.QueryRowContext(ctx, `SELECT inventory FROM rooms WHERE id = $1 FOR UPDATE`, roomID).Scan(&inventory)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrRoomNotFound
	}
	if err != nil {
		return classifyError("lock room", err)
	}

	if err := fn(ctx, &ledgerTx{tx: tx, inventory: inventory}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classifyError("commit transaction", err)
	}
	return nil
}

// CountOverlapping counts reservations outside any lock.
func (r *reservationLedger) CountOverlapping(ctx context.Context, roomID string, stay entity.Stay, statuses []entity.ReservationStatus) (int, error) {
	return countOverlapping(ctx, r.db, roomID, stay, statuses)
}

// GetByID retrieves a reservation by its ID
func (r *reservationLedger) GetByID(ctx context.Context, id string) (*entity.Reservation, error) {
	return findReservation(ctx, r.db, id)
}

// Transition applies a compare-and-set status change and returns the updated row.
func (r *reservationLedger) Transition(ctx context.Context, id string, t entity.StatusTransition) (*entity.Reservation, error) {
	query := `
		UPDATE reservations SET
			status = COALESCE(NULLIF($2, ''), status),
			payment_status = COALESCE(NULLIF($3, ''), payment_status),
			payment_order_id = COALESCE(NULLIF($4, ''), payment_order_id),
			payment_id = COALESCE(NULLIF($5, ''), payment_id),
			payment_signature = COALESCE(NULLIF($6, ''), payment_signature),
			paid_at = COALESCE($7, paid_at),
			updated_at = $8
		WHERE id = $1 AND status = ANY($9) AND payment_status <> $10
		RETURNING ` + reservationColumns

	var paidAt sql.NullTime
	if t.Payment.PaidAt != nil {
		paidAt = sql.NullTime{Time: *t.Payment.PaidAt, Valid: true}
	}

	row := r.db.QueryRowContext(ctx, query,
		id,
		string(t.To),
		string(t.Payment.PaymentStatus),
		t.Payment.PaymentOrderID,
		t.Payment.PaymentID,
		t.Payment.PaymentSignature,
		paidAt,
		time.Now().UTC(),
		pq.Array(statusStrings(t.From)),
		string(t.ExceptPaymentStatus),
	)

	reservation, err := scanReservation(row)
	if err == nil {
		return reservation, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, classifyError("update reservation status", err)
	}

	// Nothing matched: tell a missing row apart from a failed precondition.
	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM reservations WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return nil, classifyError("check reservation", err)
	}
	if !exists {
		return nil, entity.ErrReservationNotFound
	}
	return nil, entity.ErrInvalidReservationStatus
}

// GetByUserID retrieves all reservations for a specific user
func (r *reservationLedger) GetByUserID(ctx context.Context, userID string) ([]*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1
		ORDER BY created_at DESC`

	return queryReservations(ctx, r.db, "query reservations by user", query, userID)
}

// GetByRoomOwner retrieves reservations placed on rooms of the given owner
func (r *reservationLedger) GetByRoomOwner(ctx context.Context, ownerID string) ([]*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE room_id IN (SELECT id FROM rooms WHERE owner_id = $1)
		ORDER BY created_at DESC`

	return queryReservations(ctx, r.db, "query reservations by room owner", query, ownerID)
}

// List returns reservations newest first, optionally filtered by status.
func (r *reservationLedger) List(ctx context.Context, filter entity.ReservationFilter) ([]*entity.Reservation, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	return queryReservations(ctx, r.db, "list reservations", query, args...)
}

// GetExpiredPending returns unpaid pending holds whose deadline is at or before the given time.
func (r *reservationLedger) GetExpiredPending(ctx context.Context, before time.Time, limit int) ([]*entity.Reservation, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = 'pending'
			AND payment_status <> 'succeeded'
			AND expires_at IS NOT NULL
			AND expires_at <= $1
		ORDER BY expires_at ASC
		LIMIT $2`

	return queryReservations(ctx, r.db, "query expired reservations", query, before, limit)
}

// ledgerTx is the view of an open, room-locked transaction.
type ledgerTx struct {
	tx        *sql.Tx
	inventory int
}

func (t *ledgerTx) Inventory() int {
	return t.inventory
}

func (t *ledgerTx) CountOverlapping(ctx context.Context, roomID string, stay entity.Stay, statuses []entity.ReservationStatus) (int, error) {
	return countOverlapping(ctx, t.tx, roomID, stay, statuses)
}

func (t *ledgerTx) Insert(ctx context.Context, reservation *entity.Reservation) error {
	query := `
		INSERT INTO reservations (
			id, user_id, room_id, hotel_id, check_in, check_out, guest_count,
			total_price, status, payment_status, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	var expiresAt sql.NullTime
	if reservation.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *reservation.ExpiresAt, Valid: true}
	}

	_, err := t.tx.ExecContext(ctx, query,
		reservation.ID,
		reservation.UserID,
		reservation.RoomID,
		reservation.HotelID,
		reservation.CheckIn,
		reservation.CheckOut,
		reservation.GuestCount,
		reservation.TotalPrice,
		string(reservation.Status),
		string(reservation.PaymentStatus),
		expiresAt,
		reservation.CreatedAt,
		reservation.UpdatedAt,
	)
	if err != nil {
		return classifyError("insert reservation", err)
	}
	return nil
}

func (t *ledgerTx) Find(ctx context.Context, id string) (*entity.Reservation, error) {
	return findReservation(ctx, t.tx, id)
}

// countOverlapping uses the half-open overlap predicate: existing.check_in < request.check_out
// AND existing.check_out > request.check_in.
func countOverlapping(ctx context.Context, q queryer, roomID string, stay entity.Stay, statuses []entity.ReservationStatus) (int, error) {
	query := `
		SELECT COUNT(*) FROM reservations
		WHERE room_id = $1
			AND status = ANY($2)
			AND check_in < $3
			AND check_out > $4`

	var count int
	err := q.QueryRowContext(ctx, query, roomID, pq.Array(statusStrings(statuses)), stay.CheckOut, stay.CheckIn).Scan(&count)
	if err != nil {
		return 0, classifyError("count overlapping reservations", err)
	}
	return count, nil
}

func findReservation(ctx context.Context, q queryer, id string) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	reservation, err := scanReservation(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrReservationNotFound
	}
	if err != nil {
		return nil, classifyError("get reservation", err)
	}
	return reservation, nil
}

func queryReservations(ctx context.Context, q queryer, op, query string, args ...any) ([]*entity.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(op, err)
	}
	defer rows.Close()

	reservations := make([]*entity.Reservation, 0)
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, classifyError(op, err)
	}
	return reservations, nil
}

func scanReservation(row rowScanner) (*entity.Reservation, error) {
	var (
		reservation      entity.Reservation
		status           string
		paymentStatus    string
		paidAt, expireAt sql.NullTime
	)

	err := row.Scan(
		&reservation.ID,
		&reservation.UserID,
		&reservation.RoomID,
		&reservation.HotelID,
		&reservation.CheckIn,
		&reservation.CheckOut,
		&reservation.GuestCount,
		&reservation.TotalPrice,
		&status,
		&paymentStatus,
		&reservation.PaymentOrderID,
		&reservation.PaymentID,
		&reservation.PaymentSignature,
		&paidAt,
		&expireAt,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	reservation.Status = entity.ReservationStatus(status)
	reservation.PaymentStatus = entity.PaymentStatus(paymentStatus)
	if paidAt.Valid {
		t := paidAt.Time
		reservation.PaidAt = &t
	}
	if expireAt.Valid {
		t := expireAt.Time
		reservation.ExpiresAt = &t
	}
	return &reservation, nil
}

func statusStrings(statuses []entity.ReservationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
