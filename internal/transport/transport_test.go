package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/database/memory"
	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/ds124wfegd/hotel-booking/internal/service"
	"github.com/ds124wfegd/hotel-booking/internal/transport/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const (
	jwtSecret     = "transport-secret"
	paymentSecret = "gateway-secret"
)

type api struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T, inventory int) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore(time.Second)
	store.AddRoom(entity.Room{ID: "room-1", HotelID: "hotel-1", OwnerID: "owner-1", Title: "Deluxe", Type: "double", PricePerNight: 120, Capacity: 2, Inventory: inventory})
	store.AddRoom(entity.Room{ID: "room-2", HotelID: "hotel-1", Title: "Attic", Type: "single", PricePerNight: 60, Capacity: 1, Inventory: 2})

	reservations := service.NewReservationService(store.Rooms(), store.Ledger(), nil, nil, nil, service.ReservationOptions{
		ConfirmationMode: service.ConfirmationModePayment,
		HoldTTL:          time.Hour,
		PaymentSecret:    paymentSecret,
		Retry:            service.NewRetryPolicy(2, 0),
	})
	rooms := service.NewRoomService(store.Rooms())

	deadLetters := service.NewDeadLetterService(parkedEvents{})

	router := InitRoutes(NewReservationHandler(reservations), NewRoomHandler(rooms, reservations), NewDeadLetterHandler(deadLetters), RouterOptions{
		JWTSecret:      jwtSecret,
		RequestTimeout: 5 * time.Second,
	})
	return &api{t: t, router: router}
}

// parkedEvents serves a fixed dead letter set.
type parkedEvents struct{}

var parkedAt = time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

func (parkedEvents) List(ctx context.Context, limit int) ([]*entity.FailedEvent, error) {
	events := []*entity.FailedEvent{
		{Event: &entity.Envelope{EventID: "evt-2", EventType: entity.EventReservationCancelled}, Error: "broker down", FailedAt: parkedAt.Add(time.Minute)},
		{Event: &entity.Envelope{EventID: "evt-1", EventType: entity.EventReservationCreated}, Error: "broker down", FailedAt: parkedAt},
	}
	if limit < len(events) {
		events = events[:limit]
	}
	return events, nil
}

func (parkedEvents) Stats(ctx context.Context) (*entity.DeadLetterStats, error) {
	return &entity.DeadLetterStats{QueueSize: 2, OldestFailure: parkedAt, NewestFailure: parkedAt.Add(time.Minute)}, nil
}

func token(t *testing.T, userID string, role entity.Role) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

func (a *api) do(method, path, bearer string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader).WithContext(context.Background())
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *api) reserve(bearer, roomID, checkIn, checkOut string) *httptest.ResponseRecorder {
	return a.do(http.MethodPost, "/api/v1/reservations", bearer, map[string]interface{}{
		"room_id":     roomID,
		"check_in":    checkIn,
		"check_out":   checkOut,
		"guest_count": 2,
	})
}

func TestHealthAndCatalog(t *testing.T) {
	a := newAPI(t, 1)

	w := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", gjson.Get(w.Body.String(), "status").String())

	w = a.do(http.MethodGet, "/api/v1/hotels/hotel-1/rooms", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, int64(2), gjson.Get(body, "meta.total").Int())
	assert.Equal(t, "Attic", gjson.Get(body, "data.0.title").String())

	w = a.do(http.MethodGet, "/api/v1/rooms/room-404", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, gjson.Get(w.Body.String(), "success").Bool())

	w = a.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateReservation(t *testing.T) {
	a := newAPI(t, 1)
	alice := token(t, "alice", entity.RoleUser)
	bob := token(t, "bob", entity.RoleUser)

	w := a.reserve("", "room-1", "2025-07-01", "2025-07-04")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.reserve(alice, "room-1", "2025-07-01", "2025-07-04")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Equal(t, "pending", gjson.Get(body, "data.status").String())
	assert.Equal(t, "alice", gjson.Get(body, "data.user_id").String())
	assert.Equal(t, 360.0, gjson.Get(body, "data.total_price").Float())
	assert.False(t, gjson.Get(body, "data.payment_signature").Exists())

	w = a.reserve(bob, "room-1", "2025-07-03", "2025-07-05")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.reserve(bob, "room-1", "2025-07-04", "2025-07-05")
	assert.Equal(t, http.StatusCreated, w.Code, "check-out day is free again")
}

func TestCreateReservation_BadInput(t *testing.T) {
	a := newAPI(t, 1)
	alice := token(t, "alice", entity.RoleUser)

	tests := []struct {
		name    string
		body    map[string]interface{}
		wantErr string
	}{
		{
			name:    "check-out before check-in",
			body:    map[string]interface{}{"room_id": "room-1", "check_in": "2025-07-05", "check_out": "2025-07-01", "guest_count": 1},
			wantErr: entity.ErrInvalidDateRange.Error(),
		},
		{
			name:    "same day",
			body:    map[string]interface{}{"room_id": "room-1", "check_in": "2025-07-05", "check_out": "2025-07-05", "guest_count": 1},
			wantErr: entity.ErrInvalidDateRange.Error(),
		},
		{
			name:    "no guests",
			body:    map[string]interface{}{"room_id": "room-1", "check_in": "2025-07-01", "check_out": "2025-07-02", "guest_count": 0},
			wantErr: entity.ErrInvalidGuestCount.Error(),
		},
		{
			name: "malformed date",
			body: map[string]interface{}{"room_id": "room-1", "check_in": "July 1st", "check_out": "2025-07-02", "guest_count": 1},
		},
		{
			name: "missing room",
			body: map[string]interface{}{"check_in": "2025-07-01", "check_out": "2025-07-02", "guest_count": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(http.MethodPost, "/api/v1/reservations", alice, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, gjson.Get(w.Body.String(), "error").String())
			}
		})
	}

	w := a.reserve(alice, "room-404", "2025-07-01", "2025-07-02")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateReservation_IdempotencyHeaderIsOptional(t *testing.T) {
	a := newAPI(t, 3)
	alice := token(t, "alice", entity.RoleUser)

	w := a.do(http.MethodPost, "/api/v1/reservations", alice, map[string]interface{}{
		"room_id": "room-1", "check_in": "2025-07-01", "check_out": "2025-07-02", "guest_count": 1,
	}, idempotencyHeader, "abc")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAvailability(t *testing.T) {
	a := newAPI(t, 1)
	alice := token(t, "alice", entity.RoleUser)

	require.Equal(t, http.StatusCreated, a.reserve(alice, "room-1", "2025-07-01", "2025-07-04").Code)

	w := a.do(http.MethodGet, "/api/v1/rooms/room-1/availability?check_in=2025-07-03&check_out=2025-07-06", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, int64(0), gjson.Get(body, "data.available").Int())
	assert.Equal(t, int64(3), gjson.Get(body, "data.nights").Int())

	w = a.do(http.MethodGet, "/api/v1/rooms/room-1/availability?check_in=2025-07-06&check_out=2025-07-03", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReservationLifecycle(t *testing.T) {
	a := newAPI(t, 1)
	alice := token(t, "alice", entity.RoleUser)
	bob := token(t, "bob", entity.RoleUser)
	admin := token(t, "root", entity.RoleAdmin)

	w := a.reserve(alice, "room-1", "2025-07-01", "2025-07-04")
	require.Equal(t, http.StatusCreated, w.Code)
	id := gjson.Get(w.Body.String(), "data.id").String()

	w = a.do(http.MethodGet, "/api/v1/reservations/"+id, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodGet, "/api/v1/reservations/my", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, gjson.Get(w.Body.String(), "data.0.id").String())

	w = a.do(http.MethodGet, "/api/v1/admin/reservations?status=pending", alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodGet, "/api/v1/admin/reservations?status=pending&limit=10", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "meta.count").Int())

	w = a.do(http.MethodGet, "/api/v1/admin/reservations?status=lost", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPatch, "/api/v1/reservations/"+id+"/cancel", bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodPatch, "/api/v1/reservations/"+id+"/cancel", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", gjson.Get(w.Body.String(), "data.status").String())

	w = a.do(http.MethodPatch, "/api/v1/reservations/"+id+"/cancel", alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodPatch, "/api/v1/reservations/missing/cancel", alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentFlow(t *testing.T) {
	a := newAPI(t, 1)
	alice := token(t, "alice", entity.RoleUser)

	w := a.reserve(alice, "room-1", "2025-07-01", "2025-07-03")
	require.Equal(t, http.StatusCreated, w.Code)
	id := gjson.Get(w.Body.String(), "data.id").String()

	w = a.do(http.MethodPost, "/api/v1/payments/orders", alice, map[string]string{
		"reservation_id": id,
		"order_id":       "order_9",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "processing", gjson.Get(w.Body.String(), "data.payment_status").String())

	w = a.do(http.MethodPost, "/api/v1/payments/verify", alice, map[string]string{
		"reservation_id": id,
		"order_id":       "order_9",
		"payment_id":     "pay_9",
		"signature":      "0000",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/api/v1/payments/"+id, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "failed", gjson.Get(w.Body.String(), "data.payment_status").String())
	assert.Equal(t, "pending", gjson.Get(w.Body.String(), "data.status").String())

	signature := service.NewSignatureVerifier(paymentSecret).Sign("order_9", "pay_9")
	w = a.do(http.MethodPost, "/api/v1/payments/verify", alice, map[string]string{
		"reservation_id": id,
		"order_id":       "order_9",
		"payment_id":     "pay_9",
		"signature":      signature,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Equal(t, "confirmed", gjson.Get(body, "data.status").String())
	assert.Equal(t, "succeeded", gjson.Get(body, "data.payment_status").String())

	w = a.do(http.MethodPost, "/api/v1/payments/orders", alice, map[string]string{
		"reservation_id": id,
		"order_id":       "order_10",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/api/v1/payments/verify", alice, map[string]string{"reservation_id": id})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOwnerReservations(t *testing.T) {
	a := newAPI(t, 2)
	alice := token(t, "alice", entity.RoleUser)
	owner := token(t, "owner-1", entity.RoleOwner)
	stranger := token(t, "owner-2", entity.RoleOwner)
	admin := token(t, "root", entity.RoleAdmin)

	w := a.reserve(alice, "room-1", "2025-07-01", "2025-07-03")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := gjson.Get(w.Body.String(), "data.id").String()
	w = a.reserve(alice, "room-2", "2025-07-01", "2025-07-03")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/api/v1/reservations/owner", alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodGet, "/api/v1/reservations/owner", owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Equal(t, int64(1), gjson.Get(body, "meta.total").Int())
	assert.Equal(t, id, gjson.Get(body, "data.0.id").String())

	w = a.do(http.MethodGet, "/api/v1/reservations/owner?owner_id=owner-1", stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodGet, "/api/v1/reservations/owner", stranger, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), gjson.Get(w.Body.String(), "meta.total").Int())

	w = a.do(http.MethodGet, "/api/v1/reservations/owner?owner_id=owner-1", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, gjson.Get(w.Body.String(), "data.0.id").String())
}

func TestDeadLetterRoutes(t *testing.T) {
	a := newAPI(t, 1)
	alice := token(t, "alice", entity.RoleUser)
	admin := token(t, "root", entity.RoleAdmin)

	w := a.do(http.MethodGet, "/api/v1/admin/dead-letters", alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodGet, "/api/v1/admin/dead-letters/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/v1/admin/dead-letters", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Equal(t, int64(2), gjson.Get(body, "meta.count").Int())
	assert.Equal(t, int64(50), gjson.Get(body, "meta.limit").Int())
	assert.Equal(t, "evt-2", gjson.Get(body, "data.0.event.event_id").String())
	assert.Equal(t, "broker down", gjson.Get(body, "data.0.error").String())

	w = a.do(http.MethodGet, "/api/v1/admin/dead-letters?limit=1", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "meta.count").Int())

	w = a.do(http.MethodGet, "/api/v1/admin/dead-letters?limit=1000", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(100), gjson.Get(w.Body.String(), "meta.limit").Int())

	w = a.do(http.MethodGet, "/api/v1/admin/dead-letters/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = w.Body.String()
	assert.Equal(t, int64(2), gjson.Get(body, "data.queue_size").Int())
	assert.Equal(t, parkedAt.Format(time.RFC3339), gjson.Get(body, "data.oldest_failure").String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{entity.ErrInvalidDateRange, http.StatusBadRequest},
		{entity.ErrInvalidGuestCount, http.StatusBadRequest},
		{entity.ErrPaymentVerificationFailed, http.StatusBadRequest},
		{entity.ErrUnauthorized, http.StatusForbidden},
		{entity.ErrRoomNotFound, http.StatusNotFound},
		{entity.ErrReservationNotFound, http.StatusNotFound},
		{entity.ErrRoomUnavailable, http.StatusConflict},
		{entity.ErrInvalidReservationStatus, http.StatusConflict},
		{entity.ErrReservationExpired, http.StatusConflict},
		{entity.NewTransientStoreError("lock room", entity.ErrLockTimeout), http.StatusServiceUnavailable},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
