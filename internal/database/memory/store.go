// Package memory is an in-process ledger and room catalog. The per-room critical
// section is a one-slot channel per room, so waiting for it honours both the
// context and a bounded lock timeout.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	repository "github.com/ds124wfegd/hotel-booking/internal/database/postgres"
	"github.com/ds124wfegd/hotel-booking/internal/entity"
)

// Store holds the shared state behind Rooms and Ledger.
type Store struct {
	mu           sync.RWMutex
	rooms        map[string]*entity.Room
	reservations map[string]*entity.Reservation

	locksMu     sync.Mutex
	locks       map[string]chan struct{}
	lockTimeout time.Duration
}

func NewStore(lockTimeout time.Duration) *Store {
	return &Store{
		rooms:        make(map[string]*entity.Room),
		reservations: make(map[string]*entity.Reservation),
		locks:        make(map[string]chan struct{}),
		lockTimeout:  lockTimeout,
	}
}

// AddRoom registers or replaces a room in the catalog.
func (s *Store) AddRoom(room entity.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = &room
}

func (s *Store) Rooms() *Rooms {
	return &Rooms{store: s}
}

func (s *Store) Ledger() *Ledger {
	return &Ledger{store: s}
}

func (s *Store) roomLock(roomID string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[roomID]
	if !ok {
		lock = make(chan struct{}, 1)
		s.locks[roomID] = lock
	}
	return lock
}

// Rooms is the in-memory room catalog.
type Rooms struct {
	store *Store
}

var _ repository.RoomRepository = (*Rooms)(nil)

func (r *Rooms) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	room, ok := r.store.rooms[id]
	if !ok {
		return nil, entity.ErrRoomNotFound
	}
	out := *room
	return &out, nil
}

func (r *Rooms) ListByHotel(ctx context.Context, hotelID string) ([]*entity.Room, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rooms := make([]*entity.Room, 0)
	for _, room := range r.store.rooms {
		if room.HotelID == hotelID {
			out := *room
			rooms = append(rooms, &out)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Title < rooms[j].Title })
	return rooms, nil
}

// Ledger is the in-memory reservation ledger.
type Ledger struct {
	store *Store
}

var _ repository.ReservationLedger = (*Ledger)(nil)

func (l *Ledger) WithinRoomLock(ctx context.Context, roomID string, fn func(ctx context.Context, tx repository.LedgerTx) error) error {
	s := l.store

	s.mu.RLock()
	_, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if !ok {
		return entity.ErrRoomNotFound
	}

	lock := s.roomLock(roomID)

	var timeout <-chan time.Time
	if s.lockTimeout > 0 {
		timer := time.NewTimer(s.lockTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case lock <- struct{}{}:
	case <-timeout:
		return entity.NewTransientStoreError("lock room", entity.ErrLockTimeout)
	case <-ctx.Done():
		return entity.NewTransientStoreError("lock room", ctx.Err())
	}
	defer func() { <-lock }()

	// rooms are replaced, never removed; AddRoom may have changed the inventory
	s.mu.RLock()
	inventory := s.rooms[roomID].Inventory
	s.mu.RUnlock()

	tx := &memoryTx{store: s, inventory: inventory}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	// commit
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range tx.pending {
		if _, exists := s.reservations[r.ID]; exists {
			return entity.ErrReservationExists
		}
	}
	for _, r := range tx.pending {
		s.reservations[r.ID] = r
	}
	return nil
}

func (l *Ledger) CountOverlapping(ctx context.Context, roomID string, stay entity.Stay, statuses []entity.ReservationStatus) (int, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	return countOverlapping(l.store.reservations, nil, roomID, stay, statuses), nil
}

func (l *Ledger) GetByID(ctx context.Context, id string) (*entity.Reservation, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	r, ok := l.store.reservations[id]
	if !ok {
		return nil, entity.ErrReservationNotFound
	}
	return clone(r), nil
}

func (l *Ledger) Transition(ctx context.Context, id string, t entity.StatusTransition) (*entity.Reservation, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	r, ok := l.store.reservations[id]
	if !ok {
		return nil, entity.ErrReservationNotFound
	}
	if !t.Allows(r) {
		return nil, entity.ErrInvalidReservationStatus
	}
	t.Apply(r, time.Now().UTC())
	return clone(r), nil
}

func (l *Ledger) GetByUserID(ctx context.Context, userID string) ([]*entity.Reservation, error) {
	return l.selectSorted(func(r *entity.Reservation) bool { return r.UserID == userID }, byCreatedDesc, 0, 0), nil
}

func (l *Ledger) GetByRoomOwner(ctx context.Context, ownerID string) ([]*entity.Reservation, error) {
	// selectSorted holds store.mu, which also guards the room map
	owned := func(r *entity.Reservation) bool {
		room, ok := l.store.rooms[r.RoomID]
		return ok && ownerID != "" && room.OwnerID == ownerID
	}
	return l.selectSorted(owned, byCreatedDesc, 0, 0), nil
}

func (l *Ledger) List(ctx context.Context, filter entity.ReservationFilter) ([]*entity.Reservation, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	match := func(r *entity.Reservation) bool {
		return filter.Status == "" || r.Status == filter.Status
	}
	return l.selectSorted(match, byCreatedDesc, limit, filter.Offset), nil
}

func (l *Ledger) GetExpiredPending(ctx context.Context, before time.Time, limit int) ([]*entity.Reservation, error) {
	if limit <= 0 {
		limit = 100
	}
	match := func(r *entity.Reservation) bool {
		return r.Status == entity.ReservationStatusPending &&
			r.PaymentStatus != entity.PaymentStatusSucceeded &&
			r.ExpiresAt != nil && !r.ExpiresAt.After(before)
	}
	byExpiry := func(a, b *entity.Reservation) bool { return a.ExpiresAt.Before(*b.ExpiresAt) }
	return l.selectSorted(match, byExpiry, limit, 0), nil
}

func (l *Ledger) selectSorted(match func(*entity.Reservation) bool, less func(a, b *entity.Reservation) bool, limit, offset int) []*entity.Reservation {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	out := make([]*entity.Reservation, 0)
	for _, r := range l.store.reservations {
		if match(r) {
			out = append(out, clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })

	if offset > 0 {
		if offset >= len(out) {
			return out[:0]
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// memoryTx buffers inserts until the critical section commits.
type memoryTx struct {
	store     *Store
	inventory int
	pending   []*entity.Reservation
}

func (t *memoryTx) Inventory() int {
	return t.inventory
}

func (t *memoryTx) CountOverlapping(ctx context.Context, roomID string, stay entity.Stay, statuses []entity.ReservationStatus) (int, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return countOverlapping(t.store.reservations, t.pending, roomID, stay, statuses), nil
}

func (t *memoryTx) Insert(ctx context.Context, reservation *entity.Reservation) error {
	t.pending = append(t.pending, clone(reservation))
	return nil
}

func (t *memoryTx) Find(ctx context.Context, id string) (*entity.Reservation, error) {
	for _, r := range t.pending {
		if r.ID == id {
			return clone(r), nil
		}
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	r, ok := t.store.reservations[id]
	if !ok {
		return nil, entity.ErrReservationNotFound
	}
	return clone(r), nil
}

func countOverlapping(committed map[string]*entity.Reservation, pending []*entity.Reservation, roomID string, stay entity.Stay, statuses []entity.ReservationStatus) int {
	match := func(r *entity.Reservation) bool {
		if r.RoomID != roomID || !r.Stay().Overlaps(stay) {
			return false
		}
		for _, st := range statuses {
			if r.Status == st {
				return true
			}
		}
		return false
	}

	count := 0
	for _, r := range committed {
		if match(r) {
			count++
		}
	}
	for _, r := range pending {
		if match(r) {
			count++
		}
	}
	return count
}

func byCreatedDesc(a, b *entity.Reservation) bool {
	return a.CreatedAt.After(b.CreatedAt)
}

func clone(r *entity.Reservation) *entity.Reservation {
	out := *r
	if r.PaidAt != nil {
		t := *r.PaidAt
		out.PaidAt = &t
	}
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		out.ExpiresAt = &t
	}
	return &out
}
