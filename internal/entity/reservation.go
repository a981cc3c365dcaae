package entity

import (
	"time"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// ActiveStatuses are the statuses that occupy a unit of inventory.
var ActiveStatuses = []ReservationStatus{ReservationStatusPending, ReservationStatusConfirmed}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed,
		ReservationStatusCancelled, ReservationStatusExpired:
		return true
	}
	return false
}

// Active reports whether a reservation with this status holds inventory.
func (s ReservationStatus) Active() bool {
	return s == ReservationStatusPending || s == ReservationStatusConfirmed
}

type PaymentStatus string

const (
	PaymentStatusUnset      PaymentStatus = "unset"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSucceeded  PaymentStatus = "succeeded"
	PaymentStatusFailed     PaymentStatus = "failed"
)

type Reservation struct {
	ID               string            `json:"id" db:"id"`
	UserID           string            `json:"user_id" db:"user_id"`
	RoomID           string            `json:"room_id" db:"room_id"`
	HotelID          string            `json:"hotel_id" db:"hotel_id"`
	CheckIn          time.Time         `json:"check_in" db:"check_in"`
	CheckOut         time.Time         `json:"check_out" db:"check_out"`
	GuestCount       int               `json:"guest_count" db:"guest_count"`
	TotalPrice       float64           `json:"total_price" db:"total_price"`
	Status           ReservationStatus `json:"status" db:"status"`
	PaymentStatus    PaymentStatus     `json:"payment_status" db:"payment_status"`
	PaymentOrderID   string            `json:"payment_order_id,omitempty" db:"payment_order_id"`
	PaymentID        string            `json:"payment_id,omitempty" db:"payment_id"`
	PaymentSignature string            `json:"-" db:"payment_signature"`
	PaidAt           *time.Time        `json:"paid_at,omitempty" db:"paid_at"`
	ExpiresAt        *time.Time        `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// Stay returns the reserved interval.
func (r *Reservation) Stay() Stay {
	return Stay{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

// OwnedBy reports whether the actor may act on this reservation.
func (r *Reservation) OwnedBy(actor Actor) bool {
	return actor.IsAdmin() || (actor.UserID != "" && actor.UserID == r.UserID)
}

// PaymentProof is what the gateway hands back to the client after checkout.
type PaymentProof struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// PaymentUpdate carries the payment columns written together with a status transition.
// Zero fields are left untouched.
type PaymentUpdate struct {
	PaymentStatus    PaymentStatus
	PaymentOrderID   string
	PaymentID        string
	PaymentSignature string
	PaidAt           *time.Time
}

// PaymentDetails is the payment view of a reservation.
type PaymentDetails struct {
	ReservationID  string            `json:"reservation_id"`
	Status         ReservationStatus `json:"status"`
	PaymentStatus  PaymentStatus     `json:"payment_status"`
	PaymentOrderID string            `json:"payment_order_id,omitempty"`
	PaymentID      string            `json:"payment_id,omitempty"`
	Amount         float64           `json:"amount"`
	PaidAt         *time.Time        `json:"paid_at,omitempty"`
}

func (r *Reservation) PaymentDetails() *PaymentDetails {
	return &PaymentDetails{
		ReservationID:  r.ID,
		Status:         r.Status,
		PaymentStatus:  r.PaymentStatus,
		PaymentOrderID: r.PaymentOrderID,
		PaymentID:      r.PaymentID,
		Amount:         r.TotalPrice,
		PaidAt:         r.PaidAt,
	}
}

// ReservationFilter narrows administrative listings.
type ReservationFilter struct {
	Status ReservationStatus
	Limit  int
	Offset int
}

// StatusTransition is a compare-and-set on a reservation row. The update applies only
// while the current status is one of From and the payment status differs from
// ExceptPaymentStatus. An empty To keeps the current status.
type StatusTransition struct {
	From                []ReservationStatus
	To                  ReservationStatus
	ExceptPaymentStatus PaymentStatus
	Payment             PaymentUpdate
}

// Allows reports whether the transition may be applied to r.
func (t StatusTransition) Allows(r *Reservation) bool {
	if t.ExceptPaymentStatus != "" && r.PaymentStatus == t.ExceptPaymentStatus {
		return false
	}
	for _, s := range t.From {
		if r.Status == s {
			return true
		}
	}
	return false
}

// Apply writes the transition onto r.
func (t StatusTransition) Apply(r *Reservation, at time.Time) {
	if t.To != "" {
		r.Status = t.To
	}
	p := t.Payment
	if p.PaymentStatus != "" {
		r.PaymentStatus = p.PaymentStatus
	}
	if p.PaymentOrderID != "" {
		r.PaymentOrderID = p.PaymentOrderID
	}
	if p.PaymentID != "" {
		r.PaymentID = p.PaymentID
	}
	if p.PaymentSignature != "" {
		r.PaymentSignature = p.PaymentSignature
	}
	if p.PaidAt != nil {
		paidAt := *p.PaidAt
		r.PaidAt = &paidAt
	}
	r.UpdatedAt = at
}
