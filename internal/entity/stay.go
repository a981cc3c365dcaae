package entity

import (
	"math"
	"time"
)

const nightDuration = 24 * time.Hour

// Stay is a half-open interval [CheckIn, CheckOut).
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func (s Stay) Validate() error {
	if !s.CheckIn.Before(s.CheckOut) {
		return ErrInvalidDateRange
	}
	return nil
}

// Overlaps is the single overlap predicate used by every ledger:
// [a,b) and [c,d) share at least one instant iff a < d && c < b.
func (s Stay) Overlaps(other Stay) bool {
	return s.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(s.CheckOut)
}

// Nights rounds the stay length up to whole 24h periods. A valid stay is at least one night.
func (s Stay) Nights() int {
	span := s.CheckOut.Sub(s.CheckIn)
	if span <= 0 {
		return 0
	}
	return int((span + nightDuration - 1) / nightDuration)
}

// TotalPrice multiplies nights by the nightly rate and rounds to cents.
func TotalPrice(nights int, pricePerNight float64) float64 {
	return math.Round(float64(nights)*pricePerNight*100) / 100
}
