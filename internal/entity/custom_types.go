package entity

import (
	"fmt"
	"strings"
	"time"
)

const StayDateLayout = "2006-01-02"

// ParseStayDate accepts either a calendar date ("2006-01-02", read as midnight UTC)
// or a full RFC3339 timestamp.
func ParseStayDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(StayDateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}
