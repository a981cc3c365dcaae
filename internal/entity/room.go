package entity

// Room is a bookable room type. Inventory counts interchangeable physical units
// and is never decremented per booking.
type Room struct {
	ID            string  `json:"id"`
	HotelID       string  `json:"hotel_id"`
	OwnerID       string  `json:"owner_id,omitempty"`
	Title         string  `json:"title"`
	Type          string  `json:"type"`
	PricePerNight float64 `json:"price_per_night"`
	Capacity      int     `json:"capacity"`
	Inventory     int     `json:"inventory"`
}

// RoomAvailability is a point-in-time snapshot for a date range. It is not a guarantee.
type RoomAvailability struct {
	RoomID      string  `json:"room_id"`
	Inventory   int     `json:"inventory"`
	Overlapping int     `json:"overlapping"`
	Available   int     `json:"available"`
	Nights      int     `json:"nights"`
	TotalPrice  float64 `json:"total_price"`
}

// AvailableUnits returns how many units remain free given the overlapping count.
func (r *Room) AvailableUnits(overlapping int) int {
	if free := r.Inventory - overlapping; free > 0 {
		return free
	}
	return 0
}
