package entity

type Role string

const (
	RoleUser  Role = "user"
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// Actor is the authenticated caller as established by the auth middleware.
type Actor struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ManagesRooms reports whether the actor may see reservations of the rooms it owns.
func (a Actor) ManagesRooms() bool {
	return a.Role == RoleOwner || a.Role == RoleAdmin
}
