package models

import "time"

// Role is a member's role inside a group.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Group is a set of members sharing chat, files and events.
type Group struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	AdminID    string    `json:"adminId"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	InviteCode string    `json:"inviteCode"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Member is a user as seen from inside a group.
type Member struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Nickname string    `json:"nickname,omitempty"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}
