package models

import "time"

// Membership roles. Banned is terminal: it is only reachable from
// member or admin and is never reversed by this service.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleBanned = "banned"
)

// Membership maps a user to a group with a role. Ban metadata is set
// only when Role is banned.
type Membership struct {
	GroupID   int        `db:"group_id" json:"group_id"`
	UserID    int        `db:"user_id" json:"user_id"`
	Role      string     `db:"role" json:"role"`
	JoinedAt  time.Time  `db:"joined_at" json:"joined_at"`
	BannedAt  *time.Time `db:"banned_at" json:"banned_at,omitempty"`
	BannedBy  *int       `db:"banned_by" json:"banned_by,omitempty"`
	BanReason *string    `db:"ban_reason" json:"ban_reason,omitempty"`
}

// CanModerate reports whether the role carries moderation rights.
func CanModerate(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}
