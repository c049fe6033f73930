package models

import "time"

// Group lifecycle states persisted in the groups.state column. The
// Active -> Expired transition is never stored; it is derived from
// ExpiresAt and wall-clock time.
const (
	GroupStateActive  = "active"
	GroupStatePurging = "purging"
)

// Expiry duration bounds enforced at group creation.
const (
	MinExpiryDuration = time.Hour
	MaxExpiryDuration = 30 * 24 * time.Hour
)

// Group represents an ephemeral chat group.
type Group struct {
	ID          int        `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description,omitempty"`
	IsPublic    bool       `db:"is_public" json:"is_public"`
	InviteCode  string     `db:"invite_code" json:"invite_code"`
	CreatorID   int        `db:"creator_id" json:"creator_id"`
	ExpiresAt   time.Time  `db:"expires_at" json:"expires_at"`
	State       string     `db:"state" json:"-"`
	PurgingAt   *time.Time `db:"purging_at" json:"-"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Expired reports whether the group is logically expired at t, even if
// it has not been physically purged yet.
func (g Group) Expired(t time.Time) bool {
	return !t.Before(g.ExpiresAt)
}
