package models

import "time"

// Reaction is a single emoji applied by a user to a message. The store
// enforces uniqueness on (message_id, user_id, emoji).
type Reaction struct {
	MessageID int       `db:"message_id" json:"message_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Emoji     string    `db:"emoji" json:"emoji"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReactionGroup is the per-emoji rollup returned by the reactions list.
type ReactionGroup struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
	Users []int  `json:"users"`
}
