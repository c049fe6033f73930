package models

import "time"

// Message types.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeVideo = "video"
	MessageTypeFile  = "file"
)

// Message represents a message sent in a group. Content may be empty
// only when a media descriptor is present.
type Message struct {
	ID          int        `db:"id" json:"id"`
	GroupID     int        `db:"group_id" json:"group_id"`
	SenderID    int        `db:"sender_id" json:"sender_id"`
	Type        string     `db:"type" json:"type"`
	Content     string     `db:"content" json:"content,omitempty"`
	MediaID     *string    `db:"media_id" json:"media_id,omitempty"`
	MediaURL    *string    `db:"media_url" json:"media_url,omitempty"`
	MediaSize   *int64     `db:"media_size" json:"media_size,omitempty"`
	MediaWidth  *int       `db:"media_width" json:"media_width,omitempty"`
	MediaHeight *int       `db:"media_height" json:"media_height,omitempty"`
	MediaFormat *string    `db:"media_format" json:"media_format,omitempty"`
	ReplyTo     *int       `db:"reply_to" json:"reply_to,omitempty"`
	EditedAt    *time.Time `db:"edited_at" json:"edited_at,omitempty"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// HasMedia reports whether the message carries an external blob.
func (m Message) HasMedia() bool {
	return m.MediaID != nil && *m.MediaID != ""
}

// MediaInput describes an externally stored blob attached to a message.
type MediaInput struct {
	ID     string `json:"id" binding:"required"`
	URL    string `json:"url"`
	Size   int64  `json:"size"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// MessageInput is the client-supplied part of a message, shared by the
// REST and websocket entry points.
type MessageInput struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	ReplyTo *int        `json:"reply_to"`
	Media   *MediaInput `json:"media"`
}
