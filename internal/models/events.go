package models

// Websocket event types emitted to group rooms.
const (
	EventMessage         = "message"
	EventMessageEdited   = "message-edited"
	EventMessageDeleted  = "message-deleted"
	EventReactionAdded   = "reaction-added"
	EventReactionRemoved = "reaction-removed"
	EventUserJoined      = "user-joined"
	EventUserLeft        = "user-left"
	EventTypingStart     = "typing-start"
	EventTypingStop      = "typing-stop"
	EventGroupExpired    = "group-expired"
	EventGroupDeleted    = "group-deleted"
	EventError           = "error"
)

// GroupEvent is emitted over websocket connections for group rooms.
type GroupEvent struct {
	Type      string    `json:"type"`
	GroupID   int       `json:"group_id,omitempty"`
	Message   *Message  `json:"message,omitempty"`
	MessageID int       `json:"message_id,omitempty"`
	Reaction  *Reaction `json:"reaction,omitempty"`
	UserID    int       `json:"user_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Code      string    `json:"code,omitempty"`
}
