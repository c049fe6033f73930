package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"ephemeral-chat-service/internal/models"
	"ephemeral-chat-service/internal/observability"
	"ephemeral-chat-service/internal/presence"
)

// Hub maintains active websocket rooms. Each room carries its own lock
// so unrelated rooms never contend; the hub lock only guards the room
// and user-count maps themselves.
type Hub struct {
	mu           sync.RWMutex
	rooms        map[int]*room
	userSessions map[int]int

	presence  presence.Tracker
	queueSize int
}

type room struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

// NewHub creates an empty hub. tracker may be nil when presence is
// not wired.
func NewHub(tracker presence.Tracker, queueSize int) *Hub {
	return &Hub{
		rooms:        make(map[int]*room),
		userSessions: make(map[int]int),
		presence:     tracker,
		queueSize:    queueSize,
	}
}

// QueueSize returns the configured per-session outbound queue size.
func (h *Hub) QueueSize() int {
	return h.queueSize
}

// Register counts the session towards its user's presence. The user is
// marked online on their first live session only.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	h.userSessions[s.UserID]++
	first := h.userSessions[s.UserID] == 1
	h.mu.Unlock()

	observability.IncWSActive()
	if first && h.presence != nil {
		if err := h.presence.SetOnline(context.Background(), s.UserID); err != nil {
			log.Printf("presence online failed user_id=%d: %v", s.UserID, err)
		}
	}
}

// Unregister removes the session from every room it held, broadcasting
// user-left to each, and flips the user offline only when no other
// session of theirs remains. Safe to call more than once and
// concurrently with in-flight publishes from the same session.
func (h *Hub) Unregister(s *Session) {
	s.unregOnce.Do(func() {
		s.Close()
		for _, groupID := range s.roomsSnapshot() {
			h.Unsubscribe(groupID, s)
		}

		h.mu.Lock()
		h.userSessions[s.UserID]--
		last := h.userSessions[s.UserID] <= 0
		if last {
			delete(h.userSessions, s.UserID)
		}
		h.mu.Unlock()

		observability.DecWSActive()
		if last && h.presence != nil {
			if err := h.presence.SetOffline(context.Background(), s.UserID); err != nil {
				log.Printf("presence offline failed user_id=%d: %v", s.UserID, err)
			}
		}
	})
}

// Subscribe adds the session to the group room and notifies the other
// room members. Authorization happens in the caller; the hub only
// manages room state.
func (h *Hub) Subscribe(groupID int, s *Session) {
	h.mu.Lock()
	r, ok := h.rooms[groupID]
	if !ok {
		r = &room{sessions: make(map[*Session]struct{})}
		h.rooms[groupID] = r
	}
	h.mu.Unlock()

	r.mu.Lock()
	r.sessions[s] = struct{}{}
	r.mu.Unlock()
	s.trackRoom(groupID)

	h.broadcast(groupID, models.GroupEvent{Type: models.EventUserJoined, GroupID: groupID, UserID: s.UserID}, s)
	observability.IncWSEvent(models.EventUserJoined)
}

// Unsubscribe removes the session from the room. Idempotent: a session
// that is not subscribed is removed silently.
func (h *Hub) Unsubscribe(groupID int, s *Session) {
	h.mu.Lock()
	r, ok := h.rooms[groupID]
	h.mu.Unlock()
	if !ok {
		s.untrackRoom(groupID)
		return
	}

	r.mu.Lock()
	_, present := r.sessions[s]
	delete(r.sessions, s)
	empty := len(r.sessions) == 0
	r.mu.Unlock()
	s.untrackRoom(groupID)

	if empty {
		h.dropRoomIfEmpty(groupID, r)
	}
	if present {
		h.broadcast(groupID, models.GroupEvent{Type: models.EventUserLeft, GroupID: groupID, UserID: s.UserID}, nil)
		observability.IncWSEvent(models.EventUserLeft)
	}
}

// BroadcastMessage sends a persisted message to all room sessions,
// including the sender's.
func (h *Hub) BroadcastMessage(groupID int, msg models.Message) {
	h.broadcast(groupID, models.GroupEvent{Type: models.EventMessage, GroupID: groupID, Message: &msg}, nil)
	observability.IncWSEvent(models.EventMessage)
}

// BroadcastMessageEdited notifies the room of an edit.
func (h *Hub) BroadcastMessageEdited(groupID int, msg models.Message) {
	h.broadcast(groupID, models.GroupEvent{Type: models.EventMessageEdited, GroupID: groupID, Message: &msg}, nil)
	observability.IncWSEvent(models.EventMessageEdited)
}

// BroadcastMessageDeleted notifies the room of a soft delete.
func (h *Hub) BroadcastMessageDeleted(groupID int, messageID int) {
	h.broadcast(groupID, models.GroupEvent{Type: models.EventMessageDeleted, GroupID: groupID, MessageID: messageID}, nil)
	observability.IncWSEvent(models.EventMessageDeleted)
}

// BroadcastReaction sends a reaction delta, not the full reaction set.
func (h *Hub) BroadcastReaction(groupID int, reaction models.Reaction, added bool) {
	event := models.EventReactionAdded
	if !added {
		event = models.EventReactionRemoved
	}
	h.broadcast(groupID, models.GroupEvent{Type: event, GroupID: groupID, Reaction: &reaction}, nil)
	observability.IncWSEvent(event)
}

// BroadcastTyping sends a transient typing event to the room, skipping
// all sessions of the typing user.
func (h *Hub) BroadcastTyping(groupID int, userID int, typing bool) {
	event := models.EventTypingStart
	if !typing {
		event = models.EventTypingStop
	}
	h.broadcastExcludingUser(groupID, models.GroupEvent{Type: event, GroupID: groupID, UserID: userID}, userID)
	observability.IncWSEvent(event)
}

// EvictUser synchronously removes every session of the user from the
// room: after it returns, no later broadcast reaches them. The evicted
// sessions are told why; the room sees user-left.
func (h *Hub) EvictUser(groupID int, userID int, reason string) {
	h.mu.Lock()
	r, ok := h.rooms[groupID]
	h.mu.Unlock()
	if !ok {
		return
	}

	notice := mustMarshal(models.GroupEvent{Type: models.EventUserLeft, GroupID: groupID, UserID: userID, Reason: reason})

	r.mu.Lock()
	var evicted []*Session
	for s := range r.sessions {
		if s.UserID == userID {
			evicted = append(evicted, s)
			delete(r.sessions, s)
		}
	}
	empty := len(r.sessions) == 0
	r.mu.Unlock()

	for _, s := range evicted {
		s.untrackRoom(groupID)
		s.Enqueue(notice)
	}
	if empty {
		h.dropRoomIfEmpty(groupID, r)
	}
	if len(evicted) > 0 {
		h.broadcast(groupID, models.GroupEvent{Type: models.EventUserLeft, GroupID: groupID, UserID: userID, Reason: reason}, nil)
		observability.IncWSEvent(models.EventUserLeft)
	}
}

// EvictRoom broadcasts a terminal notice to any still-subscribed
// sessions, then removes the room entirely.
func (h *Hub) EvictRoom(groupID int, event string, reason string) {
	h.mu.Lock()
	r, ok := h.rooms[groupID]
	if ok {
		delete(h.rooms, groupID)
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	notice := mustMarshal(models.GroupEvent{Type: event, GroupID: groupID, Reason: reason})

	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[*Session]struct{})
	r.mu.Unlock()

	for _, s := range sessions {
		s.Enqueue(notice)
		s.untrackRoom(groupID)
	}
	observability.IncWSEvent(event)
}

// SendError reports a failure to the offending session only; errors
// are never broadcast.
func (h *Hub) SendError(s *Session, groupID int, code string, reason string) {
	s.Enqueue(mustMarshal(models.GroupEvent{Type: models.EventError, GroupID: groupID, Code: code, Reason: reason}))
	observability.IncWSEvent(models.EventError)
}

// RoomSize reports how many sessions are subscribed to the group room.
func (h *Hub) RoomSize(groupID int) int {
	h.mu.RLock()
	r, ok := h.rooms[groupID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// UserInRoom reports whether any session of the user is subscribed.
func (h *Hub) UserInRoom(groupID int, userID int) bool {
	h.mu.RLock()
	r, ok := h.rooms[groupID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for s := range r.sessions {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

func (h *Hub) broadcast(groupID int, event models.GroupEvent, exclude *Session) {
	h.mu.RLock()
	r, ok := h.rooms[groupID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	payload := mustMarshal(event)

	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		if s != exclude {
			sessions = append(sessions, s)
		}
	}
	r.mu.RUnlock()

	h.deliver(groupID, sessions, payload)
}

func (h *Hub) broadcastExcludingUser(groupID int, event models.GroupEvent, userID int) {
	h.mu.RLock()
	r, ok := h.rooms[groupID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	payload := mustMarshal(event)

	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		if s.UserID != userID {
			sessions = append(sessions, s)
		}
	}
	r.mu.RUnlock()

	h.deliver(groupID, sessions, payload)
}

// deliver enqueues without blocking; a session whose queue overflows is
// dropped rather than allowed to stall the rest of the room.
func (h *Hub) deliver(groupID int, sessions []*Session, payload []byte) {
	for _, s := range sessions {
		if !s.Enqueue(payload) {
			log.Printf("dropping backlogged session conn_id=%s user_id=%d group_id=%d", s.ID, s.UserID, groupID)
			observability.IncWSDroppedSession()
			go h.Unregister(s)
		}
	}
}

func (h *Hub) dropRoomIfEmpty(groupID int, r *room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r.mu.RLock()
	empty := len(r.sessions) == 0
	r.mu.RUnlock()
	if empty && h.rooms[groupID] == r {
		delete(h.rooms, groupID)
	}
}

func mustMarshal(event models.GroupEvent) []byte {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal event failed: %v", err)
		return nil
	}
	return payload
}
