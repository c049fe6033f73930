package ws

import (
	"encoding/json"
	"testing"
	"time"

	"ephemeral-chat-service/internal/models"
)

func newTestSession(userID int, queueSize int) *Session {
	return NewSession(userID, nil, ConnInfo{UserID: userID}, queueSize)
}

func drainEvents(s *Session) []models.GroupEvent {
	var events []models.GroupEvent
	for {
		select {
		case payload := <-s.send:
			var e models.GroupEvent
			if err := json.Unmarshal(payload, &e); err == nil {
				events = append(events, e)
			}
		default:
			return events
		}
	}
}

func TestHubSubscribeAndUnsubscribe(t *testing.T) {
	hub := NewHub(nil, 8)
	s := newTestSession(1, 8)

	hub.Register(s)
	hub.Subscribe(42, s)
	if hub.RoomSize(42) != 1 {
		t.Fatalf("expected room with one session")
	}

	hub.Unsubscribe(42, s)
	if hub.RoomSize(42) != 0 {
		t.Fatalf("expected room to be dropped")
	}

	// removing again is a no-op
	hub.Unsubscribe(42, s)
}

func TestHubBroadcastReachesWholeRoom(t *testing.T) {
	hub := NewHub(nil, 8)
	a := newTestSession(1, 8)
	b := newTestSession(2, 8)
	hub.Register(a)
	hub.Register(b)
	hub.Subscribe(42, a)
	hub.Subscribe(42, b)
	drainEvents(a)
	drainEvents(b)

	hub.BroadcastMessage(42, models.Message{ID: 7, GroupID: 42, SenderID: 1, Content: "hi"})

	for _, s := range []*Session{a, b} {
		events := drainEvents(s)
		if len(events) != 1 || events[0].Type != models.EventMessage {
			t.Fatalf("expected one message event, got %+v", events)
		}
		if events[0].Message == nil || events[0].Message.ID != 7 {
			t.Fatalf("expected persisted message in event")
		}
	}
}

func TestHubTypingSkipsAllSenderSessions(t *testing.T) {
	hub := NewHub(nil, 8)
	phone := newTestSession(1, 8)
	laptop := newTestSession(1, 8)
	other := newTestSession(2, 8)
	for _, s := range []*Session{phone, laptop, other} {
		hub.Register(s)
		hub.Subscribe(42, s)
	}
	for _, s := range []*Session{phone, laptop, other} {
		drainEvents(s)
	}

	hub.BroadcastTyping(42, 1, true)

	if events := drainEvents(phone); len(events) != 0 {
		t.Fatalf("typing echoed to sender session: %+v", events)
	}
	if events := drainEvents(laptop); len(events) != 0 {
		t.Fatalf("typing echoed to sender's other session: %+v", events)
	}
	events := drainEvents(other)
	if len(events) != 1 || events[0].Type != models.EventTypingStart || events[0].UserID != 1 {
		t.Fatalf("expected typing-start for user 1, got %+v", events)
	}
}

func TestHubEvictUserRemovesEverySession(t *testing.T) {
	hub := NewHub(nil, 8)
	phone := newTestSession(4, 8)
	laptop := newTestSession(4, 8)
	other := newTestSession(2, 8)
	for _, s := range []*Session{phone, laptop, other} {
		hub.Register(s)
		hub.Subscribe(42, s)
	}
	for _, s := range []*Session{phone, laptop, other} {
		drainEvents(s)
	}

	hub.EvictUser(42, 4, "banned")

	if hub.UserInRoom(42, 4) {
		t.Fatalf("evicted user still in room")
	}

	// evicted sessions got the reason
	for _, s := range []*Session{phone, laptop} {
		events := drainEvents(s)
		if len(events) != 1 || events[0].Reason != "banned" {
			t.Fatalf("expected ban notice, got %+v", events)
		}
	}

	// eviction is synchronous: broadcasts after it never reach the user
	hub.BroadcastMessage(42, models.Message{ID: 8, GroupID: 42})
	if events := drainEvents(phone); len(events) != 0 {
		t.Fatalf("evicted session received broadcast: %+v", events)
	}
	events := drainEvents(other)
	if len(events) != 2 || events[0].Type != models.EventUserLeft {
		t.Fatalf("expected user-left then message, got %+v", events)
	}
}

func TestHubEvictRoomSendsTerminalNotice(t *testing.T) {
	hub := NewHub(nil, 8)
	s := newTestSession(1, 8)
	hub.Register(s)
	hub.Subscribe(42, s)
	drainEvents(s)

	hub.EvictRoom(42, models.EventGroupExpired, "expired")

	if hub.RoomSize(42) != 0 {
		t.Fatalf("expected room to be gone")
	}
	events := drainEvents(s)
	if len(events) != 1 || events[0].Type != models.EventGroupExpired || events[0].Reason != "expired" {
		t.Fatalf("expected terminal notice, got %+v", events)
	}
}

func TestHubDropsBackloggedSession(t *testing.T) {
	hub := NewHub(nil, 1)
	slow := newTestSession(1, 1)
	fast := newTestSession(2, 8)
	hub.Register(slow)
	hub.Register(fast)
	hub.Subscribe(42, slow)
	hub.Subscribe(42, fast)
	drainEvents(fast)

	// slow still has the user-joined event for fast queued; one more
	// broadcast overflows its queue of one
	hub.BroadcastMessage(42, models.Message{ID: 9, GroupID: 42})

	deadline := time.Now().Add(2 * time.Second)
	for hub.UserInRoom(42, 1) {
		if time.Now().After(deadline) {
			t.Fatalf("backlogged session was not dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// the healthy session keeps receiving; it may also see the
	// dropped session's user-left in between
	drainEvents(fast)
	hub.BroadcastMessage(42, models.Message{ID: 10, GroupID: 42})
	got := false
	for _, e := range drainEvents(fast) {
		if e.Message != nil && e.Message.ID == 10 {
			got = true
		}
	}
	if !got {
		t.Fatalf("expected healthy session to keep receiving")
	}
}

func TestHubSessionEnqueueAfterClose(t *testing.T) {
	s := newTestSession(1, 2)
	s.Close()
	if s.Enqueue([]byte("x")) {
		t.Fatalf("enqueue succeeded on closed session")
	}
	s.Close() // idempotent
}

func TestHubPresenceCountsSessions(t *testing.T) {
	hub := NewHub(nil, 8)
	phone := newTestSession(1, 8)
	laptop := newTestSession(1, 8)

	hub.Register(phone)
	hub.Register(laptop)
	hub.Unregister(phone)
	hub.Unregister(phone) // repeat is a no-op

	hub.mu.RLock()
	count := hub.userSessions[1]
	hub.mu.RUnlock()
	if count != 1 {
		t.Fatalf("expected one live session for user, got %d", count)
	}

	hub.Unregister(laptop)
	hub.mu.RLock()
	_, tracked := hub.userSessions[1]
	hub.mu.RUnlock()
	if tracked {
		t.Fatalf("expected user to be fully offline")
	}
}
