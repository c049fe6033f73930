package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024

	defaultQueueSize = 64
)

// Session is one websocket connection of one user. A user may hold
// several concurrent sessions.
type Session struct {
	ID     string
	UserID int
	Info   ConnInfo

	conn *websocket.Conn
	send chan []byte

	closed    chan struct{}
	closeOnce sync.Once
	unregOnce sync.Once

	mu    sync.Mutex
	rooms map[int]struct{}
}

// NewSession wraps a connection with a bounded outbound queue.
func NewSession(userID int, conn *websocket.Conn, info ConnInfo, queueSize int) *Session {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if info.ConnID == "" {
		info.ConnID = uuid.NewString()
	}
	return &Session{
		ID:     info.ConnID,
		UserID: userID,
		Info:   info,
		conn:   conn,
		send:   make(chan []byte, queueSize),
		closed: make(chan struct{}),
		rooms:  make(map[int]struct{}),
	}
}

// Enqueue appends a payload to the outbound queue without blocking.
// Returns false when the queue is full or the session is closed; a
// slow session must never stall the broadcaster.
func (s *Session) Enqueue(payload []byte) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.send <- payload:
		return true
	case <-s.closed:
		return false
	default:
		return false
	}
}

// Close shuts the session down. Safe to call concurrently and more
// than once, including while a publish from this session is in flight.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

// WritePump drains the outbound queue to the connection and keeps the
// connection alive with pings.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case payload := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.closed:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (s *Session) trackRoom(groupID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[groupID] = struct{}{}
}

func (s *Session) untrackRoom(groupID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, groupID)
}

func (s *Session) roomsSnapshot() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids
}
