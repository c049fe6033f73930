package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"ephemeral-chat-service/internal/models"
	"ephemeral-chat-service/internal/repositories"
)

// Broadcaster is the fan-out engine as the service sees it. The hub in
// internal/ws implements it.
type Broadcaster interface {
	BroadcastMessage(groupID int, msg models.Message)
	BroadcastMessageEdited(groupID int, msg models.Message)
	BroadcastMessageDeleted(groupID int, messageID int)
	BroadcastReaction(groupID int, reaction models.Reaction, added bool)
	BroadcastTyping(groupID int, userID int, typing bool)
	EvictUser(groupID int, userID int, reason string)
	EvictRoom(groupID int, event string, reason string)
}

// Purger runs the cascading purge for a group. The sweeper implements it.
type Purger interface {
	PurgeGroup(ctx context.Context, group models.Group, event string) error
}

// Service is the core of the chat system: every operation, whether it
// arrives over REST or a websocket, goes through it for authorization
// and lifecycle checks.
type Service struct {
	groups    repositories.GroupRepository
	members   repositories.MembershipRepository
	messages  repositories.MessageRepository
	reactions repositories.ReactionRepository
	rooms     Broadcaster
	purger    Purger

	now func() time.Time

	// One publish lock per group: message persist + broadcast enqueue
	// run under it, so room delivery order matches store order.
	pubLocks sync.Map
}

// NewService constructs the chat service.
func NewService(
	groups repositories.GroupRepository,
	members repositories.MembershipRepository,
	messages repositories.MessageRepository,
	reactions repositories.ReactionRepository,
	rooms Broadcaster,
	purger Purger,
) *Service {
	return &Service{
		groups:    groups,
		members:   members,
		messages:  messages,
		reactions: reactions,
		rooms:     rooms,
		purger:    purger,
		now:       time.Now,
	}
}

// ResolveRole returns the user's role in the group, or
// repositories.ErrMemberNotFound.
func (s *Service) ResolveRole(ctx context.Context, groupID int, userID int) (string, error) {
	m, err := s.members.GetMembership(ctx, groupID, userID)
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

// requireAccess loads the group, applies the lazy expiry check and
// verifies the user holds a non-banned role. Every read/write path and
// both transports come through here.
func (s *Service) requireAccess(ctx context.Context, groupID int, userID int) (models.Group, string, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return models.Group{}, "", err
	}
	if group.Expired(s.now()) || group.State == models.GroupStatePurging {
		return group, "", ErrExpired
	}

	role, err := s.ResolveRole(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return group, "", ErrUnauthorized
		}
		return group, "", err
	}
	if role == models.RoleBanned {
		return group, "", ErrUnauthorized
	}
	return group, role, nil
}

// requireModeration is requireAccess plus an owner-or-admin check.
func (s *Service) requireModeration(ctx context.Context, groupID int, userID int) (models.Group, string, error) {
	group, role, err := s.requireAccess(ctx, groupID, userID)
	if err != nil {
		return group, role, err
	}
	if !models.CanModerate(role) {
		return group, role, ErrUnauthorized
	}
	return group, role, nil
}

// AuthorizeSubscribe gates room subscription with the same checks as
// every other operation.
func (s *Service) AuthorizeSubscribe(ctx context.Context, groupID int, userID int) error {
	_, _, err := s.requireAccess(ctx, groupID, userID)
	return err
}

// Typing broadcasts a transient typing event. Nothing is persisted;
// repeated starts are a state refresh, not an error.
func (s *Service) Typing(ctx context.Context, groupID int, userID int, typing bool) error {
	if _, _, err := s.requireAccess(ctx, groupID, userID); err != nil {
		return err
	}
	s.rooms.BroadcastTyping(groupID, userID, typing)
	return nil
}

func (s *Service) publishLock(groupID int) *sync.Mutex {
	v, _ := s.pubLocks.LoadOrStore(groupID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
