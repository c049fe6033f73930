package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"ephemeral-chat-service/internal/auth"
	"ephemeral-chat-service/internal/chat"
	"ephemeral-chat-service/internal/media"
	"ephemeral-chat-service/internal/models"
	"ephemeral-chat-service/internal/presence"
	"ephemeral-chat-service/internal/repositories"
)

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, group models.Group) (models.Group, error) {
	args := m.Called(ctx, group)
	var out models.Group
	if val := args.Get(0); val != nil {
		out = val.(models.Group)
	}
	return out, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var out models.Group
	if val := args.Get(0); val != nil {
		out = val.(models.Group)
	}
	return out, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroupByInviteCode(ctx context.Context, code string) (models.Group, error) {
	args := m.Called(ctx, code)
	var out models.Group
	if val := args.Get(0); val != nil {
		out = val.(models.Group)
	}
	return out, args.Error(1)
}

func (m *GroupRepositoryMock) ListGroupsForUser(ctx context.Context, userID int) ([]models.Group, error) {
	args := m.Called(ctx, userID)
	var out []models.Group
	if val := args.Get(0); val != nil {
		out = val.([]models.Group)
	}
	return out, args.Error(1)
}

func (m *GroupRepositoryMock) ListPublicGroups(ctx context.Context) ([]models.Group, error) {
	args := m.Called(ctx)
	var out []models.Group
	if val := args.Get(0); val != nil {
		out = val.([]models.Group)
	}
	return out, args.Error(1)
}

func (m *GroupRepositoryMock) UpdateInviteCode(ctx context.Context, groupID int, code string) error {
	args := m.Called(ctx, groupID, code)
	return args.Error(0)
}

func (m *GroupRepositoryMock) ListExpiredGroups(ctx context.Context, now time.Time, staleBefore time.Time) ([]models.Group, error) {
	args := m.Called(ctx, now, staleBefore)
	var out []models.Group
	if val := args.Get(0); val != nil {
		out = val.([]models.Group)
	}
	return out, args.Error(1)
}

func (m *GroupRepositoryMock) ClaimForPurge(ctx context.Context, groupID int, now time.Time, staleBefore time.Time) (bool, error) {
	args := m.Called(ctx, groupID, now, staleBefore)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) PurgeGroup(ctx context.Context, groupID int) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

type MembershipRepositoryMock struct {
	mock.Mock
}

func (m *MembershipRepositoryMock) GetMembership(ctx context.Context, groupID int, userID int) (models.Membership, error) {
	args := m.Called(ctx, groupID, userID)
	var out models.Membership
	if val := args.Get(0); val != nil {
		out = val.(models.Membership)
	}
	return out, args.Error(1)
}

func (m *MembershipRepositoryMock) AddMember(ctx context.Context, groupID int, userID int, role string) (models.Membership, error) {
	args := m.Called(ctx, groupID, userID, role)
	var out models.Membership
	if val := args.Get(0); val != nil {
		out = val.(models.Membership)
	}
	return out, args.Error(1)
}

func (m *MembershipRepositoryMock) RemoveMember(ctx context.Context, groupID int, userID int) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *MembershipRepositoryMock) UpdateRole(ctx context.Context, groupID int, userID int, role string) error {
	args := m.Called(ctx, groupID, userID, role)
	return args.Error(0)
}

func (m *MembershipRepositoryMock) BanMember(ctx context.Context, groupID int, userID int, actorID int, reason string) error {
	args := m.Called(ctx, groupID, userID, actorID, reason)
	return args.Error(0)
}

func (m *MembershipRepositoryMock) ListMembers(ctx context.Context, groupID int) ([]models.Membership, error) {
	args := m.Called(ctx, groupID)
	var out []models.Membership
	if val := args.Get(0); val != nil {
		out = val.([]models.Membership)
	}
	return out, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, groupID int) ([]models.Message, error) {
	args := m.Called(ctx, groupID)
	var out []models.Message
	if val := args.Get(0); val != nil {
		out = val.([]models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) SearchMessages(ctx context.Context, groupID int, query string) ([]models.Message, error) {
	args := m.Called(ctx, groupID, query)
	var out []models.Message
	if val := args.Get(0); val != nil {
		out = val.([]models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) MarkEdited(ctx context.Context, messageID int, senderID int, content string) (models.Message, error) {
	args := m.Called(ctx, messageID, senderID, content)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ListMediaIDs(ctx context.Context, groupID int) ([]string, error) {
	args := m.Called(ctx, groupID)
	var out []string
	if val := args.Get(0); val != nil {
		out = val.([]string)
	}
	return out, args.Error(1)
}

type ReactionRepositoryMock struct {
	mock.Mock
}

func (m *ReactionRepositoryMock) AddReaction(ctx context.Context, messageID int, userID int, emoji string) (models.Reaction, error) {
	args := m.Called(ctx, messageID, userID, emoji)
	var out models.Reaction
	if val := args.Get(0); val != nil {
		out = val.(models.Reaction)
	}
	return out, args.Error(1)
}

func (m *ReactionRepositoryMock) RemoveReaction(ctx context.Context, messageID int, userID int, emoji string) error {
	args := m.Called(ctx, messageID, userID, emoji)
	return args.Error(0)
}

func (m *ReactionRepositoryMock) ListReactions(ctx context.Context, messageID int) ([]models.Reaction, error) {
	args := m.Called(ctx, messageID)
	var out []models.Reaction
	if val := args.Get(0); val != nil {
		out = val.([]models.Reaction)
	}
	return out, args.Error(1)
}

type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) BroadcastMessage(groupID int, msg models.Message) {
	m.Called(groupID, msg)
}

func (m *BroadcasterMock) BroadcastMessageEdited(groupID int, msg models.Message) {
	m.Called(groupID, msg)
}

func (m *BroadcasterMock) BroadcastMessageDeleted(groupID int, messageID int) {
	m.Called(groupID, messageID)
}

func (m *BroadcasterMock) BroadcastReaction(groupID int, reaction models.Reaction, added bool) {
	m.Called(groupID, reaction, added)
}

func (m *BroadcasterMock) BroadcastTyping(groupID int, userID int, typing bool) {
	m.Called(groupID, userID, typing)
}

func (m *BroadcasterMock) EvictUser(groupID int, userID int, reason string) {
	m.Called(groupID, userID, reason)
}

func (m *BroadcasterMock) EvictRoom(groupID int, event string, reason string) {
	m.Called(groupID, event, reason)
}

type PurgerMock struct {
	mock.Mock
}

func (m *PurgerMock) PurgeGroup(ctx context.Context, group models.Group, event string) error {
	args := m.Called(ctx, group, event)
	return args.Error(0)
}

type MediaClientMock struct {
	mock.Mock
}

func (m *MediaClientMock) DeleteByID(ctx context.Context, blobID string) error {
	args := m.Called(ctx, blobID)
	return args.Error(0)
}

type CredentialServiceMock struct {
	mock.Mock
}

func (m *CredentialServiceMock) ValidateToken(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

type PresenceTrackerMock struct {
	mock.Mock
}

func (m *PresenceTrackerMock) SetOnline(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *PresenceTrackerMock) SetOffline(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *PresenceTrackerMock) OnlineUsers(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	var out []int
	if val := args.Get(0); val != nil {
		out = val.([]int)
	}
	return out, args.Error(1)
}

var (
	_ repositories.GroupRepository      = (*GroupRepositoryMock)(nil)
	_ repositories.MembershipRepository = (*MembershipRepositoryMock)(nil)
	_ repositories.MessageRepository    = (*MessageRepositoryMock)(nil)
	_ repositories.ReactionRepository   = (*ReactionRepositoryMock)(nil)
	_ chat.Broadcaster                  = (*BroadcasterMock)(nil)
	_ chat.Purger                       = (*PurgerMock)(nil)
	_ media.Client                      = (*MediaClientMock)(nil)
	_ auth.CredentialService            = (*CredentialServiceMock)(nil)
	_ presence.Tracker                  = (*PresenceTrackerMock)(nil)
)
