package chat

import (
	"context"
	"errors"
	"time"

	"ephemeral-chat-service/internal/models"
	"ephemeral-chat-service/internal/repositories"
)

// CreateGroup creates a group with a bounded expiry and a fresh invite
// code, and makes the creator its owner.
func (s *Service) CreateGroup(ctx context.Context, creatorID int, name, description string, isPublic bool, expiry time.Duration) (models.Group, error) {
	if expiry < models.MinExpiryDuration || expiry > models.MaxExpiryDuration {
		return models.Group{}, ErrInvalidExpiry
	}

	group := models.Group{
		Name:        name,
		Description: description,
		IsPublic:    isPublic,
		CreatorID:   creatorID,
		ExpiresAt:   s.now().Add(expiry),
	}

	var err error
	for i := 0; i < inviteCodeRetries; i++ {
		group.InviteCode = NewInviteCode()
		var created models.Group
		created, err = s.groups.CreateGroup(ctx, group)
		if errors.Is(err, repositories.ErrInviteCodeTaken) {
			continue
		}
		return created, err
	}
	return models.Group{}, err
}

// GetGroup returns a group to a member, or to anyone if it is public.
func (s *Service) GetGroup(ctx context.Context, groupID int, userID int) (models.Group, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if group.Expired(s.now()) || group.State == models.GroupStatePurging {
		return models.Group{}, ErrExpired
	}

	if group.IsPublic {
		return group, nil
	}
	role, err := s.ResolveRole(ctx, groupID, userID)
	if err != nil || role == models.RoleBanned {
		return models.Group{}, ErrUnauthorized
	}
	return group, nil
}

// ListGroups returns the caller's groups.
func (s *Service) ListGroups(ctx context.Context, userID int) ([]models.Group, error) {
	return s.groups.ListGroupsForUser(ctx, userID)
}

// ListPublicGroups returns groups joinable without an invite code.
func (s *Service) ListPublicGroups(ctx context.Context) ([]models.Group, error) {
	return s.groups.ListPublicGroups(ctx)
}

// JoinByInviteCode resolves the code and adds the caller as a member.
// Banned users are refused; the code of an expired group no longer works.
func (s *Service) JoinByInviteCode(ctx context.Context, userID int, code string) (models.Group, models.Membership, error) {
	group, err := s.groups.GetGroupByInviteCode(ctx, NormalizeInviteCode(code))
	if err != nil {
		return models.Group{}, models.Membership{}, err
	}
	if group.Expired(s.now()) || group.State == models.GroupStatePurging {
		return models.Group{}, models.Membership{}, ErrExpired
	}

	if existing, err := s.members.GetMembership(ctx, group.ID, userID); err == nil {
		if existing.Role == models.RoleBanned {
			return models.Group{}, models.Membership{}, ErrUnauthorized
		}
		return models.Group{}, models.Membership{}, repositories.ErrAlreadyMember
	}

	membership, err := s.members.AddMember(ctx, group.ID, userID, models.RoleMember)
	if err != nil {
		return models.Group{}, models.Membership{}, err
	}
	return group, membership, nil
}

// RegenerateInviteCode replaces the group's invite code. The prior code
// stops resolving immediately.
func (s *Service) RegenerateInviteCode(ctx context.Context, groupID int, actorID int) (string, error) {
	if _, _, err := s.requireModeration(ctx, groupID, actorID); err != nil {
		return "", err
	}

	var err error
	for i := 0; i < inviteCodeRetries; i++ {
		code := NewInviteCode()
		err = s.groups.UpdateInviteCode(ctx, groupID, code)
		if errors.Is(err, repositories.ErrInviteCodeTaken) {
			continue
		}
		if err != nil {
			return "", err
		}
		return code, nil
	}
	return "", err
}

// DeleteGroup runs the full purge cascade synchronously for the owner.
// It deliberately skips the expiry check: an owner may delete early or
// after expiry but before the sweep gets there.
func (s *Service) DeleteGroup(ctx context.Context, groupID int, actorID int) error {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}

	role, err := s.ResolveRole(ctx, groupID, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	if role != models.RoleOwner {
		return ErrUnauthorized
	}

	// Claim the group so a delete racing the expiry sweep purges once.
	// A failed claim means a purge is already underway elsewhere.
	claimed, err := s.groups.ClaimForPurge(ctx, groupID, s.now(), time.Time{})
	if err != nil {
		return err
	}
	if !claimed {
		return ErrExpired
	}

	return s.purger.PurgeGroup(ctx, group, models.EventGroupDeleted)
}
