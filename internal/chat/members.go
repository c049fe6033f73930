package chat

import (
	"context"

	"ephemeral-chat-service/internal/models"
	"ephemeral-chat-service/internal/repositories"
)

// ListMembers returns the group's membership rows to a member.
func (s *Service) ListMembers(ctx context.Context, groupID int, userID int) ([]models.Membership, error) {
	if _, _, err := s.requireAccess(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.members.ListMembers(ctx, groupID)
}

// Leave removes the caller's membership. The owner cannot leave, and a
// banned row is terminal and stays.
func (s *Service) Leave(ctx context.Context, groupID int, userID int) error {
	membership, err := s.members.GetMembership(ctx, groupID, userID)
	if err != nil {
		return err
	}
	switch membership.Role {
	case models.RoleOwner:
		return ErrOwnerCannotLeave
	case models.RoleBanned:
		return ErrUnauthorized
	}

	if err := s.members.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}
	s.rooms.EvictUser(groupID, userID, "left")
	return nil
}

// Ban moves a member or admin to the terminal banned role and evicts
// their live sessions before any further broadcast to the room.
func (s *Service) Ban(ctx context.Context, groupID int, actorID int, targetID int, reason string) error {
	if _, _, err := s.requireModeration(ctx, groupID, actorID); err != nil {
		return err
	}
	if actorID == targetID {
		return ErrCannotActOnOwner
	}

	target, err := s.members.GetMembership(ctx, groupID, targetID)
	if err != nil {
		return err
	}
	if target.Role == models.RoleOwner {
		return ErrCannotActOnOwner
	}

	if err := s.members.BanMember(ctx, groupID, targetID, actorID, reason); err != nil {
		return err
	}
	s.rooms.EvictUser(groupID, targetID, "banned")
	return nil
}

// Promote raises a member to admin. Owner only.
func (s *Service) Promote(ctx context.Context, groupID int, actorID int, targetID int) error {
	return s.changeRole(ctx, groupID, actorID, targetID, models.RoleMember, models.RoleAdmin)
}

// Demote lowers an admin back to member. Owner only.
func (s *Service) Demote(ctx context.Context, groupID int, actorID int, targetID int) error {
	return s.changeRole(ctx, groupID, actorID, targetID, models.RoleAdmin, models.RoleMember)
}

func (s *Service) changeRole(ctx context.Context, groupID int, actorID int, targetID int, from, to string) error {
	_, role, err := s.requireAccess(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if role != models.RoleOwner {
		return ErrUnauthorized
	}

	target, err := s.members.GetMembership(ctx, groupID, targetID)
	if err != nil {
		return err
	}
	if target.Role == models.RoleOwner {
		return ErrCannotActOnOwner
	}
	if target.Role != from {
		return repositories.ErrMemberNotFound
	}

	return s.members.UpdateRole(ctx, groupID, targetID, to)
}
