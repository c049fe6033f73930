package chat

import (
	"context"
	"sort"

	"ephemeral-chat-service/internal/models"
)

// AddReaction persists a reaction and broadcasts the delta to the room.
// The same (user, emoji) pair on a message conflicts; distinct emojis
// from the same user are fine.
func (s *Service) AddReaction(ctx context.Context, groupID int, userID int, messageID int, emoji string) (models.Reaction, error) {
	if _, _, err := s.requireAccess(ctx, groupID, userID); err != nil {
		return models.Reaction{}, err
	}
	if _, err := s.getGroupMessage(ctx, groupID, messageID); err != nil {
		return models.Reaction{}, err
	}

	reaction, err := s.reactions.AddReaction(ctx, messageID, userID, emoji)
	if err != nil {
		return models.Reaction{}, err
	}
	s.rooms.BroadcastReaction(groupID, reaction, true)
	return reaction, nil
}

// RemoveReaction deletes a reaction and broadcasts the delta.
func (s *Service) RemoveReaction(ctx context.Context, groupID int, userID int, messageID int, emoji string) error {
	if _, _, err := s.requireAccess(ctx, groupID, userID); err != nil {
		return err
	}
	if _, err := s.getGroupMessage(ctx, groupID, messageID); err != nil {
		return err
	}

	if err := s.reactions.RemoveReaction(ctx, messageID, userID, emoji); err != nil {
		return err
	}
	s.rooms.BroadcastReaction(groupID, models.Reaction{MessageID: messageID, UserID: userID, Emoji: emoji}, false)
	return nil
}

// ListReactions returns the message's reactions rolled up per emoji.
func (s *Service) ListReactions(ctx context.Context, groupID int, userID int, messageID int) ([]models.ReactionGroup, error) {
	if _, _, err := s.requireAccess(ctx, groupID, userID); err != nil {
		return nil, err
	}
	if _, err := s.getGroupMessage(ctx, groupID, messageID); err != nil {
		return nil, err
	}

	reactions, err := s.reactions.ListReactions(ctx, messageID)
	if err != nil {
		return nil, err
	}

	byEmoji := map[string]*models.ReactionGroup{}
	for _, r := range reactions {
		group, ok := byEmoji[r.Emoji]
		if !ok {
			group = &models.ReactionGroup{Emoji: r.Emoji}
			byEmoji[r.Emoji] = group
		}
		group.Count++
		group.Users = append(group.Users, r.UserID)
	}

	result := make([]models.ReactionGroup, 0, len(byEmoji))
	for _, group := range byEmoji {
		result = append(result, *group)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Emoji < result[j].Emoji })
	return result, nil
}
