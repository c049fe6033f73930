package chat

import (
	"context"

	"ephemeral-chat-service/internal/models"
	"ephemeral-chat-service/internal/repositories"
)

// PostMessage validates access and liveness at publish time, persists
// the message, then broadcasts the persisted form to the room including
// the sender. A persistence failure aborts the broadcast entirely.
func (s *Service) PostMessage(ctx context.Context, groupID int, senderID int, in models.MessageInput) (models.Message, error) {
	if _, _, err := s.requireAccess(ctx, groupID, senderID); err != nil {
		return models.Message{}, err
	}

	msg, err := s.buildMessage(ctx, groupID, senderID, in)
	if err != nil {
		return models.Message{}, err
	}

	mu := s.publishLock(groupID)
	mu.Lock()
	defer mu.Unlock()

	created, err := s.messages.CreateMessage(ctx, msg)
	if err != nil {
		return models.Message{}, err
	}
	s.rooms.BroadcastMessage(groupID, created)
	return created, nil
}

func (s *Service) buildMessage(ctx context.Context, groupID int, senderID int, in models.MessageInput) (models.Message, error) {
	typ := in.Type
	if typ == "" {
		typ = models.MessageTypeText
	}
	switch typ {
	case models.MessageTypeText, models.MessageTypeImage, models.MessageTypeVideo, models.MessageTypeFile:
	default:
		return models.Message{}, ErrInvalidMessage
	}
	if in.Content == "" && in.Media == nil {
		return models.Message{}, ErrInvalidMessage
	}
	if typ != models.MessageTypeText && in.Media == nil {
		return models.Message{}, ErrInvalidMessage
	}

	msg := models.Message{
		GroupID:  groupID,
		SenderID: senderID,
		Type:     typ,
		Content:  in.Content,
		ReplyTo:  in.ReplyTo,
	}
	if in.Media != nil {
		msg.MediaID = &in.Media.ID
		if in.Media.URL != "" {
			msg.MediaURL = &in.Media.URL
		}
		if in.Media.Size > 0 {
			msg.MediaSize = &in.Media.Size
		}
		if in.Media.Width > 0 {
			msg.MediaWidth = &in.Media.Width
		}
		if in.Media.Height > 0 {
			msg.MediaHeight = &in.Media.Height
		}
		if in.Media.Format != "" {
			msg.MediaFormat = &in.Media.Format
		}
	}

	if in.ReplyTo != nil {
		parent, err := s.messages.GetMessage(ctx, *in.ReplyTo)
		if err != nil {
			return models.Message{}, ErrInvalidReply
		}
		if parent.GroupID != groupID || parent.DeletedAt != nil {
			return models.Message{}, ErrInvalidReply
		}
	}
	return msg, nil
}

// ListMessages returns the group's non-deleted messages in store order.
func (s *Service) ListMessages(ctx context.Context, groupID int, userID int) ([]models.Message, error) {
	if _, _, err := s.requireAccess(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.messages.ListMessages(ctx, groupID)
}

// SearchMessages runs a full-text search within the group.
func (s *Service) SearchMessages(ctx context.Context, groupID int, userID int, query string) ([]models.Message, error) {
	if _, _, err := s.requireAccess(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.messages.SearchMessages(ctx, groupID, query)
}

// EditMessage lets the sender change their own message's content.
func (s *Service) EditMessage(ctx context.Context, groupID int, userID int, messageID int, content string) (models.Message, error) {
	if _, _, err := s.requireAccess(ctx, groupID, userID); err != nil {
		return models.Message{}, err
	}

	msg, err := s.getGroupMessage(ctx, groupID, messageID)
	if err != nil {
		return models.Message{}, err
	}
	if msg.SenderID != userID {
		return models.Message{}, ErrUnauthorized
	}
	if content == "" && !msg.HasMedia() {
		return models.Message{}, ErrInvalidMessage
	}

	updated, err := s.messages.MarkEdited(ctx, messageID, userID, content)
	if err != nil {
		return models.Message{}, err
	}
	s.rooms.BroadcastMessageEdited(groupID, updated)
	return updated, nil
}

// DeleteMessage soft-deletes a message. The sender may delete their
// own; moderators may delete any. The sweep hard-deletes it later.
func (s *Service) DeleteMessage(ctx context.Context, groupID int, userID int, messageID int) error {
	_, role, err := s.requireAccess(ctx, groupID, userID)
	if err != nil {
		return err
	}

	msg, err := s.getGroupMessage(ctx, groupID, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID && !models.CanModerate(role) {
		return ErrUnauthorized
	}

	if err := s.messages.SoftDelete(ctx, messageID); err != nil {
		return err
	}
	s.rooms.BroadcastMessageDeleted(groupID, messageID)
	return nil
}

// getGroupMessage loads a message and verifies it belongs to the group
// and is not already soft-deleted.
func (s *Service) getGroupMessage(ctx context.Context, groupID int, messageID int) (models.Message, error) {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return models.Message{}, err
	}
	if msg.GroupID != groupID || msg.DeletedAt != nil {
		return models.Message{}, repositories.ErrMessageNotFound
	}
	return msg, nil
}
