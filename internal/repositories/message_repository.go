package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"ephemeral-chat-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for group messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	ListMessages(ctx context.Context, groupID int) ([]models.Message, error)
	SearchMessages(ctx context.Context, groupID int, query string) ([]models.Message, error)
	MarkEdited(ctx context.Context, messageID int, senderID int, content string) (models.Message, error)
	SoftDelete(ctx context.Context, messageID int) error
	ListMediaIDs(ctx context.Context, groupID int) ([]string, error)
}

// MessageRepo is a sqlx-backed implementation.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, group_id, sender_id, type, content, media_id, media_url, media_size, media_width, media_height, media_format, reply_to, edited_at, deleted_at, created_at`

// CreateMessage persists a group message; the store assigns id and timestamp.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	var created models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (group_id, sender_id, type, content, media_id, media_url, media_size, media_width, media_height, media_format, reply_to)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
         RETURNING `+messageColumns,
		msg.GroupID, msg.SenderID, msg.Type, msg.Content,
		msg.MediaID, msg.MediaURL, msg.MediaSize, msg.MediaWidth, msg.MediaHeight, msg.MediaFormat,
		msg.ReplyTo).
		StructScan(&created)
	return created, err
}

// GetMessage fetches a single message, soft-deleted ones included.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListMessages returns messages ordered by id, excluding soft-deleted ones.
func (r *MessageRepo) ListMessages(ctx context.Context, groupID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages WHERE group_id=$1 AND deleted_at IS NULL ORDER BY id ASC`, groupID)
	return msgs, err
}

// SearchMessages runs a full-text search over message content within a group.
func (r *MessageRepo) SearchMessages(ctx context.Context, groupID int, query string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE group_id=$1 AND deleted_at IS NULL
         AND to_tsvector('simple', content) @@ plainto_tsquery('simple', $2)
         ORDER BY id ASC`, groupID, query)
	return msgs, err
}

// MarkEdited updates the content of the sender's own non-deleted message.
func (r *MessageRepo) MarkEdited(ctx context.Context, messageID int, senderID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`UPDATE messages SET content=$1, edited_at=NOW()
         WHERE id=$2 AND sender_id=$3 AND deleted_at IS NULL
         RETURNING `+messageColumns, content, messageID, senderID).
		StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// SoftDelete marks a message deleted. The sweep hard-deletes it later.
func (r *MessageRepo) SoftDelete(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET deleted_at=NOW() WHERE id=$1 AND deleted_at IS NULL`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// ListMediaIDs returns the external blob ids referenced by the group's
// messages, soft-deleted messages included: their blobs must go too.
func (r *MessageRepo) ListMediaIDs(ctx context.Context, groupID int) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids,
		`SELECT media_id FROM messages WHERE group_id=$1 AND media_id IS NOT NULL`, groupID)
	return ids, err
}
