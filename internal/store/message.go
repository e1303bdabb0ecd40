package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/shebashongskar/apiserver/types"
)

// MessageRepository handles persistence for chat messages and read receipts.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message types.Message) (types.Message, error) {
	now := time.Now()
	message.CreatedAt = now
	message.UpdatedAt = now

	attachmentsJSON, err := json.Marshal(message.Attachments)
	if err != nil {
		return types.Message{}, err
	}

	const query = `
		INSERT INTO messages (text, sender_id, sender_name, sender_type, is_read, attachments, reply_to_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		message.Text,
		message.SenderID,
		message.SenderName,
		message.SenderType,
		message.IsRead,
		attachmentsJSON,
		message.ReplyToID,
		message.CreatedAt,
		message.UpdatedAt,
	).Scan(&message.ID); err != nil {
		return types.Message{}, err
	}
	return message, nil
}

// List returns every message oldest-first, joined with the sender's
// current name/role and the reply-target summary when it still exists.
func (r *MessageRepository) List(ctx context.Context) ([]types.Message, error) {
	const query = `
		SELECT m.id, m.text, m.sender_id, m.sender_name, m.sender_type, m.is_read,
			m.attachments, m.reply_to_id, m.created_at, m.updated_at,
			u.first_name, u.last_name, u.role,
			p.id, p.text, p.sender_name
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		LEFT JOIN messages p ON p.id = m.reply_to_id
		ORDER BY m.created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]types.Message, 0)
	for rows.Next() {
		var message types.Message
		var attachmentsJSON []byte
		var replyToID sql.NullInt64
		sender := &types.MessageSender{}
		var refID sql.NullInt64
		var refText, refSenderName sql.NullString

		if err := rows.Scan(
			&message.ID,
			&message.Text,
			&message.SenderID,
			&message.SenderName,
			&message.SenderType,
			&message.IsRead,
			&attachmentsJSON,
			&replyToID,
			&message.CreatedAt,
			&message.UpdatedAt,
			&sender.FirstName,
			&sender.LastName,
			&sender.Role,
			&refID,
			&refText,
			&refSenderName,
		); err != nil {
			return nil, err
		}

		_ = json.Unmarshal(attachmentsJSON, &message.Attachments)
		sender.ID = message.SenderID
		message.Sender = sender
		if replyToID.Valid {
			id := int(replyToID.Int64)
			message.ReplyToID = &id
		}
		if refID.Valid {
			message.ReplyTo = &types.MessageRef{
				ID:         int(refID.Int64),
				Text:       refText.String,
				SenderName: refSenderName.String,
			}
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// Get returns a single message with its read receipts.
func (r *MessageRepository) Get(ctx context.Context, id int) (types.Message, error) {
	const query = `
		SELECT id, text, sender_id, sender_name, sender_type, is_read, attachments, reply_to_id, created_at, updated_at
		FROM messages
		WHERE id = $1`
	var message types.Message
	var attachmentsJSON []byte
	var replyToID sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&message.ID,
		&message.Text,
		&message.SenderID,
		&message.SenderName,
		&message.SenderType,
		&message.IsRead,
		&attachmentsJSON,
		&replyToID,
		&message.CreatedAt,
		&message.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Message{}, ErrNotFound
		}
		return types.Message{}, err
	}

	_ = json.Unmarshal(attachmentsJSON, &message.Attachments)
	if replyToID.Valid {
		rid := int(replyToID.Int64)
		message.ReplyToID = &rid
	}

	receipts, err := r.listReceipts(ctx, id)
	if err != nil {
		return types.Message{}, err
	}
	message.ReadBy = receipts
	return message, nil
}

// AddReadReceipt appends a read receipt and flips the global read flag.
// The receipt insert is a no-op if the reader already has one.
func (r *MessageRepository) AddReadReceipt(ctx context.Context, messageID, userID int, at time.Time) error {
	const insertQuery = `
		INSERT INTO message_reads (message_id, user_id, read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id, user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insertQuery, messageID, userID, at); err != nil {
		return err
	}

	const updateQuery = `
		UPDATE messages
		SET is_read = TRUE,
			updated_at = $1
		WHERE id = $2`
	_, err := r.db.ExecContext(ctx, updateQuery, at, messageID)
	return err
}

func (r *MessageRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM messages WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnreadFromCitizens counts citizen-sent messages nobody has read yet.
func (r *MessageRepository) CountUnreadFromCitizens(ctx context.Context) (int, error) {
	const query = `
		SELECT COUNT(1)
		FROM messages
		WHERE sender_type = $1 AND is_read = FALSE`
	var count int
	if err := r.db.QueryRowContext(ctx, query, types.RoleCitizen).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageRepository) listReceipts(ctx context.Context, messageID int) ([]types.ReadReceipt, error) {
	const query = `
		SELECT user_id, read_at
		FROM message_reads
		WHERE message_id = $1
		ORDER BY read_at`
	rows, err := r.db.QueryContext(ctx, query, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := make([]types.ReadReceipt, 0)
	for rows.Next() {
		var receipt types.ReadReceipt
		if err := rows.Scan(&receipt.UserID, &receipt.ReadAt); err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	return receipts, rows.Err()
}
