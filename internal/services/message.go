package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shebashongskar/apiserver/internal/store"
	"github.com/shebashongskar/apiserver/types"
)

// MessageRepository defines persistence operations for chat messages.
type MessageRepository interface {
	Create(ctx context.Context, message types.Message) (types.Message, error)
	List(ctx context.Context) ([]types.Message, error)
	Get(ctx context.Context, id int) (types.Message, error)
	AddReadReceipt(ctx context.Context, messageID, userID int, at time.Time) error
	Delete(ctx context.Context, id int) error
	CountUnreadFromCitizens(ctx context.Context) (int, error)
}

// SendMessageInput carries the sender-supplied fields of a new message.
type SendMessageInput struct {
	Text        string
	Attachments []string
	ReplyTo     *int
}

// MessageService encapsulates the citizen-admin chat.
type MessageService struct {
	repo  MessageRepository
	users UserDirectory
}

func NewMessageService(repo MessageRepository, users UserDirectory) *MessageService {
	return &MessageService{repo: repo, users: users}
}

// Send persists a new message. The sender's display name and role are
// resolved now and snapshotted onto the message, so a later role change
// never rewrites history.
func (s *MessageService) Send(ctx context.Context, senderID int, input SendMessageInput) (types.Message, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return types.Message{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > types.MaxMessageLength {
		return types.Message{}, ErrMessageTooLong
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return types.Message{}, err
	}

	senderType := sender.Role
	if senderType == "" {
		senderType = types.RoleCitizen
	}

	message, err := s.repo.Create(ctx, types.Message{
		Text:        text,
		SenderID:    senderID,
		SenderName:  sender.FirstName + " " + sender.LastName,
		SenderType:  senderType,
		Attachments: input.Attachments,
		ReplyToID:   input.ReplyTo,
	})
	if err != nil {
		return types.Message{}, err
	}

	message.Sender = &types.MessageSender{
		ID:        sender.ID,
		FirstName: sender.FirstName,
		LastName:  sender.LastName,
		Role:      sender.Role,
	}
	if input.ReplyTo != nil {
		if target, err := s.repo.Get(ctx, *input.ReplyTo); err == nil {
			message.ReplyTo = &types.MessageRef{
				ID:         target.ID,
				Text:       target.Text,
				SenderName: target.SenderName,
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return types.Message{}, err
		}
	}
	return message, nil
}

// List returns the full message history, oldest first.
func (s *MessageService) List(ctx context.Context) ([]types.Message, error) {
	return s.repo.List(ctx)
}

// MarkRead records a read receipt for the reader. Idempotent: a second
// call by the same reader is a no-op, so the readBy list keeps at most
// one entry per reader. The first read by anyone flips the global flag.
func (s *MessageService) MarkRead(ctx context.Context, readerID, messageID int) error {
	message, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return err
	}

	for _, receipt := range message.ReadBy {
		if receipt.UserID == readerID {
			return nil
		}
	}

	return s.repo.AddReadReceipt(ctx, messageID, readerID, time.Now())
}

// Delete removes a message. Only the sender or an admin may delete.
func (s *MessageService) Delete(ctx context.Context, caller types.User, id int) error {
	message, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if message.SenderID != caller.ID && caller.Role != types.RoleAdmin {
		return ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

// UnreadCount returns the global count of unread citizen-sent messages.
func (s *MessageService) UnreadCount(ctx context.Context) (int, error) {
	return s.repo.CountUnreadFromCitizens(ctx)
}

// Conversations groups the flat message history by sender into the
// admin-facing conversation index: last message, per-sender unread count
// of citizen messages, sorted by most recent activity.
func (s *MessageService) Conversations(ctx context.Context) ([]types.Conversation, error) {
	messages, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	byUser := make(map[int]*types.Conversation)
	order := make([]int, 0)
	for _, message := range messages {
		conv, ok := byUser[message.SenderID]
		if !ok {
			conv = &types.Conversation{UserID: message.SenderID}
			byUser[message.SenderID] = conv
			order = append(order, message.SenderID)
		}

		// messages arrive oldest-first, so the last seen wins
		conv.LastMessage = message.Text
		conv.LastMessageTime = message.CreatedAt
		conv.UserName = message.SenderName
		if message.Sender != nil {
			conv.UserName = message.Sender.FirstName + " " + message.Sender.LastName
			conv.UserRole = message.Sender.Role
		}
		if message.SenderType == types.RoleCitizen && !message.IsRead {
			conv.UnreadCount++
		}
	}

	conversations := make([]types.Conversation, 0, len(order))
	for _, id := range order {
		conversations = append(conversations, *byUser[id])
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastMessageTime.After(conversations[j].LastMessageTime)
	})
	return conversations, nil
}
