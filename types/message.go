package types

import "time"

// MaxMessageLength caps the text of a single chat message.
const MaxMessageLength = 1000

// Message represents a single entry in the citizen-admin chat.
type Message struct {
	// ID is the unique identifier of the message.
	ID int `json:"id" db:"id"`

	// Text is the message body, trimmed, at most MaxMessageLength runes.
	Text string `json:"text" db:"text"`

	// SenderID references the user who sent the message.
	SenderID int `json:"senderId" db:"sender_id"`

	// SenderName is the sender's display name captured at send time.
	// A later name change does not alter historic messages.
	SenderName string `json:"senderName" db:"sender_name"`

	// SenderType is the sender's role captured at send time,
	// either "citizen" or "admin".
	SenderType string `json:"senderType" db:"sender_type"`

	// IsRead flips true the first time any reader marks the message read.
	IsRead bool `json:"isRead" db:"is_read"`

	// ReadBy lists the individual read receipts, at most one per reader.
	ReadBy []ReadReceipt `json:"readBy" db:"-"`

	// Attachments holds optional attachment URLs.
	Attachments []string `json:"attachments" db:"attachments"`

	// ReplyToID optionally references the message being replied to.
	ReplyToID *int `json:"replyTo,omitempty" db:"reply_to_id"`

	// ReplyTo carries the joined reply-target summary for API responses,
	// nil when the target no longer exists.
	ReplyTo *MessageRef `json:"replyToMessage,omitempty" db:"-"`

	// Sender carries the joined current sender details for API responses.
	Sender *MessageSender `json:"sender,omitempty" db:"-"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ReadReceipt records that a user has read a message.
type ReadReceipt struct {
	UserID int       `json:"userId" db:"user_id"`
	ReadAt time.Time `json:"readAt" db:"read_at"`
}

// MessageRef is the reply-target projection joined onto message responses.
type MessageRef struct {
	ID         int    `json:"id"`
	Text       string `json:"text"`
	SenderName string `json:"senderName"`
}

// MessageSender is the current sender projection joined onto message
// responses, resolved at read time rather than send time.
type MessageSender struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// Conversation is the admin-facing per-sender rollup of the chat.
type Conversation struct {
	UserID          int       `json:"userId"`
	UserName        string    `json:"userName"`
	UserRole        string    `json:"userRole"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageTime time.Time `json:"lastMessageTime"`
	UnreadCount     int       `json:"unreadCount"`
}
