package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/shebashongskar/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sendMessage(t *testing.T, env *testEnv, token, text string) types.Message {
	t.Helper()

	rec := env.doJSON(t, http.MethodPost, "/chat/messages", token, SendMessageRequest{Text: text})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[types.Message](t, rec)
}

func TestSendMessageSnapshotsSender(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.addUser(t, "Rahim", "Uddin", "rahim@example.com", "1990123456789", types.RoleCitizen)

	message := sendMessage(t, env, token, "  My street has no water supply  ")

	assert.Equal(t, "My street has no water supply", message.Text)
	assert.Equal(t, user.ID, message.SenderID)
	assert.Equal(t, "Rahim Uddin", message.SenderName)
	assert.Equal(t, types.RoleCitizen, message.SenderType)
	assert.False(t, message.IsRead)
}

func TestSendMessageValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.addUser(t, "Rahim", "Uddin", "rahim@example.com", "1990123456789", types.RoleCitizen)

	rec := env.doJSON(t, http.MethodPost, "/chat/messages", token, SendMessageRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = env.doJSON(t, http.MethodPost, "/chat/messages", token, SendMessageRequest{
		Text: strings.Repeat("x", types.MaxMessageLength+1),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// exactly at the cap is fine
	rec = env.doJSON(t, http.MethodPost, "/chat/messages", token, SendMessageRequest{
		Text: strings.Repeat("x", types.MaxMessageLength),
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestSendMessageReply(t *testing.T) {
	env := newTestEnv(t)
	_, citizenToken := env.addUser(t, "Rahim", "Uddin", "rahim@example.com", "1990123456789", types.RoleCitizen)
	_, adminToken := env.addUser(t, "Admin", "User", "admin@example.com", "1980123456789", types.RoleAdmin)

	original := sendMessage(t, env, citizenToken, "The drain is overflowing")

	rec := env.doJSON(t, http.MethodPost, "/chat/messages", adminToken, SendMessageRequest{
		Text:    "A crew is on the way",
		ReplyTo: &original.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	reply := decodeBody[types.Message](t, rec)
	require.NotNil(t, reply.ReplyTo)
	assert.Equal(t, original.ID, reply.ReplyTo.ID)
	assert.Equal(t, "The drain is overflowing", reply.ReplyTo.Text)
	assert.Equal(t, "Rahim Uddin", reply.ReplyTo.SenderName)

	// replying to a message that no longer exists still sends
	missing := 999
	rec = env.doJSON(t, http.MethodPost, "/chat/messages", adminToken, SendMessageRequest{
		Text:    "Following up",
		ReplyTo: &missing,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Nil(t, decodeBody[types.Message](t, rec).ReplyTo)
}

func TestListMessagesOldestFirst(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.addUser(t, "Rahim", "Uddin", "rahim@example.com", "1990123456789", types.RoleCitizen)

	first := sendMessage(t, env, token, "first")
	second := sendMessage(t, env, token, "second")

	rec := env.do(t, http.MethodGet, "/chat/messages", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	messages := decodeBody[[]types.Message](t, rec)
	require.Len(t, messages, 2)
	assert.Equal(t, first.ID, messages[0].ID)
	assert.Equal(t, second.ID, messages[1].ID)
	require.NotNil(t, messages[0].Sender)
	assert.Equal(t, "Rahim", messages[0].Sender.FirstName)
}

func TestMarkReadIdempotent(t *testing.T) {
	env := newTestEnv(t)
	_, citizenToken := env.addUser(t, "Rahim", "Uddin", "rahim@example.com", "1990123456789", types.RoleCitizen)
	admin, adminToken := env.addUser(t, "Admin", "User", "admin@example.com", "1980123456789", types.RoleAdmin)

	message := sendMessage(t, env, citizenToken, "Is anyone looking at this?")

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPatch, "/chat/messages/"+itoa(message.ID)+"/read", adminToken, nil, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	receipts := env.messages.receipts[message.ID]
	require.Len(t, receipts, 1)
	assert.Equal(t, admin.ID, receipts[0].UserID)
	assert.True(t, env.messages.messages[message.ID].IsRead)
}

func TestMarkReadMissingMessage(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.addUser(t, "Rahim", "Uddin", "rahim@example.com", "1990123456789", types.RoleCitizen)

	rec := env.do(t, http.MethodPatch, "/chat/messages/999/read", token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPatch, "/chat/messages/abc/read", token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteMessageOwnership(t *testing.T) {
	env := newTestEnv(t)
	_, senderToken := env.addUser(t, "Rahim", "Uddin", "rahim@example.com", "1990123456789", types.RoleCitizen)
	_, otherToken := env.addUser(t, "Karim", "Mia", "karim@example.com", "1991123456789", types.RoleCitizen)
	_, adminToken := env.addUser(t, "Admin", "User", "admin@example.com", "1980123456789", types.RoleAdmin)

	message := sendMessage(t, env, senderToken, "please delete me later")

	rec := env.do(t, http.MethodDelete, "/chat/messages/"+itoa(message.ID), otherToken, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	assert.Contains(t, env.messages.messages, message.ID)

	rec = env.do(t, http.MethodDelete, "/chat/messages/"+itoa(message.ID), senderToken, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.NotContains(t, env.messages.messages, message.ID)

	other := sendMessage(t, env, otherToken, "moderate this one")
	rec = env.do(t, http.MethodDelete, "/chat/messages/"+itoa(other.ID), adminToken, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func TestUnreadCount(t *testing.T) {
	env := newTestEnv(t)
	_, citizenToken := env.addUser(t, "Rahim", "Uddin", "rahim@example.com", "1990123456789", types.RoleCitizen)
	_, adminToken := env.addUser(t, "Admin", "User", "admin@example.com", "1980123456789", types.RoleAdmin)

	first := sendMessage(t, env, citizenToken, "no water since morning")
	sendMessage(t, env, citizenToken, "still nothing")
	// admin messages never count
	sendMessage(t, env, adminToken, "we are on it")

	rec := env.do(t, http.MethodGet, "/chat/unread-count", adminToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decodeBody[UnreadCountResponse](t, rec).Count)

	rec = env.do(t, http.MethodPatch, "/chat/messages/"+itoa(first.ID)+"/read", adminToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/chat/unread-count", adminToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decodeBody[UnreadCountResponse](t, rec).Count)

	rec = env.do(t, http.MethodGet, "/chat/unread-count", citizenToken, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

func TestConversations(t *testing.T) {
	env := newTestEnv(t)
	rahim, rahimToken := env.addUser(t, "Rahim", "Uddin", "rahim@example.com", "1990123456789", types.RoleCitizen)
	karim, karimToken := env.addUser(t, "Karim", "Mia", "karim@example.com", "1991123456789", types.RoleCitizen)
	admin, adminToken := env.addUser(t, "Admin", "User", "admin@example.com", "1980123456789", types.RoleAdmin)

	sendMessage(t, env, rahimToken, "streetlight is out")
	sendMessage(t, env, rahimToken, "second week now")
	sendMessage(t, env, adminToken, "noted, thank you")
	sendMessage(t, env, karimToken, "garbage not collected")

	rec := env.do(t, http.MethodGet, "/chat/conversations", adminToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	conversations := decodeBody[[]types.Conversation](t, rec)
	require.Len(t, conversations, 3)

	// most recent activity first
	assert.Equal(t, karim.ID, conversations[0].UserID)
	assert.Equal(t, "Karim Mia", conversations[0].UserName)
	assert.Equal(t, "garbage not collected", conversations[0].LastMessage)
	assert.Equal(t, 1, conversations[0].UnreadCount)

	assert.Equal(t, admin.ID, conversations[1].UserID)
	assert.Equal(t, 0, conversations[1].UnreadCount)

	assert.Equal(t, rahim.ID, conversations[2].UserID)
	assert.Equal(t, "second week now", conversations[2].LastMessage)
	assert.Equal(t, 2, conversations[2].UnreadCount)

	rec = env.do(t, http.MethodGet, "/chat/conversations", rahimToken, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}
