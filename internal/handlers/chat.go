package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shebashongskar/apiserver/internal/services"
	"github.com/shebashongskar/apiserver/internal/store"
	"github.com/shebashongskar/apiserver/types"
)

// ChatHandler provides HTTP handlers for the citizen-admin chat.
type ChatHandler struct {
	messageService *services.MessageService
	userService    *services.UserService
}

// NewChatHandler constructs a handler with the provided services.
func NewChatHandler(messageService *services.MessageService, userService *services.UserService) *ChatHandler {
	return &ChatHandler{
		messageService: messageService,
		userService:    userService,
	}
}

// ChatRouter registers chat routes on the given router.
func ChatRouter(
	r chi.Router,
	messageService *services.MessageService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewChatHandler(messageService, userService)
	adminOnly := RequireAdmin(userService)

	r.With(authMiddleware).Get("/messages", handler.ListMessages)
	r.With(authMiddleware).Post("/messages", handler.SendMessage)
	r.With(authMiddleware).Patch("/messages/{messageID}/read", handler.MarkRead)
	r.With(authMiddleware).Delete("/messages/{messageID}", handler.DeleteMessage)
	r.With(authMiddleware, adminOnly).Get("/unread-count", handler.UnreadCount)
	r.With(authMiddleware, adminOnly).Get("/conversations", handler.Conversations)
}

// ListMessages returns the full history, oldest first.
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messageService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	message, err := h.messageService.Send(r.Context(), userID, services.SendMessageInput{
		Text:        req.Text,
		Attachments: req.Attachments,
		ReplyTo:     req.ReplyTo,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "message text is required")
		case errors.Is(err, services.ErrMessageTooLong):
			writeError(w, http.StatusBadRequest, "message text too long")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to send message")
		}
		return
	}

	writeJSON(w, http.StatusCreated, message)
}

// MarkRead records a read receipt for the caller. Safe to call repeatedly.
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseMessageID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "message not found")
		return
	}

	if err := h.messageService.MarkRead(r.Context(), userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "message not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to mark message as read")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Msg: "message marked as read"})
}

func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := parseMessageID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "message not found")
		return
	}

	caller, err := h.currentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.messageService.Delete(r.Context(), caller, id); err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "not authorized to delete this message")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "message not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete message")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UnreadCount returns the global count of unread citizen messages.
func (h *ChatHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.messageService.UnreadCount(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count unread messages")
		return
	}
	writeJSON(w, http.StatusOK, UnreadCountResponse{Count: count})
}

// Conversations returns the admin-facing per-sender rollup.
func (h *ChatHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.messageService.Conversations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

type SendMessageRequest struct {
	Text        string   `json:"text"`
	Attachments []string `json:"attachments"`
	ReplyTo     *int     `json:"replyTo"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

func (h *ChatHandler) currentUser(r *http.Request) (types.User, error) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		return types.User{}, err
	}
	return h.userService.GetByID(r.Context(), userID)
}

func parseMessageID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "messageID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid message id")
	}
	return id, nil
}
