package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Sahilattar8786/khidmah-mvp/api"
	"github.com/Sahilattar8786/khidmah-mvp/chat"
	"github.com/Sahilattar8786/khidmah-mvp/config"
	"github.com/Sahilattar8786/khidmah-mvp/models"
)

// Chat exported for testing purposes
type Chat struct {
	Registry *chat.Registry
	Log      *chat.Log
}

// CreateChatHandler starts a conversation for the requester, auto-assigning
// an advisor when none is named. An empty advisor directory is a user-facing
// error, not a server fault.
func (c Chat) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	var req chat.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	chatID, err := c.Registry.Create(ctx, req)
	if err != nil {
		if errors.Is(err, chat.ErrNoAalimAvailable) {
			http.Error(w, `{"success": false, "message": "No available aalims at the moment. Please try again later."}`, http.StatusConflict)
			return
		}
		config.ErrorStatus("failed to create chat", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]string{"chatId": chatID})
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// ChatByIDHandler returns a chat by ID
func (c Chat) ChatByIDHandler(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.Registry.GetByID(ctx, chatID)
	if err != nil {
		config.ErrorStatus("failed to get chat by ID", http.StatusInternalServerError, w, err)
		return
	}
	if dbResp == nil {
		http.Error(w, `{"success": false, "message": "Chat not found"}`, http.StatusNotFound)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteChatHandler removes the chat and its messages. Retry-safe: deleting
// an already-deleted chat succeeds as a no-op.
func (c Chat) DeleteChatHandler(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := c.Registry.Delete(ctx, chatID); err != nil {
		config.ErrorStatus("failed to delete chat", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success": true}`))
}

// UserChatsHandler returns the requester's chats, most recent first
func (c Chat) UserChatsHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	chats, err := c.Registry.ListForRequester(ctx, userID)
	if err != nil {
		config.ErrorStatus("failed to get user chats", http.StatusInternalServerError, w, err)
		return
	}
	writeChats(w, chats)
}

// AalimChatsHandler returns the chats assigned to an advisor, most recent first
func (c Chat) AalimChatsHandler(w http.ResponseWriter, r *http.Request) {
	aalimID := mux.Vars(r)["aalimId"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	chats, err := c.Registry.ListForAalim(ctx, aalimID)
	if err != nil {
		config.ErrorStatus("failed to get aalim chats", http.StatusInternalServerError, w, err)
		return
	}
	writeChats(w, chats)
}

// MessagesHandler returns a chat's messages in the order they were sent
func (c Chat) MessagesHandler(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	messages, err := c.Log.List(ctx, chatID)
	if err != nil {
		config.ErrorStatus("failed to get chat messages", http.StatusInternalServerError, w, err)
		return
	}
	if len(messages) == 0 {
		messages = []models.Message{}
	}
	b, err := json.Marshal(messages)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SendMessageHandler appends a message to a chat. Blank messages are
// rejected before touching the store.
func (c Chat) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chatId"]

	type sendRequest struct {
		SenderID string `json:"senderId"`
		Text     string `json:"text"`
	}
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	messageID, err := c.Log.Append(ctx, chatID, req.SenderID, req.Text)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			config.ErrorStatus("message text must not be empty", http.StatusBadRequest, w, err)
			return
		}
		config.ErrorStatus("failed to send message", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]string{"messageId": messageID})
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

func writeChats(w http.ResponseWriter, chats []models.Chat) {
	if len(chats) == 0 {
		chats = []models.Chat{}
	}
	b, err := json.Marshal(chats)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
