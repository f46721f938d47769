package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Sahilattar8786/khidmah-mvp/databases"
	"github.com/Sahilattar8786/khidmah-mvp/models"
	"github.com/Sahilattar8786/khidmah-mvp/realtime"
)

var (
	// ErrEmptyMessage is returned before any store call when the text is
	// empty or whitespace-only.
	ErrEmptyMessage = errors.New("message text is empty")

	// ErrSendFailed wraps a failed message write. Surfaced to the sender as a
	// retryable error; retries are user-initiated only.
	ErrSendFailed = errors.New("send failed")
)

// Log is the append-only message log scoped to chats.
type Log struct {
	messages databases.MessageDatabase
	chats    databases.ChatDatabase
	broker   *realtime.Broker
}

// NewLog wires the message log.
func NewLog(messages databases.MessageDatabase, chats databases.ChatDatabase, broker *realtime.Broker) *Log {
	return &Log{messages: messages, chats: chats, broker: broker}
}

// Append persists one message and bumps the owning chat's recency timestamp.
// Empty or whitespace-only text is rejected locally, with no store round
// trip. The message insert and the recency bump are two writes, not one
// transaction: once the message is visible a failed bump is logged, not
// returned, because message visibility is the correctness-critical property.
func (l *Log) Append(ctx context.Context, chatID, senderID, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return "", fmt.Errorf("%w: senderId is required", ErrSendFailed)
	}
	oid, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return "", fmt.Errorf("%w: bad chat id %q", ErrSendFailed, chatID)
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	msg := models.Message{
		ID:        primitive.NewObjectID(),
		ChatID:    oid,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: now,
	}
	if _, err := l.messages.InsertOne(ctx, msg); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	if _, err := l.chats.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"updatedAt": now}}); err != nil {
		zap.S().Warnw("failed to bump chat recency after append", "chatId", chatID, "error", err)
	}

	l.broker.Publish(realtime.MessagesTopic(chatID))
	if chat, err := l.chats.FindOne(ctx, bson.M{"_id": oid}); err == nil {
		l.broker.Publish(realtime.ChatsTopic(chat.AalimID))
	}
	return msg.ID.Hex(), nil
}

// List returns every message of the chat, oldest first. The query is always
// unordered; ordering happens in memory, mirroring the subscription path.
func (l *Log) List(ctx context.Context, chatID string) ([]models.Message, error) {
	oid, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return []models.Message{}, nil
	}
	messages, err := l.messages.Find(ctx, bson.M{"chatId": oid})
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.Message{}
	}
	sortMessagesByCreation(messages)
	return messages, nil
}

// Subscribe delivers the chat's full message list, ascending by creation
// time, on every change, starting with an immediate snapshot. onChange
// receives an empty list when a read fails.
func (l *Log) Subscribe(chatID string, onChange func([]models.Message)) *realtime.Subscription {
	deliver := func() {
		messages, err := l.List(context.Background(), chatID)
		if err != nil {
			zap.S().Errorw("message subscription read failed", "chatId", chatID, "error", err)
			onChange([]models.Message{})
			return
		}
		onChange(messages)
	}
	sub := l.broker.Subscribe(realtime.MessagesTopic(chatID), deliver)
	deliver()
	return sub
}
