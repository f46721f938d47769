// Package chat implements the conversation registry and the per-chat message
// log on top of the mongo collections, including the realtime subscription
// entry points used by the websocket layer.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Sahilattar8786/khidmah-mvp/databases"
	"github.com/Sahilattar8786/khidmah-mvp/models"
	"github.com/Sahilattar8786/khidmah-mvp/realtime"
)

var (
	// ErrNoAalimAvailable is returned by Create when the directory has no
	// assignable advisor. Surfaced verbatim to the requester.
	ErrNoAalimAvailable = errors.New("no aalims available")

	// ErrChatDeletionFailed wraps either phase of the delete cascade.
	ErrChatDeletionFailed = errors.New("chat deletion failed")

	// ErrChatNotFound is returned when an operation requires an existing chat.
	ErrChatNotFound = errors.New("chat not found")
)

// Assigner picks the advisor for a new chat when the requester did not name one.
type Assigner interface {
	AssignNext(ctx context.Context) (string, error)
}

// CreateRequest carries the requester-side fields for a new chat.
type CreateRequest struct {
	UserID    string `json:"userId"`
	AalimID   string `json:"aalimId,omitempty"`
	UserName  string `json:"userName,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

// Registry creates, looks up and deletes chats and exposes the filtered,
// recency-ordered listings and their realtime variants.
type Registry struct {
	chats    databases.ChatDatabase
	messages databases.MessageDatabase
	assigner Assigner
	broker   *realtime.Broker
	primary  lister
	fallback lister
}

// NewRegistry wires the registry. ordered selects the indexed descending
// listing strategy; the filter-then-sort strategy is always kept as the
// fallback for a missing index.
func NewRegistry(chats databases.ChatDatabase, messages databases.MessageDatabase, assigner Assigner, broker *realtime.Broker, ordered bool) *Registry {
	r := &Registry{
		chats:    chats,
		messages: messages,
		assigner: assigner,
		broker:   broker,
		fallback: sortedLister{db: chats},
	}
	if ordered {
		r.primary = orderedLister{db: chats}
	} else {
		r.primary = r.fallback
	}
	return r
}

// Create persists a new chat between the requester and an advisor, assigning
// the first available advisor when req.AalimID is empty. Nothing is written
// when no advisor can be assigned.
func (r *Registry) Create(ctx context.Context, req CreateRequest) (string, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return "", fmt.Errorf("userId is required")
	}

	aalimID := strings.TrimSpace(req.AalimID)
	if aalimID == "" {
		assigned, err := r.assigner.AssignNext(ctx)
		if err != nil || assigned == "" {
			return "", ErrNoAalimAvailable
		}
		aalimID = assigned
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	chat := models.Chat{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		UserName:  strings.TrimSpace(req.UserName),
		UserEmail: strings.TrimSpace(req.UserEmail),
		AalimID:   aalimID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.chats.InsertOne(ctx, chat); err != nil {
		return "", err
	}

	zap.S().Infow("chat created",
		"chatId", chat.ID.Hex(),
		"userId", userID,
		"aalimId", aalimID,
	)
	r.broker.Publish(realtime.ChatsTopic(aalimID))
	return chat.ID.Hex(), nil
}

// GetByID is a point lookup. An unknown id returns (nil, nil) rather than an
// error.
func (r *Registry) GetByID(ctx context.Context, chatID string) (*models.Chat, error) {
	oid, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil, nil
	}
	chat, err := r.chats.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return chat, nil
}

// ListForRequester returns the requester's chats, most recent first.
func (r *Registry) ListForRequester(ctx context.Context, userID string) ([]models.Chat, error) {
	return r.list(ctx, bson.M{"userId": userID})
}

// ListForAalim returns the chats assigned to one advisor, most recent first.
func (r *Registry) ListForAalim(ctx context.Context, aalimID string) ([]models.Chat, error) {
	return r.list(ctx, bson.M{"aalimId": aalimID})
}

// list runs the primary strategy and retries with the in-memory sort when the
// server cannot order the result. Callers see the same ordering either way.
func (r *Registry) list(ctx context.Context, filter interface{}) ([]models.Chat, error) {
	chats, err := r.primary.list(ctx, filter)
	if err != nil {
		if !databases.IsIndexUnavailable(err) {
			return nil, err
		}
		zap.S().Debugw("ordered chat query unavailable, using in-memory sort", "filter", filter)
		chats, err = r.fallback.list(ctx, filter)
		if err != nil {
			return nil, err
		}
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	return chats, nil
}

// SubscribeForAalim delivers the advisor's full chat list on every change,
// starting with an immediate snapshot. The listing always uses the unordered
// filter plus the in-memory sort, which sidesteps the index dependency.
// onChange receives an empty list when a read fails.
func (r *Registry) SubscribeForAalim(aalimID string, onChange func([]models.Chat)) *realtime.Subscription {
	deliver := func() {
		chats, err := r.fallback.list(context.Background(), bson.M{"aalimId": aalimID})
		if err != nil {
			zap.S().Errorw("aalim chat subscription read failed", "aalimId", aalimID, "error", err)
			onChange([]models.Chat{})
			return
		}
		if chats == nil {
			chats = []models.Chat{}
		}
		onChange(chats)
	}
	sub := r.broker.Subscribe(realtime.ChatsTopic(aalimID), deliver)
	deliver()
	return sub
}

// Delete removes the chat and every message under it: messages first, then
// the chat document, so no message can outlive its parent at read time. The
// two phases are not atomic; either failure is wrapped in
// ErrChatDeletionFailed and the caller may retry, both phases being
// idempotent. Deleting an unknown chat is a no-op.
func (r *Registry) Delete(ctx context.Context, chatID string) error {
	oid, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return fmt.Errorf("%w: bad chat id %q", ErrChatDeletionFailed, chatID)
	}

	chat, err := r.GetByID(ctx, chatID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChatDeletionFailed, err)
	}

	deleted, err := r.messages.DeleteMany(ctx, bson.M{"chatId": oid})
	if err != nil {
		return fmt.Errorf("%w: deleting messages: %v", ErrChatDeletionFailed, err)
	}
	if _, err := r.chats.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("%w: deleting chat: %v", ErrChatDeletionFailed, err)
	}

	zap.S().Infow("chat deleted", "chatId", chatID, "messagesDeleted", deleted)
	if chat != nil {
		r.broker.Publish(realtime.ChatsTopic(chat.AalimID))
		r.broker.Publish(realtime.MessagesTopic(chatID))
	}
	return nil
}

// lister is one execution strategy for a filtered, descending-recency chat
// listing.
type lister interface {
	list(ctx context.Context, filter interface{}) ([]models.Chat, error)
}

// orderedLister asks the server to sort. It needs a composite index on the
// filter field plus updatedAt.
type orderedLister struct {
	db databases.ChatDatabase
}

func (l orderedLister) list(ctx context.Context, filter interface{}) ([]models.Chat, error) {
	opts := options.Find().SetSort(bson.M{"updatedAt": -1})
	return l.db.Find(ctx, filter, opts)
}

// sortedLister fetches unordered and sorts in memory. A missing updatedAt
// compares as epoch zero.
type sortedLister struct {
	db databases.ChatDatabase
}

func (l sortedLister) list(ctx context.Context, filter interface{}) ([]models.Chat, error) {
	chats, err := l.db.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	sortChatsByRecency(chats)
	return chats, nil
}
