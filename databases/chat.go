package databases

// go generate: mockery --name ChatDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sahilattar8786/khidmah-mvp/models"
)

const chatName = "chats"

// ChatDatabase contains the methods to use with the chat database
type ChatDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Chat, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Chat, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, chat models.Chat) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
}

type chatDatabase struct {
	db DatabaseHelper
}

// NewChatDatabase initializes a new instance of chat database with the provided db connection
func NewChatDatabase(db DatabaseHelper) ChatDatabase {
	return &chatDatabase{
		db: db,
	}
}

func (c *chatDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Chat, error) {
	chat := &models.Chat{}
	err := c.db.Collection(chatName).FindOne(ctx, filter, opts...).Decode(chat)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func (c *chatDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Chat, error) {
	var chats []models.Chat
	cur, err := c.db.Collection(chatName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &chats)
	if err != nil {
		return nil, err
	}
	return chats, nil
}

func (c *chatDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(chatName).CountDocuments(ctx, filter, opts...)
}

func (c *chatDatabase) InsertOne(ctx context.Context, chat models.Chat) (InsertOneResultHelper, error) {
	return c.db.Collection(chatName).InsertOne(ctx, chat)
}

func (c *chatDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(chatName).UpdateOne(ctx, filter, update, opts...)
}

func (c *chatDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return c.db.Collection(chatName).DeleteOne(ctx, filter, opts...)
}
