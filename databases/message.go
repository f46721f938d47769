package databases

// go generate: mockery --name MessageDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sahilattar8786/khidmah-mvp/models"
)

const messageName = "messages"

// MessageDatabase contains the methods to use with the message database
type MessageDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Message, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, message models.Message) (InsertOneResultHelper, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
}

type messageDatabase struct {
	db DatabaseHelper
}

// NewMessageDatabase initializes a new instance of message database with the provided db connection
func NewMessageDatabase(db DatabaseHelper) MessageDatabase {
	return &messageDatabase{
		db: db,
	}
}

func (m *messageDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Message, error) {
	var messages []models.Message
	cur, err := m.db.Collection(messageName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &messages)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (m *messageDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return m.db.Collection(messageName).CountDocuments(ctx, filter, opts...)
}

func (m *messageDatabase) InsertOne(ctx context.Context, message models.Message) (InsertOneResultHelper, error) {
	return m.db.Collection(messageName).InsertOne(ctx, message)
}

func (m *messageDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return m.db.Collection(messageName).DeleteMany(ctx, filter, opts...)
}
