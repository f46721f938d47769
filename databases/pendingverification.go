package databases

// go generate: mockery --name PendingVerificationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sahilattar8786/khidmah-mvp/models"
)

const pendingVerificationName = "pendingverifications"

// PendingVerificationDatabase contains the methods to use with the pending verification database
type PendingVerificationDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.PendingVerification, error)
	InsertOne(ctx context.Context, pending models.PendingVerification) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
}

type pendingVerificationDatabase struct {
	db DatabaseHelper
}

// NewPendingVerificationDatabase initializes a new instance of pending verification database with the provided db connection
func NewPendingVerificationDatabase(db DatabaseHelper) PendingVerificationDatabase {
	return &pendingVerificationDatabase{
		db: db,
	}
}

func (pv *pendingVerificationDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.PendingVerification, error) {
	pending := &models.PendingVerification{}
	err := pv.db.Collection(pendingVerificationName).FindOne(ctx, filter, opts...).Decode(pending)
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func (pv *pendingVerificationDatabase) InsertOne(ctx context.Context, pending models.PendingVerification) (InsertOneResultHelper, error) {
	return pv.db.Collection(pendingVerificationName).InsertOne(ctx, pending)
}

func (pv *pendingVerificationDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return pv.db.Collection(pendingVerificationName).UpdateOne(ctx, filter, update, opts...)
}

func (pv *pendingVerificationDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return pv.db.Collection(pendingVerificationName).DeleteOne(ctx, filter, opts...)
}

func (pv *pendingVerificationDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return pv.db.Collection(pendingVerificationName).DeleteMany(ctx, filter, opts...)
}
