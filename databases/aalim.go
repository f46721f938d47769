package databases

// go generate: mockery --name AalimDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sahilattar8786/khidmah-mvp/models"
)

const aalimName = "aalims"

// AalimDatabase contains the methods to use with the aalim database
type AalimDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Aalim, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Aalim, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type aalimDatabase struct {
	db DatabaseHelper
}

// NewAalimDatabase initializes a new instance of aalim database with the provided db connection
func NewAalimDatabase(db DatabaseHelper) AalimDatabase {
	return &aalimDatabase{
		db: db,
	}
}

func (a *aalimDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Aalim, error) {
	aalim := &models.Aalim{}
	err := a.db.Collection(aalimName).FindOne(ctx, filter, opts...).Decode(aalim)
	if err != nil {
		return nil, err
	}
	return aalim, nil
}

func (a *aalimDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Aalim, error) {
	var aalims []models.Aalim
	cur, err := a.db.Collection(aalimName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &aalims)
	if err != nil {
		return nil, err
	}
	return aalims, nil
}

func (a *aalimDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return a.db.Collection(aalimName).CountDocuments(ctx, filter, opts...)
}

func (a *aalimDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return a.db.Collection(aalimName).UpdateOne(ctx, filter, update, opts...)
}
