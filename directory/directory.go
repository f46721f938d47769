// Package directory is the registry of advisor identities used for chat
// assignment.
package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Sahilattar8786/khidmah-mvp/databases"
	"github.com/Sahilattar8786/khidmah-mvp/models"
)

// Directory exposes advisor registration, availability listing and
// first-available assignment.
type Directory struct {
	aalims databases.AalimDatabase

	// strict gates ListAvailable on the isAvailable flag. When false a
	// record's existence alone makes the advisor assignable.
	strict bool
}

// New creates a directory over the aalims collection.
func New(aalims databases.AalimDatabase, strictAvailability bool) *Directory {
	return &Directory{aalims: aalims, strict: strictAvailability}
}

// Register upserts the advisor record, marking it available. Merge
// semantics: empty email/name never clobber previously stored values, and
// repeat registrations are no-ops apart from the updatedAt bump.
func (d *Directory) Register(ctx context.Context, identity, email, name string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return errors.New("identity is required")
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	set := bson.M{
		"isAvailable": true,
		"updatedAt":   now,
	}
	if email = strings.TrimSpace(email); email != "" {
		set["email"] = email
	}
	if name = strings.TrimSpace(name); name != "" {
		set["name"] = name
	}

	_, err := d.aalims.UpdateOne(ctx,
		bson.M{"_id": identity},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}
	zap.S().Infow("aalim registered", "aalimId", identity)
	return nil
}

// ListAvailable returns the assignable advisors. An empty list is a valid
// terminal state, not an error.
func (d *Directory) ListAvailable(ctx context.Context) ([]models.Aalim, error) {
	filter := bson.M{}
	if d.strict {
		filter["isAvailable"] = true
	}
	aalims, err := d.aalims.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if aalims == nil {
		aalims = []models.Aalim{}
	}
	return aalims, nil
}

// AssignNext picks the first assignable advisor. Deterministic, not
// load-balanced: first-available wins every time. Returns "" with a nil
// error when the directory is empty.
func (d *Directory) AssignNext(ctx context.Context) (string, error) {
	aalims, err := d.ListAvailable(ctx)
	if err != nil {
		return "", err
	}
	if len(aalims) == 0 {
		return "", nil
	}
	return aalims[0].ID, nil
}

// IsRegistered reports whether the identity has a directory entry. Used to
// force re-registration when an identity claims the aalim role without one.
func (d *Directory) IsRegistered(ctx context.Context, identity string) (bool, error) {
	_, err := d.aalims.FindOne(ctx, bson.M{"_id": identity})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SetAvailability flips the stored availability flag.
func (d *Directory) SetAvailability(ctx context.Context, identity string, available bool) error {
	now := primitive.NewDateTimeFromTime(time.Now())
	res, err := d.aalims.UpdateOne(ctx,
		bson.M{"_id": identity},
		bson.M{"$set": bson.M{"isAvailable": available, "updatedAt": now}},
	)
	if err != nil {
		return err
	}
	if res != nil && res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
