// Package roles resolves an identity to its role tag. The durable record
// lives in the users collection; a process-local cache is the fast path.
// Resolution is availability-over-correctness: every identity resolves to
// some role, because the route controller treats an unresolved role as stuck.
package roles

import (
	"context"
	"time"

	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Sahilattar8786/khidmah-mvp/databases"
	"github.com/Sahilattar8786/khidmah-mvp/models"
)

// ResolveTimeout bounds the durable read on a cache miss. Past it the caller
// gets the default role, never an error and never an unbounded wait.
const ResolveTimeout = 2000 * time.Millisecond

// Store maps identities to role tags with a read-through cache. The users
// collection is the single source of truth; the cache is invalidated (not
// synced) on writes.
type Store struct {
	users   databases.UserDatabase
	cache   store.Cache
	timeout time.Duration
}

// New creates a role store over the users collection and the given cache.
func New(users databases.UserDatabase, cache store.Cache) *Store {
	return &Store{users: users, cache: cache, timeout: ResolveTimeout}
}

// SetRole upserts the durable role record and refreshes the cache. Both
// writes are best effort: failures are logged and swallowed so that role
// assignment can never block account creation.
func (s *Store) SetRole(ctx context.Context, identity, role string) {
	if identity == "" {
		return
	}
	if role != models.RoleAalim {
		role = models.RoleUser
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": identity},
		bson.M{
			"$set":         bson.M{"role": role, "updatedAt": now},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		zap.S().Errorw("failed to persist role", "identity", identity, "role", role, "error", err)
	}

	if err := s.cache.Store(cacheKey(identity), role, nil); err != nil {
		zap.S().Warnw("failed to cache role", "identity", identity, "error", err)
	}
}

// GetRole resolves the identity's role: cache first, then the durable store
// bounded by ResolveTimeout. Any miss, failure or timeout resolves to
// models.RoleUser.
func (s *Store) GetRole(ctx context.Context, identity string) string {
	if identity == "" {
		return models.RoleUser
	}

	if v, ok, err := s.cache.Load(cacheKey(identity), nil); err == nil && ok {
		if role, ok := v.(string); ok && role != "" {
			return role
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		role string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		var user models.User
		err := s.users.FindOne(ctx, bson.M{"_id": identity}).Decode(&user)
		ch <- result{role: user.Role, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil || res.role == "" {
			if res.err != nil {
				zap.S().Debugw("role lookup failed, defaulting to user", "identity", identity, "error", res.err)
			}
			return models.RoleUser
		}
		if err := s.cache.Store(cacheKey(identity), res.role, nil); err != nil {
			zap.S().Warnw("failed to cache role", "identity", identity, "error", err)
		}
		return res.role
	case <-ctx.Done():
		zap.S().Warnw("role resolution timed out, defaulting to user", "identity", identity)
		return models.RoleUser
	}
}

func cacheKey(identity string) string {
	return "role:" + identity
}
