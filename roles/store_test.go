package roles_test

import (
	"context"
	"testing"
	"time"

	"github.com/shaj13/go-guardian/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Sahilattar8786/khidmah-mvp/databases/mocks"
	"github.com/Sahilattar8786/khidmah-mvp/models"
	"github.com/Sahilattar8786/khidmah-mvp/roles"
)

func newTestCache() store.Cache {
	return store.NewFIFO(context.Background(), time.Minute)
}

func TestStore_GetRoleReturnsStoredRole(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	single := &mocks.SingleResultHelper{}
	single.On("Decode", mock.Anything).Run(func(args mock.Arguments) {
		user := args.Get(0).(*models.User)
		user.Role = models.RoleAalim
	}).Return(nil)
	userDB.On("FindOne", mock.Anything, mock.Anything).Return(single)

	s := roles.New(userDB, newTestCache())

	assert.Equal(t, models.RoleAalim, s.GetRole(context.Background(), "identity-1"))
}

func TestStore_GetRoleCachesAfterFirstRead(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	single := &mocks.SingleResultHelper{}
	single.On("Decode", mock.Anything).Run(func(args mock.Arguments) {
		user := args.Get(0).(*models.User)
		user.Role = models.RoleAalim
	}).Return(nil)
	userDB.On("FindOne", mock.Anything, mock.Anything).Return(single)

	s := roles.New(userDB, newTestCache())

	assert.Equal(t, models.RoleAalim, s.GetRole(context.Background(), "identity-1"))
	assert.Equal(t, models.RoleAalim, s.GetRole(context.Background(), "identity-1"))

	userDB.AssertNumberOfCalls(t, "FindOne", 1)
}

func TestStore_GetRoleDefaultsOnLookupFailure(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	single := &mocks.SingleResultHelper{}
	single.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	userDB.On("FindOne", mock.Anything, mock.Anything).Return(single)

	s := roles.New(userDB, newTestCache())

	assert.Equal(t, models.RoleUser, s.GetRole(context.Background(), "unknown"))
}

func TestStore_GetRoleDefaultsOnTimeout(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	single := &mocks.SingleResultHelper{}
	single.On("Decode", mock.Anything).Run(func(mock.Arguments) {
		time.Sleep(roles.ResolveTimeout + 500*time.Millisecond)
	}).Return(nil)
	userDB.On("FindOne", mock.Anything, mock.Anything).Return(single)

	s := roles.New(userDB, newTestCache())

	start := time.Now()
	role := s.GetRole(context.Background(), "slow-identity")
	elapsed := time.Since(start)

	assert.Equal(t, models.RoleUser, role)
	assert.Less(t, elapsed, roles.ResolveTimeout+400*time.Millisecond)
}

func TestStore_GetRoleEmptyIdentityDefaults(t *testing.T) {
	s := roles.New(&mocks.UserDatabase{}, newTestCache())

	assert.Equal(t, models.RoleUser, s.GetRole(context.Background(), ""))
}

func TestStore_SetRoleUpsertsAndCaches(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	userDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{UpsertedCount: 1}, nil)

	s := roles.New(userDB, newTestCache())

	s.SetRole(context.Background(), "identity-1", models.RoleAalim)

	// role now resolves from the cache, no durable read needed
	assert.Equal(t, models.RoleAalim, s.GetRole(context.Background(), "identity-1"))
	userDB.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
}

func TestStore_SetRoleNormalizesUnknownRoles(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	userDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{UpsertedCount: 1}, nil)

	s := roles.New(userDB, newTestCache())

	s.SetRole(context.Background(), "identity-1", "superadmin")

	assert.Equal(t, models.RoleUser, s.GetRole(context.Background(), "identity-1"))
}

func TestStore_SetRolePersistFailureStillCaches(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	userDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	s := roles.New(userDB, newTestCache())

	// no error, no panic; the cached value still answers reads
	s.SetRole(context.Background(), "identity-1", models.RoleAalim)
	assert.Equal(t, models.RoleAalim, s.GetRole(context.Background(), "identity-1"))
}
