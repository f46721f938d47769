package directory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Sahilattar8786/khidmah-mvp/databases/mocks"
	"github.com/Sahilattar8786/khidmah-mvp/directory"
	"github.com/Sahilattar8786/khidmah-mvp/models"
)

func TestDirectory_RegisterMergesWithoutClobbering(t *testing.T) {
	aalimDB := &mocks.AalimDatabase{}
	aalimDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	d := directory.New(aalimDB, false)

	// empty email and name must not appear in the update at all
	err := d.Register(context.Background(), "aalim-1", "", "")
	assert.NoError(t, err)

	update := aalimDB.Calls[0].Arguments.Get(2).(bson.M)
	set := update["$set"].(bson.M)
	assert.Equal(t, true, set["isAvailable"])
	assert.NotContains(t, set, "email")
	assert.NotContains(t, set, "name")
}

func TestDirectory_RegisterStoresProfileFields(t *testing.T) {
	aalimDB := &mocks.AalimDatabase{}
	aalimDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{UpsertedCount: 1}, nil)

	d := directory.New(aalimDB, false)

	err := d.Register(context.Background(), "aalim-1", "imam@example.com", "Imam Yusuf")
	assert.NoError(t, err)

	update := aalimDB.Calls[0].Arguments.Get(2).(bson.M)
	set := update["$set"].(bson.M)
	assert.Equal(t, "imam@example.com", set["email"])
	assert.Equal(t, "Imam Yusuf", set["name"])
}

func TestDirectory_RegisterRequiresIdentity(t *testing.T) {
	d := directory.New(&mocks.AalimDatabase{}, false)

	assert.Error(t, d.Register(context.Background(), "   ", "a@b.c", "A"))
}

func TestDirectory_AssignNextPicksFirst(t *testing.T) {
	aalimDB := &mocks.AalimDatabase{}
	aalimDB.On("Find", mock.Anything, mock.Anything).
		Return([]models.Aalim{{ID: "aalim-1"}, {ID: "aalim-2"}}, nil)

	d := directory.New(aalimDB, false)

	id, err := d.AssignNext(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "aalim-1", id)
}

func TestDirectory_AssignNextEmptyDirectory(t *testing.T) {
	aalimDB := &mocks.AalimDatabase{}
	aalimDB.On("Find", mock.Anything, mock.Anything).Return([]models.Aalim{}, nil)

	d := directory.New(aalimDB, false)

	id, err := d.AssignNext(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, id)
}

func TestDirectory_ListAvailableStrictFiltersFlag(t *testing.T) {
	aalimDB := &mocks.AalimDatabase{}
	aalimDB.On("Find", mock.Anything, bson.M{"isAvailable": true}).
		Return([]models.Aalim{{ID: "aalim-1", IsAvailable: true}}, nil)

	d := directory.New(aalimDB, true)

	aalims, err := d.ListAvailable(context.Background())
	assert.NoError(t, err)
	assert.Len(t, aalims, 1)
}

func TestDirectory_ListAvailableLenientIgnoresFlag(t *testing.T) {
	aalimDB := &mocks.AalimDatabase{}
	aalimDB.On("Find", mock.Anything, bson.M{}).
		Return([]models.Aalim{{ID: "aalim-1", IsAvailable: false}}, nil)

	d := directory.New(aalimDB, false)

	aalims, err := d.ListAvailable(context.Background())
	assert.NoError(t, err)
	assert.Len(t, aalims, 1)
}

func TestDirectory_IsRegistered(t *testing.T) {
	aalimDB := &mocks.AalimDatabase{}
	aalimDB.On("FindOne", mock.Anything, bson.M{"_id": "aalim-1"}).
		Return(&models.Aalim{ID: "aalim-1"}, nil)
	aalimDB.On("FindOne", mock.Anything, bson.M{"_id": "ghost"}).
		Return(nil, mongo.ErrNoDocuments)

	d := directory.New(aalimDB, false)

	registered, err := d.IsRegistered(context.Background(), "aalim-1")
	assert.NoError(t, err)
	assert.True(t, registered)

	registered, err = d.IsRegistered(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.False(t, registered)
}

func TestDirectory_SetAvailabilityUnknownIdentity(t *testing.T) {
	aalimDB := &mocks.AalimDatabase{}
	aalimDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 0}, nil)

	d := directory.New(aalimDB, false)

	err := d.SetAvailability(context.Background(), "ghost", false)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}
