package chat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Sahilattar8786/khidmah-mvp/chat"
	"github.com/Sahilattar8786/khidmah-mvp/databases/mocks"
	"github.com/Sahilattar8786/khidmah-mvp/models"
	"github.com/Sahilattar8786/khidmah-mvp/realtime"
)

func TestLog_AppendRejectsBlankTextLocally(t *testing.T) {
	messageDB := &mocks.MessageDatabase{}
	chatDB := &mocks.ChatDatabase{}

	l := chat.NewLog(messageDB, chatDB, realtime.NewBroker())

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := l.Append(context.Background(), primitive.NewObjectID().Hex(), "sender-1", text)
		assert.ErrorIs(t, err, chat.ErrEmptyMessage)
	}
	messageDB.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestLog_AppendPersistsAndBumpsRecency(t *testing.T) {
	oid := primitive.NewObjectID()

	messageDB := &mocks.MessageDatabase{}
	chatDB := &mocks.ChatDatabase{}
	messageDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Message")).
		Return(&mocks.InsertOneResultHelper{}, nil)
	chatDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	chatDB.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.Chat{ID: oid, AalimID: "aalim-1"}, nil)

	l := chat.NewLog(messageDB, chatDB, realtime.NewBroker())

	messageID, err := l.Append(context.Background(), oid.Hex(), "sender-1", "salaam")
	assert.NoError(t, err)
	assert.NotEmpty(t, messageID)

	inserted := messageDB.Calls[0].Arguments.Get(1).(models.Message)
	assert.Equal(t, oid, inserted.ChatID)
	assert.Equal(t, "sender-1", inserted.SenderID)
	assert.Equal(t, "salaam", inserted.Text)

	chatDB.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestLog_AppendRecencyBumpFailureIsNotFatal(t *testing.T) {
	oid := primitive.NewObjectID()

	messageDB := &mocks.MessageDatabase{}
	chatDB := &mocks.ChatDatabase{}
	messageDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Message")).
		Return(&mocks.InsertOneResultHelper{}, nil)
	chatDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assert.AnError)
	chatDB.On("FindOne", mock.Anything, mock.Anything).
		Return(nil, mongo.ErrNoDocuments)

	l := chat.NewLog(messageDB, chatDB, realtime.NewBroker())

	// the message is visible, so the caller must see success
	_, err := l.Append(context.Background(), oid.Hex(), "sender-1", "salaam")
	assert.NoError(t, err)
}

func TestLog_AppendInsertFailureIsRetryable(t *testing.T) {
	messageDB := &mocks.MessageDatabase{}
	chatDB := &mocks.ChatDatabase{}
	messageDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Message")).
		Return(nil, assert.AnError)

	l := chat.NewLog(messageDB, chatDB, realtime.NewBroker())

	_, err := l.Append(context.Background(), primitive.NewObjectID().Hex(), "sender-1", "salaam")
	assert.ErrorIs(t, err, chat.ErrSendFailed)
	chatDB.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestLog_ListOrdersByCreation(t *testing.T) {
	oid := primitive.NewObjectID()
	first := models.Message{ID: primitive.NewObjectID(), ChatID: oid, CreatedAt: 100}
	second := models.Message{ID: primitive.NewObjectID(), ChatID: oid, CreatedAt: 200}

	messageDB := &mocks.MessageDatabase{}
	messageDB.On("Find", mock.Anything, mock.Anything).
		Return([]models.Message{second, first}, nil)

	l := chat.NewLog(messageDB, &mocks.ChatDatabase{}, realtime.NewBroker())

	messages, err := l.List(context.Background(), oid.Hex())
	assert.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, first.ID, messages[0].ID)
	assert.Equal(t, second.ID, messages[1].ID)
}

func TestLog_SubscribeDeliversFullSnapshots(t *testing.T) {
	oid := primitive.NewObjectID()
	msg := models.Message{ID: primitive.NewObjectID(), ChatID: oid, SenderID: "s", CreatedAt: 100}

	messageDB := &mocks.MessageDatabase{}
	messageDB.On("Find", mock.Anything, mock.Anything).Return([]models.Message{msg}, nil)

	broker := realtime.NewBroker()
	l := chat.NewLog(messageDB, &mocks.ChatDatabase{}, broker)

	var pushes [][]models.Message
	sub := l.Subscribe(oid.Hex(), func(messages []models.Message) {
		pushes = append(pushes, messages)
	})
	defer sub.Cancel()

	assert.Len(t, pushes, 1)

	broker.Publish(realtime.MessagesTopic(oid.Hex()))
	assert.Len(t, pushes, 2)
	assert.Len(t, pushes[1], 1)
}
