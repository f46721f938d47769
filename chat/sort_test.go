package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sahilattar8786/khidmah-mvp/models"
)

func TestSortChatsByRecencyMissingTimestampSinks(t *testing.T) {
	chats := []models.Chat{
		{UserID: "a", UpdatedAt: 0},
		{UserID: "b", UpdatedAt: 300},
		{UserID: "c", UpdatedAt: 100},
	}

	sortChatsByRecency(chats)

	assert.Equal(t, "b", chats[0].UserID)
	assert.Equal(t, "c", chats[1].UserID)
	assert.Equal(t, "a", chats[2].UserID)
}

func TestSortMessagesByCreationIsStable(t *testing.T) {
	messages := []models.Message{
		{SenderID: "first", CreatedAt: 100},
		{SenderID: "second", CreatedAt: 100},
		{SenderID: "earlier", CreatedAt: 50},
	}

	sortMessagesByCreation(messages)

	assert.Equal(t, "earlier", messages[0].SenderID)
	assert.Equal(t, "first", messages[1].SenderID)
	assert.Equal(t, "second", messages[2].SenderID)
}
