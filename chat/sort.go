package chat

import (
	"sort"

	"github.com/Sahilattar8786/khidmah-mvp/models"
)

// sortChatsByRecency orders chats by updatedAt descending. The zero
// primitive.DateTime is the epoch, so documents written without a timestamp
// sink to the end.
func sortChatsByRecency(chats []models.Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].UpdatedAt > chats[j].UpdatedAt
	})
}

// sortMessagesByCreation orders messages by createdAt ascending, the only
// ordering the message log exposes.
func sortMessagesByCreation(messages []models.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt < messages[j].CreatedAt
	})
}
