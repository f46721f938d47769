package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Message holds the structure for the messages collection in mongo. Messages
// are append-only; they are deleted only as part of the owning chat's delete
// cascade. Order is CreatedAt ascending.
type Message struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	ChatID    primitive.ObjectID `json:"chatId" bson:"chatId"`
	SenderID  string             `json:"senderId" bson:"senderId"`
	Text      string             `json:"text" bson:"text"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
