package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Chat holds the structure for the chats collection in mongo. Exactly one
// aalim is assigned at creation and never reassigned; UpdatedAt is bumped on
// every message append and drives recency ordering.
type Chat struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	UserName  string             `json:"userName,omitempty" bson:"userName,omitempty"`
	UserEmail string             `json:"userEmail,omitempty" bson:"userEmail,omitempty"`
	AalimID   string             `json:"aalimId" bson:"aalimId"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
