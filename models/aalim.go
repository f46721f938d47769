package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Aalim holds the structure for the aalims collection in mongo. The document
// id is the advisor's identity so registration is an idempotent upsert.
type Aalim struct {
	ID          string             `json:"_id" bson:"_id"`
	Email       string             `json:"email,omitempty" bson:"email,omitempty"`
	Name        string             `json:"name,omitempty" bson:"name,omitempty"`
	IsAvailable bool               `json:"isAvailable" bson:"isAvailable"`
	CreatedAt   primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt   primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
