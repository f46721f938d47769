package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Role tags controlling which screen group and data queries an identity
// is entitled to. An identity with no stored role behaves as RoleUser.
const (
	RoleUser  = "user"
	RoleAalim = "aalim"
)

// User holds the structure for the users collection in mongo. The document
// id is the identity issued by the auth layer, so role lookups are point
// reads.
type User struct {
	ID        string             `json:"_id" bson:"_id"`
	Email     string             `json:"email" bson:"email"`
	Name      string             `json:"name,omitempty" bson:"name,omitempty"`
	Password  string             `json:"-" bson:"password"`
	Role      string             `json:"role" bson:"role"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
