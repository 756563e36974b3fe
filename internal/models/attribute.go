package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Color is a selectable product color attribute.
type Color struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name    string             `bson:"name" json:"name"`
	HexCode string             `bson:"hex_code" json:"hexCode"`
}

// Size is a selectable product size attribute.
type Size struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name string             `bson:"name" json:"name"`
}
