package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin grants a role to an identity-provider user
type Admin struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string             `bson:"userId" json:"userId"`
	Role      string             `bson:"role" json:"role"` // "admin" or "moderator"
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

var (
	ErrNotFound        = errors.New("document not found")
	ErrAlreadyExists   = errors.New("document already exists")
	ErrForbidden       = errors.New("not allowed for this user")
	ErrVersionConflict = errors.New("document was modified concurrently")
)
