package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type TokenStatus string

const (
	TokenStatusActive    TokenStatus = "active"
	TokenStatusSignedOut TokenStatus = "signed-out"
)

// Token is an audit record of an issued session token.
// It is append-only and informational: token validity is decided by its signature.
type Token struct {
	ID                bson.ObjectID `bson:"_id,omitempty"`
	UserID            bson.ObjectID `bson:"user"`
	Token             string        `bson:"token"`
	NotificationToken string        `bson:"notification_token,omitempty"`
	Status            TokenStatus   `bson:"status"`
	SignoutAt         *time.Time    `bson:"signout_at,omitempty"`
	CreatedAt         time.Time     `bson:"created_at"`
	UpdatedAt         time.Time     `bson:"updated_at"`
}
