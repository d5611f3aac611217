package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserType tells which profile document (person or organization) a user owns.
type UserType string

const (
	UserTypePerson       UserType = "person"
	UserTypeOrganization UserType = "organization"
)

// User represents an account of the platform.
// Each user owns exactly one Person or one Organization.
type User struct {
	ID            bson.ObjectID `bson:"_id,omitempty"            json:"id"`
	Username      string        `bson:"username"                 json:"username"`
	Email         string        `bson:"email"                    json:"email"`
	PasswordHash  string        `bson:"password_hash,omitempty"  json:"-"`
	Picture       string        `bson:"picture,omitempty"        json:"picture,omitempty"`
	UserType      UserType      `bson:"user_type"                json:"userType"`
	Verified      bool          `bson:"verified"                 json:"verified"`
	FirstName     string        `bson:"first_name,omitempty"     json:"firstName,omitempty"`
	LastName      string        `bson:"last_name,omitempty"      json:"lastName,omitempty"`
	Country       string        `bson:"country,omitempty"        json:"country,omitempty"`
	City          string        `bson:"city,omitempty"           json:"city,omitempty"`
	FollowerCount int           `bson:"follower_count"           json:"followerCount"`
	FollowedCount int           `bson:"followed_count"           json:"followedCount"`
	CreatedAt     time.Time     `bson:"created_at"               json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updated_at"               json:"updatedAt"`
}

// IsOrganization reports whether the user signed up as a company.
func (u *User) IsOrganization() bool {
	return u.UserType == UserTypeOrganization
}
