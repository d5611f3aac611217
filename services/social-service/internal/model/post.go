package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type PostStatus string

const (
	PostStatusActive  PostStatus = "active"
	PostStatusDeleted PostStatus = "deleted"
)

// Post is an entry of the feed. Deleting a post only flips its status.
type Post struct {
	ID          bson.ObjectID `bson:"_id,omitempty"  json:"id"`
	AuthorID    bson.ObjectID `bson:"author"         json:"-"`
	Title       string        `bson:"title"          json:"title"`
	Description string        `bson:"description"    json:"description"`
	Tags        []string      `bson:"tags"           json:"tags"`
	Image       string        `bson:"image,omitempty" json:"image,omitempty"`
	Slug        string        `bson:"slug"           json:"slug"`
	Type        string        `bson:"type"           json:"type"`
	Status      PostStatus    `bson:"status"         json:"status"`
	SharesCount int           `bson:"shares_count"   json:"sharesCount"`
	CreatedAt   time.Time     `bson:"created_at"     json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updated_at"     json:"updatedAt"`
}

// Author is the public subset of a user embedded in feed items.
// Which fields are filled depends on the projection of the query.
type Author struct {
	ID            *bson.ObjectID `bson:"_id,omitempty"        json:"id,omitempty"`
	Username      string         `bson:"username,omitempty"   json:"username,omitempty"`
	Email         string         `bson:"email,omitempty"      json:"email,omitempty"`
	Picture       string         `bson:"picture,omitempty"    json:"picture,omitempty"`
	UserType      UserType       `bson:"user_type,omitempty"  json:"userType,omitempty"`
	Verified      *bool          `bson:"verified,omitempty"   json:"verified,omitempty"`
	FirstName     string         `bson:"first_name,omitempty" json:"firstName,omitempty"`
	LastName      string         `bson:"last_name,omitempty"  json:"lastName,omitempty"`
	Country       string         `bson:"country,omitempty"    json:"country,omitempty"`
	City          string         `bson:"city,omitempty"       json:"city,omitempty"`
	FollowerCount *int           `bson:"follower_count,omitempty" json:"followerCount,omitempty"`
	FollowedCount *int           `bson:"followed_count,omitempty" json:"followedCount,omitempty"`
}

// PostView is a post joined with its author, as served by the feed.
// Liked is only ever set to true; absence means the requesting user did not like the post.
type PostView struct {
	Post   `bson:",inline"`
	Author *Author `bson:"author_doc,omitempty" json:"author,omitempty"`
	Liked  bool    `bson:"-"                    json:"liked,omitempty"`
}
