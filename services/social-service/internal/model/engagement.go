package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Like links a user to a post they liked. (user, post) is unique.
type Like struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    bson.ObjectID `bson:"user"          json:"user"`
	PostID    bson.ObjectID `bson:"post"          json:"post"`
	CreatedAt time.Time     `bson:"created_at"    json:"createdAt"`
}

// Share records that a user shared a post or a job on an external platform.
// Exactly one of PostID and JobID is set.
type Share struct {
	ID         bson.ObjectID  `bson:"_id,omitempty"  json:"id"`
	Plateforme string         `bson:"plateforme"     json:"plateforme"`
	UserID     bson.ObjectID  `bson:"user"           json:"user"`
	PostID     *bson.ObjectID `bson:"post,omitempty" json:"post,omitempty"`
	JobID      *bson.ObjectID `bson:"job,omitempty"  json:"job,omitempty"`
	CreatedAt  time.Time      `bson:"created_at"     json:"createdAt"`
}

type CommentStatus string

const (
	CommentStatusActive  CommentStatus = "active"
	CommentStatusDeleted CommentStatus = "deleted"
)

// PostComment is a comment left on a post.
type PostComment struct {
	ID        bson.ObjectID `bson:"_id,omitempty"        json:"id"`
	PostID    bson.ObjectID `bson:"post"                 json:"post"`
	AuthorID  bson.ObjectID `bson:"author"               json:"-"`
	Content   string        `bson:"content"              json:"content"`
	Status    CommentStatus `bson:"status"               json:"status"`
	Author    *Author       `bson:"author_doc,omitempty" json:"author,omitempty"`
	CreatedAt time.Time     `bson:"created_at"           json:"createdAt"`
	UpdatedAt time.Time     `bson:"updated_at"           json:"updatedAt"`
}
