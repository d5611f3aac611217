package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/model"
)

// CommentRepository defines the interface for post comment operations.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.PostComment) (*model.PostComment, error)
	GetComment(ctx context.Context, id bson.ObjectID) (*model.PostComment, error)
	UpdateComment(ctx context.Context, id bson.ObjectID, params UpdateCommentParams) (*model.PostComment, error)
	DeleteComment(ctx context.Context, id bson.ObjectID) error
	ListComments(ctx context.Context, postID bson.ObjectID, params ListCommentsParams) ([]*model.PostComment, int64, error)
}

// UpdateCommentParams defines the optional fields of a comment update.
type UpdateCommentParams struct {
	Content *string
}

type ListCommentsParams struct {
	Limit  int64
	Offset int64
}

const commentCollection = "post_comments"

type commentMongoRepository struct {
	db *mongo.Database
}

func NewCommentMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) CommentRepository {
	collection := db.Collection(commentCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "post", Value: 1}, {Key: "created_at", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create comment indexes")
	}

	return &commentMongoRepository{db: db}
}

func (r *commentMongoRepository) CreateComment(
	ctx context.Context,
	comment *model.PostComment,
) (*model.PostComment, error) {
	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	if comment.Status == "" {
		comment.Status = model.CommentStatusActive
	}

	result, err := r.db.Collection(commentCollection).InsertOne(ctx, comment)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		comment.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return comment, nil
}

func (r *commentMongoRepository) GetComment(ctx context.Context, id bson.ObjectID) (*model.PostComment, error) {
	var comment model.PostComment
	err := r.db.Collection(commentCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if err != nil {
		return nil, err
	}

	return &comment, nil
}

func (r *commentMongoRepository) UpdateComment(
	ctx context.Context,
	id bson.ObjectID,
	params UpdateCommentParams,
) (*model.PostComment, error) {
	if params.Content == nil {
		return nil, errors.New("no comment fields to update")
	}

	result := r.db.Collection(commentCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"content": *params.Content, "updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var comment model.PostComment
	if err := result.Decode(&comment); err != nil {
		return nil, err
	}

	return &comment, nil
}

func (r *commentMongoRepository) DeleteComment(ctx context.Context, id bson.ObjectID) error {
	result, err := r.db.Collection(commentCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

func (r *commentMongoRepository) ListComments(
	ctx context.Context,
	postID bson.ObjectID,
	params ListCommentsParams,
) ([]*model.PostComment, int64, error) {
	filter := bson.M{"post": postID, "status": bson.M{"$ne": model.CommentStatusDeleted}}

	total, err := r.db.Collection(commentCollection).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$skip", Value: params.Offset}},
		{{Key: "$limit", Value: params.Limit}},
	}
	pipeline = append(pipeline, authorJoin(bson.D{
		{Key: "_id", Value: 0},
		{Key: "username", Value: 1},
		{Key: "email", Value: 1},
		{Key: "picture", Value: 1},
	}, true)...)

	cursor, err := r.db.Collection(commentCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}

	comments := []*model.PostComment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}
