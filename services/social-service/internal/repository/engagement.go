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

// LikeRepository defines the interface for like operations.
type LikeRepository interface {
	// ListLikesByUser returns every like of the user in one query.
	ListLikesByUser(ctx context.Context, userID bson.ObjectID) ([]model.Like, error)
	// Like records that the user likes the post. Liking twice is a no-op.
	Like(ctx context.Context, userID, postID bson.ObjectID) error
	Unlike(ctx context.Context, userID, postID bson.ObjectID) error
}

// ShareRepository defines the interface for share operations.
type ShareRepository interface {
	CreateShare(ctx context.Context, share *model.Share) (*model.Share, error)
}

const (
	likeCollection  = "likes"
	shareCollection = "shares"
)

type likeMongoRepository struct {
	db *mongo.Database
}

func NewLikeMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) LikeRepository {
	collection := db.Collection(likeCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "post", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create like indexes")
	}

	return &likeMongoRepository{db: db}
}

func (r *likeMongoRepository) ListLikesByUser(ctx context.Context, userID bson.ObjectID) ([]model.Like, error) {
	cursor, err := r.db.Collection(likeCollection).Find(ctx, bson.M{"user": userID})
	if err != nil {
		return nil, err
	}

	var likes []model.Like
	if err := cursor.All(ctx, &likes); err != nil {
		return nil, err
	}

	return likes, nil
}

func (r *likeMongoRepository) Like(ctx context.Context, userID, postID bson.ObjectID) error {
	_, err := r.db.Collection(likeCollection).UpdateOne(
		ctx,
		bson.M{"user": userID, "post": postID},
		bson.M{"$setOnInsert": bson.M{"created_at": time.Now()}},
		options.UpdateOne().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent like won the upsert race.
		return nil
	}

	return err
}

func (r *likeMongoRepository) Unlike(ctx context.Context, userID, postID bson.ObjectID) error {
	_, err := r.db.Collection(likeCollection).DeleteOne(ctx, bson.M{"user": userID, "post": postID})
	return err
}

type shareMongoRepository struct {
	db *mongo.Database
}

func NewShareMongoRepository(db *mongo.Database) ShareRepository {
	return &shareMongoRepository{db: db}
}

func (r *shareMongoRepository) CreateShare(ctx context.Context, share *model.Share) (*model.Share, error) {
	share.CreatedAt = time.Now()

	result, err := r.db.Collection(shareCollection).InsertOne(ctx, share)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		share.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return share, nil
}
