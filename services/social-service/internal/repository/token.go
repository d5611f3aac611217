package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/model"
)

// TokenRepository stores the audit trail of issued session tokens.
type TokenRepository interface {
	CreateToken(ctx context.Context, token *model.Token) (*model.Token, error)
	// SignOut marks the audit row of token as signed out. It returns
	// mongo.ErrNoDocuments when no active row matches.
	SignOut(ctx context.Context, token string) error
}

const tokenCollection = "tokens"

type tokenMongoRepository struct {
	db *mongo.Database
}

func NewTokenMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) TokenRepository {
	collection := db.Collection(tokenCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "token", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Fatal().Err(err).Msg("failed to create token indexes")
	}

	return &tokenMongoRepository{db: db}
}

func (r *tokenMongoRepository) CreateToken(ctx context.Context, token *model.Token) (*model.Token, error) {
	now := time.Now()
	token.CreatedAt = now
	token.UpdatedAt = now
	if token.Status == "" {
		token.Status = model.TokenStatusActive
	}

	result, err := r.db.Collection(tokenCollection).InsertOne(ctx, token)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		token.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return token, nil
}

func (r *tokenMongoRepository) SignOut(ctx context.Context, token string) error {
	now := time.Now()
	result, err := r.db.Collection(tokenCollection).UpdateMany(
		ctx,
		bson.M{"token": token, "status": model.TokenStatusActive},
		bson.M{"$set": bson.M{
			"status":     model.TokenStatusSignedOut,
			"signout_at": now,
			"updated_at": now,
		}},
	)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}
