package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SearchRecord is a document of the search index, keyed by (resource, object id).
type SearchRecord struct {
	ObjectID  string    `bson:"object_id"`
	Resource  string    `bson:"resource"`
	Title     string    `bson:"title"`
	Image     string    `bson:"image,omitempty"`
	Keywords  string    `bson:"keywords"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// SearchIndexRepository maintains the search index fed by domain events.
type SearchIndexRepository interface {
	Upsert(ctx context.Context, record SearchRecord) error
	Delete(ctx context.Context, resource, objectID string) error
}

const searchIndexCollection = "search_index"

type searchIndexMongoRepository struct {
	db *mongo.Database
}

func NewSearchIndexMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) SearchIndexRepository {
	collection := db.Collection(searchIndexCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "resource", Value: 1}, {Key: "object_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "title", Value: "text"}, {Key: "keywords", Value: "text"}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create search index indexes")
	}

	return &searchIndexMongoRepository{db: db}
}

func (r *searchIndexMongoRepository) Upsert(ctx context.Context, record SearchRecord) error {
	record.UpdatedAt = time.Now()

	_, err := r.db.Collection(searchIndexCollection).ReplaceOne(
		ctx,
		bson.M{"resource": record.Resource, "object_id": record.ObjectID},
		record,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *searchIndexMongoRepository) Delete(ctx context.Context, resource, objectID string) error {
	_, err := r.db.Collection(searchIndexCollection).DeleteOne(ctx, bson.M{
		"resource":  resource,
		"object_id": objectID,
	})
	return err
}
