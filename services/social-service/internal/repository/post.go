package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/model"
)

// PostRepository defines the interface for post and feed queries.
type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) (*model.Post, error)
	// GetPostBySlug returns the active post with the given slug, joined with its author.
	GetPostBySlug(ctx context.Context, slug string) (*model.PostView, error)
	ListPosts(ctx context.Context) ([]*model.PostView, error)
	UpdatePost(ctx context.Context, id bson.ObjectID, params UpdatePostParams) (*model.Post, error)
	SoftDeletePost(ctx context.Context, id bson.ObjectID) error
	IncrementShares(ctx context.Context, id bson.ObjectID) error
	Feed(ctx context.Context, query FeedQuery) ([]*model.PostView, error)
}

// UpdatePostParams defines the optional fields of a post update.
// Only the fields that are not nil will be updated.
type UpdatePostParams struct {
	Title       *string
	Description *string
	Tags        *[]string
	Image       *string
	Type        *string
}

// FeedQuery selects a page of active posts.
type FeedQuery struct {
	// Category is matched as a literal, case-sensitive substring of the post type.
	Category string
	// SearchTerms match when any term is a literal substring of the description.
	// An empty slice applies no search predicate.
	SearchTerms []string
	// OrganizationsOnly keeps posts written by organization accounts.
	OrganizationsOnly bool
	Offset            int64
	Limit             int64
}

const postCollection = "posts"

// feedAuthorFields is the allowlist of author fields exposed by the main feed.
var feedAuthorFields = []string{
	"picture",
	"username",
	"first_name",
	"last_name",
	"follower_count",
	"followed_count",
	"country",
	"city",
}

type postMongoRepository struct {
	db *mongo.Database
}

func NewPostMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) PostRepository {
	collection := db.Collection(postCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "author", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create post indexes")
	}

	return &postMongoRepository{db: db}
}

func (r *postMongoRepository) CreatePost(ctx context.Context, post *model.Post) (*model.Post, error) {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Status == "" {
		post.Status = model.PostStatusActive
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}

	result, err := r.db.Collection(postCollection).InsertOne(ctx, post)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		post.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return post, nil
}

func (r *postMongoRepository) GetPostBySlug(ctx context.Context, slug string) (*model.PostView, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"slug": slug, "status": model.PostStatusActive}}},
		{{Key: "$limit", Value: 1}},
	}
	pipeline = append(pipeline, authorJoin(postAuthorProjection(), true)...)

	posts, err := r.aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	if len(posts) == 0 {
		return nil, mongo.ErrNoDocuments
	}

	return posts[0], nil
}

func (r *postMongoRepository) ListPosts(ctx context.Context) ([]*model.PostView, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": model.PostStatusActive}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	pipeline = append(pipeline, authorJoin(postAuthorProjection(), true)...)

	return r.aggregate(ctx, pipeline)
}

func (r *postMongoRepository) UpdatePost(
	ctx context.Context,
	id bson.ObjectID,
	params UpdatePostParams,
) (*model.Post, error) {
	updateMap := bson.M{}
	if params.Title != nil {
		updateMap["title"] = *params.Title
	}
	if params.Description != nil {
		updateMap["description"] = *params.Description
	}
	if params.Tags != nil {
		updateMap["tags"] = *params.Tags
	}
	if params.Image != nil {
		updateMap["image"] = *params.Image
	}
	if params.Type != nil {
		updateMap["type"] = *params.Type
	}

	if len(updateMap) == 0 {
		return nil, errors.New("no post fields to update")
	}

	updateMap["updated_at"] = time.Now()

	result := r.db.Collection(postCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "status": model.PostStatusActive},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var post model.Post
	if err := result.Decode(&post); err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *postMongoRepository) SoftDeletePost(ctx context.Context, id bson.ObjectID) error {
	result, err := r.db.Collection(postCollection).UpdateOne(
		ctx,
		bson.M{"_id": id, "status": model.PostStatusActive},
		bson.M{"$set": bson.M{"status": model.PostStatusDeleted, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

func (r *postMongoRepository) IncrementShares(ctx context.Context, id bson.ObjectID) error {
	result, err := r.db.Collection(postCollection).UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"shares_count": 1}},
	)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

func (r *postMongoRepository) Feed(ctx context.Context, query FeedQuery) ([]*model.PostView, error) {
	return r.aggregate(ctx, feedPipeline(query))
}

func (r *postMongoRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]*model.PostView, error) {
	cursor, err := r.db.Collection(postCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []*model.PostView{}
	for cursor.Next(ctx) {
		var post model.PostView
		if err := cursor.Decode(&post); err != nil {
			return nil, err
		}
		posts = append(posts, &post)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

// feedFilter builds the $match stage applied to posts before any join.
func feedFilter(query FeedQuery) bson.D {
	filter := bson.D{{Key: "status", Value: model.PostStatusActive}}

	if query.Category != "" {
		filter = append(filter, bson.E{Key: "type", Value: substring(query.Category)})
	}

	if len(query.SearchTerms) > 0 {
		terms := make(bson.A, 0, len(query.SearchTerms))
		for _, term := range query.SearchTerms {
			terms = append(terms, bson.M{"description": substring(term)})
		}
		filter = append(filter, bson.E{Key: "$or", Value: terms})
	}

	return filter
}

func feedPipeline(query FeedQuery) mongo.Pipeline {
	page := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: query.Offset}},
		{{Key: "$limit", Value: query.Limit}},
	}

	pipeline := mongo.Pipeline{{{Key: "$match", Value: feedFilter(query)}}}

	if query.OrganizationsOnly {
		// The author type is only known after the join, so paging happens last.
		pipeline = append(pipeline, authorJoin(organizationAuthorProjection(), false)...)
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{
			"author_doc.user_type": model.UserTypeOrganization,
		}}})
		return append(pipeline, page...)
	}

	pipeline = append(pipeline, page...)
	return append(pipeline, authorJoin(feedAuthorProjection(), true)...)
}

// authorJoin populates author_doc from the users collection with the given projection.
func authorJoin(projection bson.D, keepOrphans bool) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: userCollection},
			{Key: "let", Value: bson.M{"authorId": "$author"}},
			{Key: "pipeline", Value: bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$authorId"}}}},
				bson.M{"$project": projection},
			}},
			{Key: "as", Value: "author_doc"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$author_doc"},
			{Key: "preserveNullAndEmptyArrays", Value: keepOrphans},
		}}},
	}
}

func feedAuthorProjection() bson.D {
	projection := make(bson.D, 0, len(feedAuthorFields))
	for _, field := range feedAuthorFields {
		projection = append(projection, bson.E{Key: field, Value: 1})
	}
	return projection
}

// organizationAuthorProjection hides only the id and credentials, so organization feed
// items carry more author fields than the main feed.
func organizationAuthorProjection() bson.D {
	return bson.D{{Key: "_id", Value: 0}, {Key: "password_hash", Value: 0}}
}

func postAuthorProjection() bson.D {
	return bson.D{{Key: "_id", Value: 0}, {Key: "password_hash", Value: 0}, {Key: "user_type", Value: 0}}
}

func substring(term string) bson.Regex {
	return bson.Regex{Pattern: regexp.QuoteMeta(term)}
}
