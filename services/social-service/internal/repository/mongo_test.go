package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/model"
)

// testDatabase connects to MONGODB_TEST_URI and returns a throwaway database.
// Tests that need it are skipped when the variable is unset.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("jobfeed_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

func TestMongo_UserAndPersonUniqueness(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	logger := zerolog.Nop()

	users := NewUserMongoRepository(ctx, &logger, db)
	persons := NewPersonMongoRepository(ctx, &logger, db)

	user, err := users.CreateUser(ctx, &model.User{Username: "jane", Email: "jane@example.com", UserType: model.UserTypePerson})
	require.NoError(t, err)

	_, err = users.CreateUser(ctx, &model.User{Username: "jane2", Email: "jane@example.com", UserType: model.UserTypePerson})
	assert.True(t, mongo.IsDuplicateKeyError(err))

	byLogin, err := users.GetUserByLogin(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byLogin.ID)

	_, err = persons.CreatePerson(ctx, &model.Person{ProviderID: "g-1", UserID: user.ID})
	require.NoError(t, err)

	other, err := users.CreateUser(ctx, &model.User{Username: "john", Email: "john@example.com", UserType: model.UserTypePerson})
	require.NoError(t, err)
	_, err = persons.CreatePerson(ctx, &model.Person{ProviderID: "g-1", UserID: other.ID})
	assert.True(t, mongo.IsDuplicateKeyError(err))

	// Persons without a provider id do not collide on the partial index.
	third, err := users.CreateUser(ctx, &model.User{Username: "joe", Email: "joe@example.com", UserType: model.UserTypePerson})
	require.NoError(t, err)
	_, err = persons.CreatePerson(ctx, &model.Person{UserID: other.ID})
	require.NoError(t, err)
	_, err = persons.CreatePerson(ctx, &model.Person{UserID: third.ID})
	require.NoError(t, err)
}

func TestMongo_OrganizationUsernameUniqueAndDelete(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	logger := zerolog.Nop()

	users := NewUserMongoRepository(ctx, &logger, db)

	acme, err := users.CreateUser(ctx, &model.User{Username: "acme", Email: "hr@acme.io", UserType: model.UserTypeOrganization})
	require.NoError(t, err)

	_, err = users.CreateUser(ctx, &model.User{Username: "acme", Email: "jobs@acme.io", UserType: model.UserTypeOrganization})
	assert.True(t, mongo.IsDuplicateKeyError(err))

	// Derived person usernames are outside the partial index.
	_, err = users.CreateUser(ctx, &model.User{Username: "JaneDoeabcde", Email: "a@example.com", UserType: model.UserTypePerson})
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, &model.User{Username: "JaneDoeabcde", Email: "b@example.com", UserType: model.UserTypePerson})
	require.NoError(t, err)

	require.NoError(t, users.DeleteUser(ctx, acme.ID))
	assert.ErrorIs(t, users.DeleteUser(ctx, acme.ID), mongo.ErrNoDocuments)

	_, err = users.CreateUser(ctx, &model.User{Username: "acme", Email: "hr@acme.io", UserType: model.UserTypeOrganization})
	require.NoError(t, err)
}

func TestMongo_FeedAndLikes(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	logger := zerolog.Nop()

	users := NewUserMongoRepository(ctx, &logger, db)
	posts := NewPostMongoRepository(ctx, &logger, db)
	likes := NewLikeMongoRepository(ctx, &logger, db)

	person, err := users.CreateUser(ctx, &model.User{Username: "jane", Email: "jane@example.com", UserType: model.UserTypePerson, PasswordHash: "secret"})
	require.NoError(t, err)
	organization, err := users.CreateUser(ctx, &model.User{Username: "acme", Email: "hr@acme.io", UserType: model.UserTypeOrganization, PasswordHash: "secret"})
	require.NoError(t, err)

	personPost, err := posts.CreatePost(ctx, &model.Post{AuthorID: person.ID, Title: "a", Description: "go meetup", Type: "event", Slug: "a"})
	require.NoError(t, err)
	orgPost, err := posts.CreatePost(ctx, &model.Post{AuthorID: organization.ID, Title: "b", Description: "go engineer", Type: "job", Slug: "b"})
	require.NoError(t, err)

	feed, err := posts.Feed(ctx, FeedQuery{SearchTerms: []string{"go"}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, orgPost.ID, feed[0].ID)
	require.NotNil(t, feed[0].Author)
	assert.Equal(t, "acme", feed[0].Author.Username)
	assert.Empty(t, feed[0].Author.Email)

	orgFeed, err := posts.Feed(ctx, FeedQuery{OrganizationsOnly: true, Limit: 10})
	require.NoError(t, err)
	require.Len(t, orgFeed, 1)
	assert.Equal(t, orgPost.ID, orgFeed[0].ID)
	assert.Equal(t, "hr@acme.io", orgFeed[0].Author.Email)

	empty, err := posts.Feed(ctx, FeedQuery{Offset: 5, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, likes.Like(ctx, person.ID, personPost.ID))
	require.NoError(t, likes.Like(ctx, person.ID, personPost.ID))
	liked, err := likes.ListLikesByUser(ctx, person.ID)
	require.NoError(t, err)
	assert.Len(t, liked, 1)

	require.NoError(t, posts.SoftDeletePost(ctx, personPost.ID))
	_, err = posts.GetPostBySlug(ctx, "a")
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestMongo_TokenSignOut(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	logger := zerolog.Nop()

	tokens := NewTokenMongoRepository(ctx, &logger, db)

	_, err := tokens.CreateToken(ctx, &model.Token{UserID: bson.NewObjectID(), Token: "t-1"})
	require.NoError(t, err)

	require.NoError(t, tokens.SignOut(ctx, "t-1"))
	assert.ErrorIs(t, tokens.SignOut(ctx, "t-1"), mongo.ErrNoDocuments)
}
