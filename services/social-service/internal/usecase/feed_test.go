package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/model"
)

type recordingFeedMetrics struct {
	feeds []string
}

func (m *recordingFeedMetrics) RecordFeedLatency(feed string, _ time.Duration) {
	m.feeds = append(m.feeds, feed)
}

type feedFixture struct {
	store   *store
	metrics *recordingFeedMetrics
	usecase FeedUsecase

	person       *model.User
	organization *model.User
}

func newFeedFixture(t *testing.T) *feedFixture {
	t.Helper()

	s := newStore()
	metrics := &recordingFeedMetrics{}
	users := fakeUserRepo{s}

	person, err := users.CreateUser(context.Background(), &model.User{
		Username: "jane", Email: "jane@example.com", UserType: model.UserTypePerson,
	})
	require.NoError(t, err)
	organization, err := users.CreateUser(context.Background(), &model.User{
		Username: "acme", Email: "hr@acme.io", UserType: model.UserTypeOrganization,
	})
	require.NoError(t, err)

	return &feedFixture{
		store:        s,
		metrics:      metrics,
		usecase:      NewFeedUsecase(fakePostRepo{s}, fakeLikeRepo{s}, metrics),
		person:       person,
		organization: organization,
	}
}

func (f *feedFixture) post(t *testing.T, author *model.User, postType, description string) *model.Post {
	t.Helper()

	post, err := fakePostRepo{f.store}.CreatePost(context.Background(), &model.Post{
		AuthorID:    author.ID,
		Title:       description,
		Description: description,
		Type:        postType,
		Slug:        NewSlug(description),
	})
	require.NoError(t, err)
	return post
}

func slugs(posts []*model.PostView) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Slug)
	}
	return out
}

func TestGetFeed_NewestFirst(t *testing.T) {
	f := newFeedFixture(t)
	older := f.post(t, f.person, "job", "go developer")
	newer := f.post(t, f.organization, "job", "rust developer")

	posts, err := f.usecase.GetFeed(context.Background(), FeedFilter{}, Pagination{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{newer.Slug, older.Slug}, slugs(posts))
	assert.Equal(t, []string{"all"}, f.metrics.feeds)
}

func TestGetFeed_FilterComposition(t *testing.T) {
	f := newFeedFixture(t)
	goJob := f.post(t, f.person, "job", "senior go engineer")
	rustJob := f.post(t, f.person, "job", "rust engineer")
	goEvent := f.post(t, f.person, "event", "go meetup")
	f.post(t, f.person, "internship", "java intern")

	tests := []struct {
		name   string
		filter FeedFilter
		want   []string
	}{
		{name: "category only", filter: FeedFilter{Category: "job"}, want: []string{rustJob.Slug, goJob.Slug}},
		{name: "search only", filter: FeedFilter{Search: "go"}, want: []string{goEvent.Slug, goJob.Slug}},
		{name: "any term matches", filter: FeedFilter{Search: "rust  meetup"}, want: []string{goEvent.Slug, rustJob.Slug}},
		{name: "category and search", filter: FeedFilter{Category: "job", Search: "go"}, want: []string{goJob.Slug}},
		{name: "whitespace search is ignored", filter: FeedFilter{Category: "event", Search: "   "}, want: []string{goEvent.Slug}},
		{name: "search is case sensitive", filter: FeedFilter{Search: "Go"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := f.usecase.GetFeed(context.Background(), tt.filter, Pagination{}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, slugs(posts))
		})
	}
}

func TestGetFeed_Pagination(t *testing.T) {
	f := newFeedFixture(t)
	for range 3 {
		f.post(t, f.person, "job", "engineer")
	}

	posts, err := f.usecase.GetFeed(context.Background(), FeedFilter{}, Pagination{Offset: 1, Limit: 1}, nil)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	posts, err = f.usecase.GetFeed(context.Background(), FeedFilter{}, Pagination{Offset: 10, Limit: 5}, nil)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPaginationNormalize(t *testing.T) {
	tests := []struct {
		in   Pagination
		want Pagination
	}{
		{in: Pagination{}, want: Pagination{Offset: 0, Limit: DefaultFeedLimit}},
		{in: Pagination{Offset: -4, Limit: 5}, want: Pagination{Offset: 0, Limit: 5}},
		{in: Pagination{Offset: 3, Limit: 1000}, want: Pagination{Offset: 3, Limit: MaxFeedLimit}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.normalize())
	}
}

func TestGetFeed_LikeAnnotation(t *testing.T) {
	f := newFeedFixture(t)
	liked := f.post(t, f.organization, "job", "liked")
	f.post(t, f.organization, "job", "not liked")

	require.NoError(t, fakeLikeRepo{f.store}.Like(context.Background(), f.person.ID, liked.ID))
	// Another user's like must not leak into the annotation.
	require.NoError(t, fakeLikeRepo{f.store}.Like(context.Background(), f.organization.ID, liked.ID))
	queriesBefore := f.store.likeQueries

	userID := f.person.ID
	posts, err := f.usecase.GetFeed(context.Background(), FeedFilter{}, Pagination{}, &userID)
	require.NoError(t, err)

	require.Len(t, posts, 2)
	for _, p := range posts {
		assert.Equal(t, p.ID == liked.ID, p.Liked, p.Slug)
	}
	assert.Equal(t, queriesBefore+1, f.store.likeQueries)
}

func TestGetFeed_AnonymousSkipsLikes(t *testing.T) {
	f := newFeedFixture(t)
	post := f.post(t, f.organization, "job", "liked")
	require.NoError(t, fakeLikeRepo{f.store}.Like(context.Background(), f.person.ID, post.ID))

	posts, err := f.usecase.GetFeed(context.Background(), FeedFilter{}, Pagination{}, nil)
	require.NoError(t, err)

	require.Len(t, posts, 1)
	assert.False(t, posts[0].Liked)
	assert.Zero(t, f.store.likeQueries)
}

func TestGetOrganizationFeed(t *testing.T) {
	f := newFeedFixture(t)
	f.post(t, f.person, "job", "from a person")
	orgPost := f.post(t, f.organization, "job", "from an organization")

	deleted := f.post(t, f.organization, "job", "deleted")
	require.NoError(t, fakePostRepo{f.store}.SoftDeletePost(context.Background(), deleted.ID))

	userID := bson.NewObjectID()
	posts, err := f.usecase.GetOrganizationFeed(context.Background(), Pagination{}, &userID)
	require.NoError(t, err)

	assert.Equal(t, []string{orgPost.Slug}, slugs(posts))
	assert.Equal(t, []string{"organizations"}, f.metrics.feeds)
}
