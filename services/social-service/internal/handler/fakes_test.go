package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/usecase"
	"github.com/vasapolrittideah/jobfeed-api/shared/auth"
	"github.com/vasapolrittideah/jobfeed-api/shared/metrics"
	"github.com/vasapolrittideah/jobfeed-api/shared/provider"
	"github.com/vasapolrittideah/jobfeed-api/shared/validation"
)

const testSecret = "handler-test-secret-32-bytes-long!"

type stubAuth struct {
	resolve    func(ctx context.Context, profile usecase.ProviderProfile, fallbackURL string) (*usecase.SocialLoginResult, error)
	signup     func(ctx context.Context, params usecase.SignupParams) (*usecase.SignupResult, error)
	login      func(ctx context.Context, params usecase.LoginParams) (*usecase.LoginResult, error)
	verify     func(ctx context.Context, userID string) (usecase.VerificationOutcome, error)
	logout     func(ctx context.Context, token string) error
	current    func(ctx context.Context, userID string) (*usecase.Account, error)
	unverified map[string]bool
}

func (s *stubAuth) ResolveSocialIdentity(ctx context.Context, profile usecase.ProviderProfile, fallbackURL string) (*usecase.SocialLoginResult, error) {
	return s.resolve(ctx, profile, fallbackURL)
}

func (s *stubAuth) SignupOrganization(ctx context.Context, params usecase.SignupParams) (*usecase.SignupResult, error) {
	return s.signup(ctx, params)
}

func (s *stubAuth) Login(ctx context.Context, params usecase.LoginParams) (*usecase.LoginResult, error) {
	return s.login(ctx, params)
}

func (s *stubAuth) VerifyAccount(ctx context.Context, userID string) (usecase.VerificationOutcome, error) {
	return s.verify(ctx, userID)
}

func (s *stubAuth) Logout(ctx context.Context, token string) error {
	return s.logout(ctx, token)
}

func (s *stubAuth) CurrentUser(ctx context.Context, userID string) (*usecase.Account, error) {
	return s.current(ctx, userID)
}

func (s *stubAuth) IsVerified(_ context.Context, userID string) (bool, error) {
	return !s.unverified[userID], nil
}

type feedCall struct {
	filter    usecase.FeedFilter
	page      usecase.Pagination
	requester *bson.ObjectID
}

type stubFeed struct {
	calls []feedCall
	posts []*model.PostView
	err   error
}

func (s *stubFeed) GetFeed(_ context.Context, filter usecase.FeedFilter, page usecase.Pagination, requester *bson.ObjectID) ([]*model.PostView, error) {
	s.calls = append(s.calls, feedCall{filter: filter, page: page, requester: requester})
	return s.posts, s.err
}

func (s *stubFeed) GetOrganizationFeed(_ context.Context, page usecase.Pagination, requester *bson.ObjectID) ([]*model.PostView, error) {
	s.calls = append(s.calls, feedCall{page: page, requester: requester})
	return s.posts, s.err
}

// stubPosts embeds the interface so tests only implement what they call.
type stubPosts struct {
	usecase.PostUsecase
	create func(ctx context.Context, authorID bson.ObjectID, params usecase.CreatePostParams) (*model.Post, error)
	update func(ctx context.Context, userID bson.ObjectID, slug string, params usecase.UpdatePostParams) (*model.Post, error)
	get    func(ctx context.Context, slug string) (*model.PostView, error)
	like   func(ctx context.Context, userID bson.ObjectID, slug string) error
}

func (s *stubPosts) CreatePost(ctx context.Context, authorID bson.ObjectID, params usecase.CreatePostParams) (*model.Post, error) {
	return s.create(ctx, authorID, params)
}

func (s *stubPosts) UpdatePost(ctx context.Context, userID bson.ObjectID, slug string, params usecase.UpdatePostParams) (*model.Post, error) {
	return s.update(ctx, userID, slug, params)
}

func (s *stubPosts) GetPost(ctx context.Context, slug string) (*model.PostView, error) {
	return s.get(ctx, slug)
}

func (s *stubPosts) LikePost(ctx context.Context, userID bson.ObjectID, slug string) error {
	return s.like(ctx, userID, slug)
}

type stubComments struct {
	usecase.CommentUsecase
	list   func(ctx context.Context, slug string, page int64) (*usecase.CommentPage, error)
	delete func(ctx context.Context, userID bson.ObjectID, slug, commentID string) (*model.PostComment, error)
}

func (s *stubComments) ListComments(ctx context.Context, slug string, page int64) (*usecase.CommentPage, error) {
	return s.list(ctx, slug, page)
}

func (s *stubComments) DeleteComment(ctx context.Context, userID bson.ObjectID, slug, commentID string) (*model.PostComment, error) {
	return s.delete(ctx, userID, slug, commentID)
}

type stubOAuth struct {
	profile *provider.RawProfile
	err     error
	codes   []string
}

func (s *stubOAuth) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (s *stubOAuth) Exchange(_ context.Context, code string) (*provider.RawProfile, error) {
	s.codes = append(s.codes, code)
	return s.profile, s.err
}

type testServer struct {
	handler  http.Handler
	tokens   *auth.TokenIssuer
	auth     *stubAuth
	feed     *stubFeed
	posts    *stubPosts
	comments *stubComments
	oauth    *stubOAuth
	registry *prometheus.Registry
}

func newTestServer(t *testing.T, configure func(*RouterDeps)) *testServer {
	t.Helper()

	v, err := validation.New()
	require.NoError(t, err)

	logger := zerolog.Nop()
	registry := prometheus.NewRegistry()

	s := &testServer{
		tokens:   auth.NewTokenIssuer(testSecret, "jobfeed-api", time.Hour),
		auth:     &stubAuth{unverified: map[string]bool{}},
		feed:     &stubFeed{posts: []*model.PostView{}},
		posts:    &stubPosts{},
		comments: &stubComments{},
		oauth:    &stubOAuth{},
		registry: registry,
	}

	deps := RouterDeps{
		Logger:      &logger,
		Validator:   v,
		Tokens:      s.tokens,
		Auth:        s.auth,
		Feed:        s.feed,
		Posts:       s.posts,
		Comments:    s.comments,
		OAuth:       s.oauth,
		FrontendURL: "https://app.example.com",
		Metrics:     metrics.NewCollector(registry),
		Gatherer:    registry,
	}
	if configure != nil {
		configure(&deps)
	}

	s.handler = NewRouter(deps)
	return s
}

func (s *testServer) token(t *testing.T, userID string) string {
	t.Helper()

	token, err := s.tokens.IssueToken(userID)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
