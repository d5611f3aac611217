package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/event"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/repository"
)

var errDuplicateKey = mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}

// store is an in-memory document store shared by the fake repositories.
// Unique constraints mirror the Mongo indexes.
type store struct {
	mu            sync.Mutex
	users         map[bson.ObjectID]*model.User
	persons       map[bson.ObjectID]*model.Person
	organizations map[bson.ObjectID]*model.Organization
	tokens        []*model.Token
	posts         map[bson.ObjectID]*model.Post
	likes         []model.Like
	shares        []*model.Share
	comments      map[bson.ObjectID]*model.PostComment

	likeQueries            int
	clock                  time.Time
	beforeCreateUser       func()
	failCreateOrganization error
}

func newStore() *store {
	return &store{
		users:         map[bson.ObjectID]*model.User{},
		persons:       map[bson.ObjectID]*model.Person{},
		organizations: map[bson.ObjectID]*model.Organization{},
		posts:         map[bson.ObjectID]*model.Post{},
		comments:      map[bson.ObjectID]*model.PostComment{},
		clock:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *store) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

type fakeUserRepo struct{ s *store }

func (r fakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	if hook := r.s.takeBeforeCreateUser(); hook != nil {
		hook()
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return nil, errDuplicateKey
		}
		if user.IsOrganization() && existing.IsOrganization() && existing.Username == user.Username {
			return nil, errDuplicateKey
		}
	}

	cp := *user
	cp.ID = bson.NewObjectID()
	cp.CreatedAt = r.s.tick()
	r.s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *store) takeBeforeCreateUser() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	hook := s.beforeCreateUser
	s.beforeCreateUser = nil
	return hook
}

func (r fakeUserRepo) GetUser(_ context.Context, id bson.ObjectID) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r fakeUserRepo) GetUserByLogin(_ context.Context, login string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == login || u.Email == login })
}

func (r fakeUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r fakeUserRepo) UpdateUser(_ context.Context, id bson.ObjectID, params repository.UpdateUserParams) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if params.Verified != nil {
		u.Verified = *params.Verified
	}
	cp := *u
	return &cp, nil
}

func (r fakeUserRepo) DeleteUser(_ context.Context, id bson.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.s.users, id)
	return nil
}

type fakePersonRepo struct{ s *store }

func (r fakePersonRepo) CreatePerson(_ context.Context, person *model.Person) (*model.Person, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.persons {
		if existing.UserID == person.UserID {
			return nil, errDuplicateKey
		}
		if person.ProviderID != "" && existing.ProviderID == person.ProviderID {
			return nil, errDuplicateKey
		}
	}

	cp := *person
	cp.ID = bson.NewObjectID()
	r.s.persons[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r fakePersonRepo) GetPersonByProviderID(_ context.Context, providerID string) (*model.Person, error) {
	return r.find(func(p *model.Person) bool { return p.ProviderID == providerID })
}

func (r fakePersonRepo) GetPersonByUserID(_ context.Context, userID bson.ObjectID) (*model.Person, error) {
	return r.find(func(p *model.Person) bool { return p.UserID == userID })
}

func (r fakePersonRepo) find(match func(*model.Person) bool) (*model.Person, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.persons {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

type fakeOrganizationRepo struct{ s *store }

func (r fakeOrganizationRepo) CreateOrganization(_ context.Context, org *model.Organization) (*model.Organization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.failCreateOrganization != nil {
		return nil, r.s.failCreateOrganization
	}

	cp := *org
	cp.ID = bson.NewObjectID()
	r.s.organizations[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r fakeOrganizationRepo) GetOrganizationByUserID(_ context.Context, userID bson.ObjectID) (*model.Organization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, o := range r.s.organizations {
		if o.UserID == userID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

type fakeTokenRepo struct{ s *store }

func (r fakeTokenRepo) CreateToken(_ context.Context, token *model.Token) (*model.Token, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *token
	cp.ID = bson.NewObjectID()
	if cp.Status == "" {
		cp.Status = model.TokenStatusActive
	}
	r.s.tokens = append(r.s.tokens, &cp)
	return &cp, nil
}

func (r fakeTokenRepo) SignOut(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := false
	for _, t := range r.s.tokens {
		if t.Token == token && t.Status == model.TokenStatusActive {
			now := r.s.tick()
			t.Status = model.TokenStatusSignedOut
			t.SignoutAt = &now
			matched = true
		}
	}
	if !matched {
		return mongo.ErrNoDocuments
	}
	return nil
}

type fakePostRepo struct{ s *store }

func (r fakePostRepo) CreatePost(_ context.Context, post *model.Post) (*model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *post
	cp.ID = bson.NewObjectID()
	cp.CreatedAt = r.s.tick()
	if cp.Status == "" {
		cp.Status = model.PostStatusActive
	}
	r.s.posts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r fakePostRepo) GetPostBySlug(_ context.Context, slug string) (*model.PostView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.posts {
		if p.Slug == slug && p.Status == model.PostStatusActive {
			return r.view(p), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r fakePostRepo) ListPosts(_ context.Context) ([]*model.PostView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var views []*model.PostView
	for _, p := range r.sorted() {
		if p.Status == model.PostStatusActive {
			views = append(views, r.view(p))
		}
	}
	return views, nil
}

func (r fakePostRepo) UpdatePost(_ context.Context, id bson.ObjectID, params repository.UpdatePostParams) (*model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok || p.Status != model.PostStatusActive {
		return nil, mongo.ErrNoDocuments
	}
	if params.Title != nil {
		p.Title = *params.Title
	}
	if params.Description != nil {
		p.Description = *params.Description
	}
	if params.Tags != nil {
		p.Tags = *params.Tags
	}
	if params.Image != nil {
		p.Image = *params.Image
	}
	if params.Type != nil {
		p.Type = *params.Type
	}
	cp := *p
	return &cp, nil
}

func (r fakePostRepo) SoftDeletePost(_ context.Context, id bson.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok || p.Status != model.PostStatusActive {
		return mongo.ErrNoDocuments
	}
	p.Status = model.PostStatusDeleted
	return nil
}

func (r fakePostRepo) IncrementShares(_ context.Context, id bson.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	p.SharesCount++
	return nil
}

// Feed mirrors the $match, $sort, $skip and $limit stages of the Mongo pipeline.
func (r fakePostRepo) Feed(_ context.Context, query repository.FeedQuery) ([]*model.PostView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []*model.Post
	for _, p := range r.sorted() {
		if p.Status != model.PostStatusActive {
			continue
		}
		if query.Category != "" && !strings.Contains(p.Type, query.Category) {
			continue
		}
		if len(query.SearchTerms) > 0 && !containsAny(p.Description, query.SearchTerms) {
			continue
		}
		if query.OrganizationsOnly {
			author, ok := r.s.users[p.AuthorID]
			if !ok || !author.IsOrganization() {
				continue
			}
		}
		matched = append(matched, p)
	}

	views := []*model.PostView{}
	for i := query.Offset; i < int64(len(matched)) && i < query.Offset+query.Limit; i++ {
		views = append(views, r.view(matched[i]))
	}
	return views, nil
}

func (r fakePostRepo) sorted() []*model.Post {
	posts := make([]*model.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

func (r fakePostRepo) view(p *model.Post) *model.PostView {
	view := &model.PostView{Post: *p}
	if u, ok := r.s.users[p.AuthorID]; ok {
		view.Author = &model.Author{Username: u.Username, Picture: u.Picture}
	}
	return view
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

type fakeLikeRepo struct{ s *store }

func (r fakeLikeRepo) ListLikesByUser(_ context.Context, userID bson.ObjectID) ([]model.Like, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.likeQueries++
	var likes []model.Like
	for _, l := range r.s.likes {
		if l.UserID == userID {
			likes = append(likes, l)
		}
	}
	return likes, nil
}

func (r fakeLikeRepo) Like(_ context.Context, userID, postID bson.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, l := range r.s.likes {
		if l.UserID == userID && l.PostID == postID {
			return nil
		}
	}
	r.s.likes = append(r.s.likes, model.Like{ID: bson.NewObjectID(), UserID: userID, PostID: postID})
	return nil
}

func (r fakeLikeRepo) Unlike(_ context.Context, userID, postID bson.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.likes[:0]
	for _, l := range r.s.likes {
		if l.UserID != userID || l.PostID != postID {
			kept = append(kept, l)
		}
	}
	r.s.likes = kept
	return nil
}

type fakeShareRepo struct{ s *store }

func (r fakeShareRepo) CreateShare(_ context.Context, share *model.Share) (*model.Share, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *share
	cp.ID = bson.NewObjectID()
	r.s.shares = append(r.s.shares, &cp)
	return &cp, nil
}

type fakeCommentRepo struct{ s *store }

func (r fakeCommentRepo) CreateComment(_ context.Context, comment *model.PostComment) (*model.PostComment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *comment
	cp.ID = bson.NewObjectID()
	cp.CreatedAt = r.s.tick()
	r.s.comments[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r fakeCommentRepo) GetComment(_ context.Context, id bson.ObjectID) (*model.PostComment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.comments[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *c
	return &cp, nil
}

func (r fakeCommentRepo) UpdateComment(_ context.Context, id bson.ObjectID, params repository.UpdateCommentParams) (*model.PostComment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.comments[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if params.Content != nil {
		c.Content = *params.Content
	}
	cp := *c
	return &cp, nil
}

func (r fakeCommentRepo) DeleteComment(_ context.Context, id bson.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.s.comments, id)
	return nil
}

func (r fakeCommentRepo) ListComments(_ context.Context, postID bson.ObjectID, params repository.ListCommentsParams) ([]*model.PostComment, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []*model.PostComment
	for _, c := range r.s.comments {
		if c.PostID == postID && c.Status != model.CommentStatusDeleted {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })

	page := []*model.PostComment{}
	for i := params.Offset; i < int64(len(matched)) && i < params.Offset+params.Limit; i++ {
		cp := *matched[i]
		page = append(page, &cp)
	}
	return page, int64(len(matched)), nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fakeHasher) Verify(password, encodedHash string) (bool, error) {
	return encodedHash == "hashed:"+password, nil
}

type fakeTokenIssuer struct {
	mu sync.Mutex
	n  int
}

func (f *fakeTokenIssuer) IssueToken(subjectID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return fmt.Sprintf("token-%s-%d", subjectID, f.n), nil
}

type sentMail struct {
	To, Name, Token string
}

// fakeMailer records mails. When block is set, every send waits until it is closed.
type fakeMailer struct {
	mu    sync.Mutex
	sent  []sentMail
	err   error
	block chan struct{}
}

func (f *fakeMailer) SendVerification(_ context.Context, to, name, token string) error {
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: to, Name: name, Token: token})
	return f.err
}

type publishedEvent struct {
	Name    string
	Payload event.IndexPayload
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(name string, payload event.IndexPayload) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Name: name, Payload: payload})
}

func (p *recordingPublisher) all() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type passthroughSanitizer struct{}

func (passthroughSanitizer) PlainText(input string) string { return strings.TrimSpace(input) }
func (passthroughSanitizer) RichText(input string) string  { return strings.TrimSpace(input) }

func (passthroughSanitizer) Tags(tags []string) []string {
	out := []string{}
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (f *fakeMailer) delivered() []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMail(nil), f.sent...)
}
