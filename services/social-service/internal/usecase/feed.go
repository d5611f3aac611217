package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/repository"
)

const (
	DefaultFeedLimit int64 = 20
	MaxFeedLimit     int64 = 100
)

// FeedFilter narrows the feed. Search is split on whitespace and matches
// posts whose description contains any of the terms.
type FeedFilter struct {
	Category string
	Search   string
}

type Pagination struct {
	Offset int64
	Limit  int64
}

// FeedUsecase assembles the post feeds.
type FeedUsecase interface {
	// GetFeed returns active posts newest first. When requestingUserID is set,
	// posts that user liked carry Liked=true.
	GetFeed(ctx context.Context, filter FeedFilter, page Pagination, requestingUserID *bson.ObjectID) ([]*model.PostView, error)
	// GetOrganizationFeed returns active posts written by organization accounts.
	GetOrganizationFeed(ctx context.Context, page Pagination, requestingUserID *bson.ObjectID) ([]*model.PostView, error)
}

// FeedMetrics observes feed assembly latency.
type FeedMetrics interface {
	RecordFeedLatency(feed string, duration time.Duration)
}

type feedUsecase struct {
	postRepo repository.PostRepository
	likeRepo repository.LikeRepository
	metrics  FeedMetrics
}

func NewFeedUsecase(
	postRepo repository.PostRepository,
	likeRepo repository.LikeRepository,
	metrics FeedMetrics,
) FeedUsecase {
	return &feedUsecase{
		postRepo: postRepo,
		likeRepo: likeRepo,
		metrics:  metrics,
	}
}

func (u *feedUsecase) GetFeed(
	ctx context.Context,
	filter FeedFilter,
	page Pagination,
	requestingUserID *bson.ObjectID,
) ([]*model.PostView, error) {
	defer u.observe("all", time.Now())

	page = page.normalize()

	posts, err := u.postRepo.Feed(ctx, repository.FeedQuery{
		Category:    filter.Category,
		SearchTerms: strings.Fields(filter.Search),
		Offset:      page.Offset,
		Limit:       page.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query feed: %w", err)
	}

	if err := u.annotateLikes(ctx, requestingUserID, posts); err != nil {
		return nil, err
	}

	return posts, nil
}

func (u *feedUsecase) GetOrganizationFeed(
	ctx context.Context,
	page Pagination,
	requestingUserID *bson.ObjectID,
) ([]*model.PostView, error) {
	defer u.observe("organizations", time.Now())

	page = page.normalize()

	posts, err := u.postRepo.Feed(ctx, repository.FeedQuery{
		OrganizationsOnly: true,
		Offset:            page.Offset,
		Limit:             page.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query organization feed: %w", err)
	}

	if err := u.annotateLikes(ctx, requestingUserID, posts); err != nil {
		return nil, err
	}

	return posts, nil
}

// annotateLikes marks the posts the user liked using a single like query.
// Anonymous requests skip the query entirely.
func (u *feedUsecase) annotateLikes(ctx context.Context, userID *bson.ObjectID, posts []*model.PostView) error {
	if userID == nil || len(posts) == 0 {
		return nil
	}

	likes, err := u.likeRepo.ListLikesByUser(ctx, *userID)
	if err != nil {
		return fmt.Errorf("failed to load likes: %w", err)
	}

	liked := make(map[bson.ObjectID]struct{}, len(likes))
	for _, like := range likes {
		if like.UserID == *userID {
			liked[like.PostID] = struct{}{}
		}
	}

	for _, post := range posts {
		if _, ok := liked[post.ID]; ok {
			post.Liked = true
		}
	}

	return nil
}

func (u *feedUsecase) observe(feed string, start time.Time) {
	if u.metrics != nil {
		u.metrics.RecordFeedLatency(feed, time.Since(start))
	}
}

func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultFeedLimit
	}
	if p.Limit > MaxFeedLimit {
		p.Limit = MaxFeedLimit
	}
	return p
}
