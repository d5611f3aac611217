package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/event"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/repository"
)

// PostUsecase manages posts and their likes and shares.
type PostUsecase interface {
	CreatePost(ctx context.Context, authorID bson.ObjectID, params CreatePostParams) (*model.Post, error)
	GetPost(ctx context.Context, slug string) (*model.PostView, error)
	ListPosts(ctx context.Context) ([]*model.PostView, error)
	UpdatePost(ctx context.Context, userID bson.ObjectID, slug string, params UpdatePostParams) (*model.Post, error)
	DeletePost(ctx context.Context, userID bson.ObjectID, slug string) (*model.PostView, error)
	SharePost(ctx context.Context, userID bson.ObjectID, slug, platform string) (*model.Share, error)
	LikePost(ctx context.Context, userID bson.ObjectID, slug string) error
	UnlikePost(ctx context.Context, userID bson.ObjectID, slug string) error
}

// ContentSanitizer cleans user supplied text before it is stored.
type ContentSanitizer interface {
	PlainText(input string) string
	RichText(input string) string
	Tags(tags []string) []string
}

type CreatePostParams struct {
	Title       string
	Description string
	Tags        []string
	Image       string
	Type        string
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

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrNotPostAuthor   = errors.New("user is not the author of the post")
	ErrNothingToUpdate = errors.New("nothing to update")
	ErrEmptyTitle      = errors.New("post title is empty after sanitizing")
)

const postResource = "post"

type postUsecase struct {
	postRepo  repository.PostRepository
	likeRepo  repository.LikeRepository
	shareRepo repository.ShareRepository
	sanitizer ContentSanitizer
	events    event.Publisher
}

func NewPostUsecase(
	postRepo repository.PostRepository,
	likeRepo repository.LikeRepository,
	shareRepo repository.ShareRepository,
	sanitizer ContentSanitizer,
	events event.Publisher,
) PostUsecase {
	return &postUsecase{
		postRepo:  postRepo,
		likeRepo:  likeRepo,
		shareRepo: shareRepo,
		sanitizer: sanitizer,
		events:    events,
	}
}

func (u *postUsecase) CreatePost(
	ctx context.Context,
	authorID bson.ObjectID,
	params CreatePostParams,
) (*model.Post, error) {
	title := u.sanitizer.PlainText(params.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	post, err := u.postRepo.CreatePost(ctx, &model.Post{
		AuthorID:    authorID,
		Title:       title,
		Description: u.sanitizer.RichText(params.Description),
		Tags:        u.sanitizer.Tags(params.Tags),
		Image:       strings.TrimSpace(params.Image),
		Slug:        NewSlug(title),
		Type:        u.sanitizer.PlainText(params.Type),
		Status:      model.PostStatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	u.events.Publish(event.CreateIndex, postIndexPayload(post))

	return post, nil
}

func (u *postUsecase) GetPost(ctx context.Context, slug string) (*model.PostView, error) {
	post, err := u.postRepo.GetPostBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}

		return nil, fmt.Errorf("failed to load post: %w", err)
	}

	return post, nil
}

func (u *postUsecase) ListPosts(ctx context.Context) ([]*model.PostView, error) {
	posts, err := u.postRepo.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}

func (u *postUsecase) UpdatePost(
	ctx context.Context,
	userID bson.ObjectID,
	slug string,
	params UpdatePostParams,
) (*model.Post, error) {
	post, err := u.authoredPost(ctx, userID, slug)
	if err != nil {
		return nil, err
	}

	update := repository.UpdatePostParams{}
	if params.Title != nil {
		title := u.sanitizer.PlainText(*params.Title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
		update.Title = &title
	}
	if params.Description != nil {
		description := u.sanitizer.RichText(*params.Description)
		update.Description = &description
	}
	if params.Tags != nil {
		tags := u.sanitizer.Tags(*params.Tags)
		update.Tags = &tags
	}
	if params.Image != nil {
		image := strings.TrimSpace(*params.Image)
		update.Image = &image
	}
	if params.Type != nil {
		postType := u.sanitizer.PlainText(*params.Type)
		update.Type = &postType
	}

	if update == (repository.UpdatePostParams{}) {
		return nil, ErrNothingToUpdate
	}

	updated, err := u.postRepo.UpdatePost(ctx, post.ID, update)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}

		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	u.events.Publish(event.UpdateIndex, postIndexPayload(updated))

	return updated, nil
}

func (u *postUsecase) DeletePost(ctx context.Context, userID bson.ObjectID, slug string) (*model.PostView, error) {
	post, err := u.authoredPost(ctx, userID, slug)
	if err != nil {
		return nil, err
	}

	if err := u.postRepo.SoftDeletePost(ctx, post.ID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}

		return nil, fmt.Errorf("failed to delete post: %w", err)
	}

	post.Status = model.PostStatusDeleted

	u.events.Publish(event.DeleteIndex, event.IndexPayload{
		ObjectID: post.Slug,
		Resource: postResource,
	})

	return post, nil
}

func (u *postUsecase) SharePost(
	ctx context.Context,
	userID bson.ObjectID,
	slug, platform string,
) (*model.Share, error) {
	post, err := u.GetPost(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := u.postRepo.IncrementShares(ctx, post.ID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}

		return nil, fmt.Errorf("failed to count share: %w", err)
	}

	postID := post.ID
	share, err := u.shareRepo.CreateShare(ctx, &model.Share{
		Plateforme: platform,
		UserID:     userID,
		PostID:     &postID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record share: %w", err)
	}

	return share, nil
}

func (u *postUsecase) LikePost(ctx context.Context, userID bson.ObjectID, slug string) error {
	post, err := u.GetPost(ctx, slug)
	if err != nil {
		return err
	}

	if err := u.likeRepo.Like(ctx, userID, post.ID); err != nil {
		return fmt.Errorf("failed to like post: %w", err)
	}

	return nil
}

func (u *postUsecase) UnlikePost(ctx context.Context, userID bson.ObjectID, slug string) error {
	post, err := u.GetPost(ctx, slug)
	if err != nil {
		return err
	}

	if err := u.likeRepo.Unlike(ctx, userID, post.ID); err != nil {
		return fmt.Errorf("failed to unlike post: %w", err)
	}

	return nil
}

func (u *postUsecase) authoredPost(ctx context.Context, userID bson.ObjectID, slug string) (*model.PostView, error) {
	post, err := u.GetPost(ctx, slug)
	if err != nil {
		return nil, err
	}

	if post.AuthorID != userID {
		return nil, ErrNotPostAuthor
	}

	return post, nil
}

func postIndexPayload(post *model.Post) event.IndexPayload {
	return event.IndexPayload{
		Title:    post.Title,
		ObjectID: post.Slug,
		Resource: postResource,
		Image:    post.Image,
		Keywords: strings.Join(post.Tags, " "),
	}
}

const maxSlugBase = 60

// NewSlug derives a URL friendly slug from title with a random suffix.
func NewSlug(title string) string {
	var b strings.Builder
	dash := false

	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= maxSlugBase {
			break
		}
	}

	base := strings.Trim(b.String(), "-")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if base == "" {
		return suffix
	}

	return base + "-" + suffix
}
