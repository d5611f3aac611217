package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/repository"
)

// CommentPageSize is the number of comments per page.
const CommentPageSize int64 = 10

type CommentUsecase interface {
	CreateComment(ctx context.Context, userID bson.ObjectID, slug, content string) (*model.PostComment, error)
	UpdateComment(ctx context.Context, userID bson.ObjectID, slug, commentID string, params UpdateCommentParams) (*model.PostComment, error)
	DeleteComment(ctx context.Context, userID bson.ObjectID, slug, commentID string) (*model.PostComment, error)
	ListComments(ctx context.Context, slug string, page int64) (*CommentPage, error)
}

type UpdateCommentParams struct {
	Content *string
}

type CommentPage struct {
	Comments []*model.PostComment `json:"postComments"`
	Total    int64                `json:"total"`
	Page     int64                `json:"page"`
	Pages    int64                `json:"pages"`
	Limit    int64                `json:"limit"`
}

var (
	ErrCommentNotFound   = errors.New("comment not found")
	ErrNotCommentAuthor  = errors.New("user is not the author of the comment")
	ErrEmptyCommentInput = errors.New("comment is empty after sanitizing")
)

type commentUsecase struct {
	commentRepo repository.CommentRepository
	posts       PostUsecase
	sanitizer   ContentSanitizer
}

func NewCommentUsecase(
	commentRepo repository.CommentRepository,
	posts PostUsecase,
	sanitizer ContentSanitizer,
) CommentUsecase {
	return &commentUsecase{
		commentRepo: commentRepo,
		posts:       posts,
		sanitizer:   sanitizer,
	}
}

func (u *commentUsecase) CreateComment(
	ctx context.Context,
	userID bson.ObjectID,
	slug, content string,
) (*model.PostComment, error) {
	post, err := u.posts.GetPost(ctx, slug)
	if err != nil {
		return nil, err
	}

	content = u.sanitizer.RichText(content)
	if content == "" {
		return nil, ErrEmptyCommentInput
	}

	comment, err := u.commentRepo.CreateComment(ctx, &model.PostComment{
		PostID:   post.ID,
		AuthorID: userID,
		Content:  content,
		Status:   model.CommentStatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return comment, nil
}

func (u *commentUsecase) UpdateComment(
	ctx context.Context,
	userID bson.ObjectID,
	slug, commentID string,
	params UpdateCommentParams,
) (*model.PostComment, error) {
	comment, err := u.authoredComment(ctx, userID, slug, commentID)
	if err != nil {
		return nil, err
	}

	if params.Content == nil {
		return nil, ErrNothingToUpdate
	}

	content := u.sanitizer.RichText(*params.Content)
	if content == "" {
		return nil, ErrEmptyCommentInput
	}

	updated, err := u.commentRepo.UpdateComment(ctx, comment.ID, repository.UpdateCommentParams{Content: &content})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCommentNotFound
		}

		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return updated, nil
}

func (u *commentUsecase) DeleteComment(
	ctx context.Context,
	userID bson.ObjectID,
	slug, commentID string,
) (*model.PostComment, error) {
	comment, err := u.authoredComment(ctx, userID, slug, commentID)
	if err != nil {
		return nil, err
	}

	if err := u.commentRepo.DeleteComment(ctx, comment.ID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCommentNotFound
		}

		return nil, fmt.Errorf("failed to delete comment: %w", err)
	}

	return comment, nil
}

// ListComments returns the given 1-based page of the post's comments, oldest first.
func (u *commentUsecase) ListComments(ctx context.Context, slug string, page int64) (*CommentPage, error) {
	post, err := u.posts.GetPost(ctx, slug)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}

	comments, total, err := u.commentRepo.ListComments(ctx, post.ID, repository.ListCommentsParams{
		Limit:  CommentPageSize,
		Offset: (page - 1) * CommentPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return &CommentPage{
		Comments: comments,
		Total:    total,
		Page:     page,
		Pages:    (total + CommentPageSize - 1) / CommentPageSize,
		Limit:    CommentPageSize,
	}, nil
}

// authoredComment loads a comment of the post identified by slug and checks that userID wrote it.
func (u *commentUsecase) authoredComment(
	ctx context.Context,
	userID bson.ObjectID,
	slug, commentID string,
) (*model.PostComment, error) {
	post, err := u.posts.GetPost(ctx, slug)
	if err != nil {
		return nil, err
	}

	id, err := bson.ObjectIDFromHex(commentID)
	if err != nil {
		return nil, ErrCommentNotFound
	}

	comment, err := u.commentRepo.GetComment(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCommentNotFound
		}

		return nil, fmt.Errorf("failed to load comment: %w", err)
	}

	if comment.PostID != post.ID || comment.Status == model.CommentStatusDeleted {
		return nil, ErrCommentNotFound
	}

	if comment.AuthorID != userID {
		return nil, ErrNotCommentAuthor
	}

	return comment, nil
}
