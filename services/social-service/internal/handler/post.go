package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/payload"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/usecase"
	"github.com/vasapolrittideah/jobfeed-api/shared/validation"
)

type postHandler struct {
	usecase   usecase.PostUsecase
	validator *validation.Validator
}

type postResponse struct {
	Status  int    `json:"status"`
	Post    any    `json:"post"`
	Message string `json:"message,omitempty"`
}

type postsResponse struct {
	Status int               `json:"status"`
	Posts  []*model.PostView `json:"posts"`
}

type shareResponse struct {
	Status  int          `json:"status"`
	Message string       `json:"message"`
	Share   *model.Share `json:"share"`
}

func (h *postHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req payload.CreatePostRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	post, err := h.usecase.CreatePost(r.Context(), userID, usecase.CreatePostParams{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Image:       req.Image,
		Type:        req.Type,
	})
	if err != nil {
		h.writeError(w, r, err, "failed to create post")
		return
	}

	writeJSON(w, http.StatusCreated, postResponse{
		Status:  http.StatusCreated,
		Post:    post,
		Message: "Post created successfully",
	})
}

func (h *postHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.usecase.ListPosts(r.Context())
	if err != nil {
		writeInternalError(w, r, err, "failed to list posts")
		return
	}

	writeJSON(w, http.StatusOK, postsResponse{Status: http.StatusOK, Posts: posts})
}

func (h *postHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.usecase.GetPost(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err, "failed to get post")
		return
	}

	writeJSON(w, http.StatusOK, postResponse{Status: http.StatusOK, Post: post})
}

func (h *postHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req payload.UpdatePostRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	post, err := h.usecase.UpdatePost(r.Context(), userID, chi.URLParam(r, "slug"), usecase.UpdatePostParams{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Image:       req.Image,
		Type:        req.Type,
	})
	if err != nil {
		h.writeError(w, r, err, "failed to update post")
		return
	}

	writeJSON(w, http.StatusOK, postResponse{
		Status:  http.StatusOK,
		Post:    post,
		Message: "Post updated successfully",
	})
}

func (h *postHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	post, err := h.usecase.DeletePost(r.Context(), userID, chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err, "failed to delete post")
		return
	}

	writeJSON(w, http.StatusOK, postResponse{
		Status:  http.StatusOK,
		Post:    post,
		Message: "Post deleted successfully",
	})
}

func (h *postHandler) SharePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	share, err := h.usecase.SharePost(r.Context(), userID, chi.URLParam(r, "slug"), chi.URLParam(r, "platform"))
	if err != nil {
		h.writeError(w, r, err, "failed to share post")
		return
	}

	writeJSON(w, http.StatusOK, shareResponse{
		Status:  http.StatusOK,
		Message: "Post shared successfully",
		Share:   share,
	})
}

func (h *postHandler) LikePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.usecase.LikePost(r.Context(), userID, chi.URLParam(r, "slug")); err != nil {
		h.writeError(w, r, err, "failed to like post")
		return
	}

	writeMessage(w, http.StatusOK, "Post liked")
}

func (h *postHandler) UnlikePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.usecase.UnlikePost(r.Context(), userID, chi.URLParam(r, "slug")); err != nil {
		h.writeError(w, r, err, "failed to unlike post")
		return
	}

	writeMessage(w, http.StatusOK, "Post unliked")
}

func (h *postHandler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, usecase.ErrPostNotFound):
		writeMessage(w, http.StatusNotFound, "Post not found")
	case errors.Is(err, usecase.ErrNotPostAuthor):
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, usecase.ErrNothingToUpdate):
		writeMessage(w, http.StatusBadRequest, "nothing to update")
	case errors.Is(err, usecase.ErrEmptyTitle):
		writeMessage(w, http.StatusBadRequest, "title must not be empty")
	default:
		writeInternalError(w, r, err, msg)
	}
}
