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

type commentHandler struct {
	usecase   usecase.CommentUsecase
	validator *validation.Validator
}

type commentResponse struct {
	Status      int                `json:"status"`
	PostComment *model.PostComment `json:"postComment"`
	Message     string             `json:"message,omitempty"`
}

type commentsResponse struct {
	Status int `json:"status"`
	*usecase.CommentPage
}

func (h *commentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r.URL.Query(), "page")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "page must be an integer")
		return
	}

	query := payload.CommentsQuery{Page: page}
	if !validate(w, h.validator, &query) {
		return
	}

	comments, err := h.usecase.ListComments(r.Context(), chi.URLParam(r, "slug"), query.Page)
	if err != nil {
		h.writeError(w, r, err, "failed to list comments")
		return
	}

	writeJSON(w, http.StatusOK, commentsResponse{Status: http.StatusOK, CommentPage: comments})
}

func (h *commentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req payload.CommentRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	comment, err := h.usecase.CreateComment(r.Context(), userID, chi.URLParam(r, "slug"), req.Content)
	if err != nil {
		h.writeError(w, r, err, "failed to create comment")
		return
	}

	writeJSON(w, http.StatusCreated, commentResponse{
		Status:      http.StatusCreated,
		PostComment: comment,
		Message:     "Post Comment created successfully",
	})
}

func (h *commentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req payload.UpdateCommentRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	comment, err := h.usecase.UpdateComment(
		r.Context(),
		userID,
		chi.URLParam(r, "slug"),
		chi.URLParam(r, "commentID"),
		usecase.UpdateCommentParams{Content: req.Content},
	)
	if err != nil {
		h.writeError(w, r, err, "failed to update comment")
		return
	}

	writeJSON(w, http.StatusOK, commentResponse{
		Status:      http.StatusOK,
		PostComment: comment,
		Message:     "Post Comment updated successfully",
	})
}

func (h *commentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	comment, err := h.usecase.DeleteComment(r.Context(), userID, chi.URLParam(r, "slug"), chi.URLParam(r, "commentID"))
	if err != nil {
		h.writeError(w, r, err, "failed to delete comment")
		return
	}

	writeJSON(w, http.StatusOK, commentResponse{
		Status:      http.StatusOK,
		PostComment: comment,
		Message:     "Post Comment deleted successfully",
	})
}

func (h *commentHandler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, usecase.ErrPostNotFound):
		writeMessage(w, http.StatusNotFound, "Post not found")
	case errors.Is(err, usecase.ErrCommentNotFound):
		writeMessage(w, http.StatusNotFound, "Post Comment not found")
	case errors.Is(err, usecase.ErrNotCommentAuthor):
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, usecase.ErrEmptyCommentInput):
		writeMessage(w, http.StatusBadRequest, "comment must not be empty")
	case errors.Is(err, usecase.ErrNothingToUpdate):
		writeMessage(w, http.StatusBadRequest, "nothing to update")
	default:
		writeInternalError(w, r, err, msg)
	}
}
