package handler

import (
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/payload"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/usecase"
	"github.com/vasapolrittideah/jobfeed-api/shared/validation"
)

type feedHandler struct {
	usecase   usecase.FeedUsecase
	validator *validation.Validator
}

type feedResponse struct {
	Status int               `json:"status"`
	Feed   []*model.PostView `json:"feed"`
}

func (h *feedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	query, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	posts, err := h.usecase.GetFeed(
		r.Context(),
		usecase.FeedFilter{Category: query.Category, Search: query.Search},
		usecase.Pagination{Offset: query.Offset, Limit: query.Limit},
		requester(r),
	)
	if err != nil {
		writeInternalError(w, r, err, "failed to get feed")
		return
	}

	writeJSON(w, http.StatusOK, feedResponse{Status: http.StatusOK, Feed: posts})
}

func (h *feedHandler) GetOrganizationFeed(w http.ResponseWriter, r *http.Request) {
	query, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	posts, err := h.usecase.GetOrganizationFeed(
		r.Context(),
		usecase.Pagination{Offset: query.Offset, Limit: query.Limit},
		requester(r),
	)
	if err != nil {
		writeInternalError(w, r, err, "failed to get organization feed")
		return
	}

	writeJSON(w, http.StatusOK, feedResponse{Status: http.StatusOK, Feed: posts})
}

func (h *feedHandler) parseQuery(w http.ResponseWriter, r *http.Request) (payload.FeedQuery, bool) {
	values := r.URL.Query()

	offset, err := queryInt(values, "offset")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "offset must be an integer")
		return payload.FeedQuery{}, false
	}

	limit, err := queryInt(values, "limit")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "limit must be an integer")
		return payload.FeedQuery{}, false
	}

	query := payload.FeedQuery{
		Offset:   offset,
		Limit:    limit,
		Search:   values.Get("search"),
		Category: values.Get("category"),
	}

	return query, validate(w, h.validator, &query)
}

func requester(r *http.Request) *bson.ObjectID {
	id, ok := currentUserID(r)
	if !ok {
		return nil
	}

	return &id
}
