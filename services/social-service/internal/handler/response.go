package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/hlog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/jobfeed-api/shared/interceptor"
	"github.com/vasapolrittideah/jobfeed-api/shared/validation"
)

const maxBodyBytes = 1 << 20

const (
	msgSomethingWentWrong = "something went wrong"
	msgUnauthorized       = "You are not authorized to perform this action"
	msgInvalidBody        = "invalid request body"
)

var errInvalidQuery = errors.New("invalid query parameter")

type errorResponse struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Status: status, Message: message})
}

// writeInternalError logs err against the request and hides it from the client.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	hlog.FromRequest(r).Error().Err(err).Msg(msg)
	writeMessage(w, http.StatusInternalServerError, msgSomethingWentWrong)
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// On failure the 400 response has already been written.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validation.Validator, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}

	return validate(w, v, dst)
}

func validate(w http.ResponseWriter, v *validation.Validator, dst any) bool {
	err := v.Validate(dst)
	if err == nil {
		return true
	}

	var validationErr *validation.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Status:  http.StatusBadRequest,
			Message: "validation failed",
			Errors:  validationErr.Fields,
		})
		return false
	}

	writeMessage(w, http.StatusBadRequest, err.Error())
	return false
}

// queryInt parses an optional integer query parameter.
func queryInt(values url.Values, key string) (int64, error) {
	raw := values.Get(key)
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errInvalidQuery
	}

	return n, nil
}

// currentUserID returns the authenticated user id, if any.
func currentUserID(r *http.Request) (bson.ObjectID, bool) {
	claims, ok := interceptor.ClaimsFromContext(r.Context())
	if !ok {
		return bson.ObjectID{}, false
	}

	id, err := bson.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return bson.ObjectID{}, false
	}

	return id, true
}

// requireUserID is currentUserID for routes behind RequireAuth.
func requireUserID(w http.ResponseWriter, r *http.Request) (bson.ObjectID, bool) {
	id, ok := currentUserID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
	}

	return id, ok
}
