package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/payload"
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/usecase"
	"github.com/vasapolrittideah/jobfeed-api/shared/interceptor"
	"github.com/vasapolrittideah/jobfeed-api/shared/provider"
	"github.com/vasapolrittideah/jobfeed-api/shared/validation"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

const (
	msgInvalidCredentials = "The credentials you provided are incorrect"
	msgCheckEmail         = "Check your email for account verification"
	msgAlreadyVerified    = "Your account has already been verified"
	msgVerified           = "Your account has been verified successfully"
)

// OAuthProvider is the social sign-in provider used by the Google routes.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*provider.RawProfile, error)
}

// AuthMetrics counts authentication outcomes per flow.
type AuthMetrics interface {
	RecordAuthOutcome(flow, outcome string)
}

type authHandler struct {
	usecase     usecase.AuthUsecase
	oauth       OAuthProvider
	tokens      interceptor.TokenParser
	validator   *validation.Validator
	metrics     AuthMetrics
	frontendURL string
}

func (h *authHandler) record(flow, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordAuthOutcome(flow, outcome)
	}
}

// GoogleRedirect sends the browser to the provider consent screen. The
// frontend path to return to travels in the state parameter next to a nonce
// that is also kept in a cookie.
func (h *authHandler) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	nonce := uuid.NewString()
	fallback := r.URL.Query().Get("fallback")
	state := nonce + "." + base64.RawURLEncoding.EncodeToString([]byte(fallback))

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    nonce,
		Path:     "/auth/google",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusFound)
}

func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	fallback, ok := h.checkState(r)
	if !ok {
		h.record("social", "invalid_state")
		writeMessage(w, http.StatusBadRequest, "invalid oauth state")
		return
	}

	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/auth/google", MaxAge: -1})

	raw, err := h.oauth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.record("social", "provider_error")
		if errors.Is(err, provider.ErrMissingAuthCode) {
			writeMessage(w, http.StatusBadRequest, "authorization code is required")
			return
		}

		hlog.FromRequest(r).Warn().Err(err).Msg("failed to exchange google authorization code")
		writeMessage(w, http.StatusUnauthorized, "failed to sign in with google")
		return
	}

	result, err := h.usecase.ResolveSocialIdentity(r.Context(), usecase.FromProvider(*raw), fallback)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidProfile):
			h.record("social", "invalid_profile")
			writeMessage(w, http.StatusBadRequest, "your google account did not share an email address")
		case errors.Is(err, usecase.ErrOrganizationAccount):
			h.record("social", "organization_account")
			writeMessage(w, http.StatusConflict, "this email belongs to an organization account")
		default:
			h.record("social", "error")
			writeInternalError(w, r, err, "failed to resolve social identity")
		}
		return
	}

	user, err := json.Marshal(result.Profile)
	if err != nil {
		writeInternalError(w, r, err, "failed to encode social profile")
		return
	}

	h.record("social", "success")

	target := strings.TrimRight(h.frontendURL, "/") + "/" + strings.TrimLeft(result.FallbackURL, "/") +
		"?token=" + url.QueryEscape(result.Token) +
		"&user=" + url.QueryEscape(string(user))
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *authHandler) checkState(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	nonce, encoded, found := strings.Cut(r.URL.Query().Get("state"), ".")
	if !found || nonce != cookie.Value {
		return "", false
	}

	fallback, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}

	return string(fallback), true
}

func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req payload.SignupRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		h.record("signup", "invalid")
		return
	}

	result, err := h.usecase.SignupOrganization(r.Context(), usecase.SignupParams{
		CompanyName:       strings.TrimSpace(req.CompanyName),
		Username:          strings.TrimSpace(req.Username),
		Email:             req.Email,
		Password:          req.Password,
		NotificationToken: req.NotificationToken,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrUserAlreadyExists) {
			h.record("signup", "conflict")
			writeMessage(w, http.StatusConflict, "a user with this username or email already exists")
			return
		}

		h.record("signup", "error")
		writeInternalError(w, r, err, "failed to sign up organization")
		return
	}

	h.record("signup", "success")
	writeJSON(w, http.StatusCreated, payload.SignupResponse{
		Status: http.StatusCreated,
		User:   result.Organization,
		Token:  result.Token,
	})
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		h.record("login", "invalid")
		return
	}

	result, err := h.usecase.Login(r.Context(), usecase.LoginParams{
		Login:             req.Username,
		Password:          req.Password,
		NotificationToken: req.NotificationToken,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			h.record("login", "invalid_credentials")
			writeMessage(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}

		h.record("login", "error")
		writeInternalError(w, r, err, "failed to log in")
		return
	}

	if result.Outcome == usecase.LoginUnverified {
		h.record("login", "unverified")
		writeJSON(w, http.StatusForbidden, payload.UnverifiedResponse{
			Status:  http.StatusForbidden,
			Message: msgCheckEmail,
			Token:   result.Token,
		})
		return
	}

	var user any = result.User
	if result.Organization != nil {
		user = result.Organization
	}

	h.record("login", "success")
	writeJSON(w, http.StatusOK, payload.LoginResponse{
		Status: http.StatusOK,
		User:   user,
		Token:  result.Token,
	})
}

// Verification confirms the account of the token holder. The verification
// link carries the token as a query parameter; API clients may send it as a
// bearer token instead.
func (h *authHandler) Verification(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		bearer, err := interceptor.BearerToken(r)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		token = bearer
	}

	claims, err := h.tokens.ParseToken(token)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	outcome, err := h.usecase.VerifyAccount(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "user not found")
			return
		}

		writeInternalError(w, r, err, "failed to verify account")
		return
	}

	if outcome == usecase.AlreadyVerified {
		writeMessage(w, http.StatusBadRequest, msgAlreadyVerified)
		return
	}

	writeMessage(w, http.StatusOK, msgVerified)
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := interceptor.BearerToken(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	if err := h.usecase.Logout(r.Context(), token); err != nil {
		if errors.Is(err, usecase.ErrSessionNotFound) {
			writeMessage(w, http.StatusNotFound, "session not found")
			return
		}

		writeInternalError(w, r, err, "failed to log out")
		return
	}

	writeMessage(w, http.StatusOK, "You have been signed out")
}

type accountResponse struct {
	Status int `json:"status"`
	*usecase.Account
}

func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := interceptor.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	account, err := h.usecase.CurrentUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "user not found")
			return
		}

		writeInternalError(w, r, err, "failed to load current user")
		return
	}

	writeJSON(w, http.StatusOK, accountResponse{Status: http.StatusOK, Account: account})
}
