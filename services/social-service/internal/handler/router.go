package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/usecase"
	"github.com/vasapolrittideah/jobfeed-api/shared/interceptor"
	"github.com/vasapolrittideah/jobfeed-api/shared/logger"
	"github.com/vasapolrittideah/jobfeed-api/shared/metrics"
	"github.com/vasapolrittideah/jobfeed-api/shared/ratelimit"
	"github.com/vasapolrittideah/jobfeed-api/shared/validation"
)

const healthCheckTimeout = 2 * time.Second

// RouterDeps wires the HTTP surface. OAuth, AuthLimiter, Metrics and
// HealthCheck are optional.
type RouterDeps struct {
	Logger      *zerolog.Logger
	Validator   *validation.Validator
	Tokens      interceptor.TokenParser
	Auth        usecase.AuthUsecase
	Feed        usecase.FeedUsecase
	Posts       usecase.PostUsecase
	Comments    usecase.CommentUsecase
	OAuth       OAuthProvider
	FrontendURL string
	AuthLimiter *ratelimit.Limiter
	Metrics     *metrics.Collector
	Gatherer    prometheus.Gatherer
	HealthCheck func(ctx context.Context) error
}

func NewRouter(deps RouterDeps) http.Handler {
	auth := &authHandler{
		usecase:     deps.Auth,
		oauth:       deps.OAuth,
		tokens:      deps.Tokens,
		validator:   deps.Validator,
		frontendURL: deps.FrontendURL,
	}
	if deps.Metrics != nil {
		auth.metrics = deps.Metrics
	}
	feed := &feedHandler{usecase: deps.Feed, validator: deps.Validator}
	posts := &postHandler{usecase: deps.Posts, validator: deps.Validator}
	comments := &commentHandler{usecase: deps.Comments, validator: deps.Validator}

	requireAuth := interceptor.RequireAuth(deps.Tokens)
	optionalAuth := interceptor.OptionalAuth(deps.Tokens)
	requireVerified := interceptor.RequireVerified(deps.Auth)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logger.HTTPMiddleware(deps.Logger)...)
	r.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.Get("/healthz", healthHandler(deps.HealthCheck))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/auth", func(r chi.Router) {
		if deps.OAuth != nil {
			r.Get("/google", auth.GoogleRedirect)
			r.Get("/google/callback", auth.GoogleCallback)
		}

		r.Group(func(r chi.Router) {
			if deps.AuthLimiter != nil {
				r.Use(deps.AuthLimiter.Middleware)
			}
			r.Post("/signup", auth.Signup)
			r.Post("/login", auth.Login)
		})

		r.Get("/verification", auth.Verification)
		r.With(requireAuth).Post("/logout", auth.Logout)
		r.With(requireAuth).Get("/me", auth.Me)
	})

	r.Route("/feed", func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/", feed.GetFeed)
		r.Get("/organizations", feed.GetOrganizationFeed)
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", posts.ListPosts)
		r.With(requireAuth, requireVerified).Post("/", posts.CreatePost)

		r.Route("/{slug}", func(r chi.Router) {
			r.Get("/", posts.GetPost)
			r.Get("/comments", comments.ListComments)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)

				r.Post("/share/{platform}", posts.SharePost)
				r.Post("/like", posts.LikePost)
				r.Delete("/like", posts.UnlikePost)

				r.Group(func(r chi.Router) {
					r.Use(requireVerified)

					r.Put("/", posts.UpdatePost)
					r.Delete("/", posts.DeletePost)
					r.Post("/comments", comments.CreateComment)
					r.Put("/comments/{commentID}", comments.UpdateComment)
					r.Delete("/comments/{commentID}", comments.DeleteComment)
				})
			})
		})
	})

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()

			if err := check(ctx); err != nil {
				hlog.FromRequest(r).Error().Err(err).Msg("health check failed")
				writeMessage(w, http.StatusServiceUnavailable, "unavailable")
				return
			}
		}

		writeMessage(w, http.StatusOK, "ok")
	}
}
