package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/vidtube/api/internal/auth"
	"github.com/vidtube/api/internal/config"
	"github.com/vidtube/api/internal/observability"
	"github.com/vidtube/api/internal/pipeline"
	"github.com/vidtube/api/internal/ratelimit"
	"github.com/vidtube/api/internal/store"
)

// Deps are the collaborators the router serves requests with.
type Deps struct {
	Repo      store.Repo
	Validator *auth.Validator
	Limiter   ratelimit.Limiter
	Metrics   *observability.Collector
	Logger    *zap.Logger
	Config    config.Config
}

// NewRouter creates the HTTP router with all v1 endpoints.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(instrument(d.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(30 * time.Second))

	h := &handlers{
		repo:    d.Repo,
		metrics: d.Metrics,
		logger:  d.Logger,
		applier: pipeline.NewApplier(d.Repo, d.Logger),
		maxBody: d.Config.MaxBodyBytes,
		cfg:     d.Config,
		now:     time.Now,
	}

	limited := ratelimit.Middleware(d.Limiter, viewerKey, func(r *http.Request) {
		d.Metrics.RateLimited.WithLabelValues(routePattern(r)).Inc()
	}, d.Logger)

	r.Handle("/metrics", d.Metrics.Handler())
	r.Post("/webhooks/video", h.PostVideoWebhook)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.GetHealth)

		r.Group(func(r chi.Router) {
			r.Use(auth.Identify(d.Validator, d.Logger))

			// Public reads; a bearer token only adds viewer flags.
			r.Get("/categories", h.ListCategories)
			r.Get("/videos", h.ListVideos)
			r.Get("/videos/{videoID}", h.GetVideo)
			r.Get("/videos/{videoID}/suggestions", h.ListSuggestions)
			r.Get("/videos/{videoID}/comments", h.ListComments)
			r.Get("/search", h.SearchVideos)
			r.Get("/users/{userID}", h.GetUser)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireViewer)

				r.Get("/videos/subscribed", h.ListSubscribedVideos)
				r.Get("/subscriptions", h.ListSubscriptions)
				r.Get("/studio/videos", h.ListStudioVideos)
				r.Get("/studio/videos/{videoID}", h.GetStudioVideo)
				r.Get("/playlists", h.ListPlaylists)
				r.Get("/playlists/history", h.ListHistory)
				r.Get("/playlists/liked", h.ListLiked)
				r.Get("/playlists/{playlistID}", h.GetPlaylist)
				r.Get("/playlists/{playlistID}/videos", h.ListPlaylistVideos)

				r.Group(func(r chi.Router) {
					r.Use(limited)

					r.Post("/me", h.PostMe)

					r.Post("/videos", h.CreateVideo)
					r.Patch("/videos/{videoID}", h.UpdateVideo)
					r.Delete("/videos/{videoID}", h.DeleteVideo)
					r.Post("/videos/{videoID}/views", h.RecordView)
					r.Post("/videos/{videoID}/reactions", h.ToggleVideoReaction)
					r.Post("/videos/{videoID}/comments", h.CreateComment)
					r.Delete("/videos/{videoID}/comments/{commentID}", h.DeleteComment)
					r.Post("/comments/{commentID}/reactions", h.ToggleCommentReaction)

					r.Put("/subscriptions/{userID}", h.Subscribe)
					r.Delete("/subscriptions/{userID}", h.Unsubscribe)

					r.Post("/playlists", h.CreatePlaylist)
					r.Delete("/playlists/{playlistID}", h.DeletePlaylist)
					r.Put("/playlists/{playlistID}/videos/{videoID}", h.AddPlaylistVideo)
					r.Delete("/playlists/{playlistID}/videos/{videoID}", h.RemovePlaylistVideo)
				})
			})
		})
	})

	return r
}

type handlers struct {
	repo    store.Repo
	metrics *observability.Collector
	logger  *zap.Logger
	applier *pipeline.Applier
	maxBody int64
	cfg     config.Config
	now     func() time.Time
}

func viewerKey(r *http.Request) string {
	return "viewer:" + auth.ViewerID(r.Context())
}
