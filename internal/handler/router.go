package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jbbc/jbbc-api/internal/metrics"
	"github.com/jbbc/jbbc-api/internal/middleware"
)

// RouterDeps はルーター組み立てに必要な依存をまとめる。
type RouterDeps struct {
	Logger        *slog.Logger
	Collector     metrics.MetricsCollector
	Gatherer      prometheus.Gatherer
	RateLimiter   *middleware.RateLimiter
	TokenVerifier middleware.TokenVerifier

	Auth          *AuthHandler
	Announcements *AnnouncementHandler
	Newsletters   *NewsletterHandler
	Seminars      *SeminarHandler
	Blog          *BlogHandler
	Subscribers   *SubscriberHandler
	Contact       *ContactHandler
	Uploads       *UploadHandler
	Fanout        *FanoutHandler
	AdminUsers    *AdminUserHandler
	Feed          *FeedHandler

	CORSAllowedOrigin string
}

// NewRouter は全ルートを配線したHTTPハンドラーを返す。
// 公開APIと、セッション認証＋レート制限付きの管理APIの2系統を持つ。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// 運用エンドポイント
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// 公開API
	r.Route("/api", func(r chi.Router) {
		r.Get("/announcements", deps.Announcements.ListPublic)
		r.Get("/announcements/{slug}", deps.Announcements.GetPublic)
		r.Get("/newsletters", deps.Newsletters.ListPublic)
		r.Get("/newsletters/{slug}", deps.Newsletters.GetPublic)
		r.Get("/seminars", deps.Seminars.ListPublic)
		r.Get("/seminars/{slug}", deps.Seminars.GetPublic)
		r.Get("/posts", deps.Blog.ListPublic)
		r.Get("/posts/{slug}", deps.Blog.GetPublic)
		r.Get("/feed.xml", deps.Feed.Serve)

		// 公開フォーム投稿はIP単位のレート制限をかける
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.PublicMiddleware())
			r.Post("/posts/{slug}/like", deps.Blog.ToggleLike)
			r.Post("/subscribers", deps.Subscribers.Subscribe)
			r.Post("/unsubscribe", deps.Subscribers.Unsubscribe)
			r.Post("/contact", deps.Contact.Submit)
			r.Post("/seminars/{slug}/registrations", deps.Seminars.Register)
		})

		// 認証（ログイン自体は未認証で叩く）
		r.Post("/auth/login", deps.Auth.Login)
		r.Post("/auth/logout", deps.Auth.Logout)
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.TokenVerifier))
			r.Get("/auth/me", deps.Auth.Me)
			r.Post("/auth/password", deps.Auth.ChangePassword)
		})

		// 管理API
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.TokenVerifier))
			r.Use(deps.RateLimiter.AdminMiddleware())

			r.Get("/announcements", deps.Announcements.ListAdmin)
			r.Post("/announcements", deps.Announcements.Create)
			r.Get("/announcements/{id}", deps.Announcements.GetAdmin)
			r.Put("/announcements/{id}", deps.Announcements.Update)
			r.Delete("/announcements/{id}", deps.Announcements.Delete)
			r.Get("/announcements/{id}/notifications", deps.Announcements.ListNotifications)

			r.Get("/newsletters", deps.Newsletters.ListAdmin)
			r.Post("/newsletters", deps.Newsletters.Create)
			r.Get("/newsletters/{id}", deps.Newsletters.GetAdmin)
			r.Put("/newsletters/{id}", deps.Newsletters.Update)
			r.Delete("/newsletters/{id}", deps.Newsletters.Delete)
			r.Get("/newsletters/{id}/notifications", deps.Newsletters.ListNotifications)

			r.Get("/seminars", deps.Seminars.ListAdmin)
			r.Post("/seminars", deps.Seminars.Create)
			r.Get("/seminars/{id}", deps.Seminars.GetAdmin)
			r.Put("/seminars/{id}", deps.Seminars.Update)
			r.Delete("/seminars/{id}", deps.Seminars.Delete)
			r.Get("/seminars/{id}/notifications", deps.Seminars.ListNotifications)
			r.Get("/seminars/{id}/registrations", deps.Seminars.ListRegistrations)

			r.Get("/posts", deps.Blog.ListAdmin)
			r.Post("/posts", deps.Blog.Create)
			r.Get("/posts/{id}", deps.Blog.GetAdmin)
			r.Put("/posts/{id}", deps.Blog.Update)
			r.Delete("/posts/{id}", deps.Blog.Delete)

			r.Get("/subscribers", deps.Subscribers.ListAdmin)
			r.Get("/subscribers/count", deps.Subscribers.CountActive)
			r.Delete("/subscribers/{id}", deps.Subscribers.Delete)

			r.Get("/contacts", deps.Contact.ListAdmin)

			r.Get("/uploads", deps.Uploads.List)
			r.Post("/uploads", deps.Uploads.Upload)
			r.Post("/uploads/import", deps.Uploads.Import)

			r.Get("/fanout/jobs", deps.Fanout.List)
			r.Get("/fanout/jobs/{id}", deps.Fanout.Get)

			r.Get("/admin-users", deps.AdminUsers.List)
			r.Post("/admin-users", deps.AdminUsers.Create)
			r.Get("/admin-users/{id}", deps.AdminUsers.Get)
			r.Put("/admin-users/{id}", deps.AdminUsers.Update)
			r.Delete("/admin-users/{id}", deps.AdminUsers.Delete)
		})
	})

	return r
}
