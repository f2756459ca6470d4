package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"menu-app-go/internal/config"
	"menu-app-go/internal/domain/access"
	catalogdomain "menu-app-go/internal/domain/catalog"
	"menu-app-go/internal/metrics"
	"menu-app-go/internal/transport/httpserver/handler"
	authmw "menu-app-go/internal/transport/httpserver/middleware"
	"menu-app-go/pkg/logger"
)

// NewRouter mounts the API. m may be nil when metrics are disabled.
func NewRouter(cfg config.Config, handlers *handler.Handlers, authn *authmw.Auth, m *metrics.Metrics, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(authmw.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORSOrigins))
	r.Use(chimw.StripSlashes)
	if m != nil {
		r.Use(m.Middleware)
		r.Method(http.MethodGet, cfg.Metrics.Path, m.Handler())
	}

	r.Get("/health", handlers.Health)
	mountMedia(r, cfg.Media)

	r.Route("/v1", func(r chi.Router) {
		r.Use(authn.Identify)

		r.Post("/auth/token", handlers.IssueToken)
		r.With(authn.RequireUser).Get("/auth/me", handlers.AuthMe)

		public := handlers.Menus(catalogdomain.PublicMenus, access.ReadOpen)
		r.Route("/public/menu", func(r chi.Router) {
			r.Get("/", public.List)
			r.Get("/{id}", public.Get)
		})

		r.Route("/private", func(r chi.Router) {
			r.Use(authn.RequireUser)

			menus := handlers.Menus(catalogdomain.PrivateMenus, access.ReadOpen)
			r.Route("/menu", func(r chi.Router) {
				r.Get("/", menus.List)
				r.Post("/", menus.Create)
				r.Get("/{id}", menus.Get)
				r.Put("/{id}", menus.Update)
				r.Patch("/{id}", menus.Patch)
				r.Delete("/{id}", menus.Delete)
			})

			dishes := handlers.Dishes("private", access.ReadOpen)
			r.Route("/dish", func(r chi.Router) {
				r.Get("/", dishes.List)
				r.Post("/", dishes.Create)
				r.Get("/{id}", dishes.Get)
				r.Put("/{id}", dishes.Update)
				r.Patch("/{id}", dishes.Patch)
				r.Delete("/{id}", dishes.Delete)
				r.Put("/{id}/image", dishes.UploadImage)
			})
		})

		dishes := handlers.Dishes("viewset", access.Strict)
		r.Route("/dishes", func(r chi.Router) {
			r.Use(authn.RequireUser)
			r.Get("/", dishes.List)
			r.Post("/", dishes.Create)
			r.Get("/{id}", dishes.Get)
			r.Put("/{id}", dishes.Update)
			r.Patch("/{id}", dishes.Patch)
			r.Delete("/{id}", dishes.Delete)
		})

		cards := handlers.Menus(catalogdomain.MenuCards, access.ReadOpen)
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", cards.List)
			r.Get("/{id}", cards.Get)
			r.Group(func(r chi.Router) {
				r.Use(authn.RequireUser)
				r.Post("/", cards.Create)
				r.Put("/{id}", cards.Update)
				r.Patch("/{id}", cards.Patch)
				r.Delete("/{id}", cards.Delete)
			})
		})
	})

	return r
}

// mountMedia serves locally stored photos when the public URL is a path on this server.
func mountMedia(r chi.Router, cfg config.MediaConfig) {
	if cfg.Backend != "local" && cfg.Backend != "" {
		return
	}
	prefix := strings.TrimRight(cfg.PublicBaseURL, "/")
	if !strings.HasPrefix(prefix, "/") || cfg.LocalDir == "" {
		return
	}
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.LocalDir)))
	r.Method(http.MethodGet, prefix+"/*", files)
}
