package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/workcity/chat-admin/internal/api/handlers"
	"github.com/workcity/chat-admin/internal/config"
	"github.com/workcity/chat-admin/internal/debounce"
	"github.com/workcity/chat-admin/internal/domain"
	"github.com/workcity/chat-admin/internal/downstream"
	"github.com/workcity/chat-admin/internal/gate"
	"github.com/workcity/chat-admin/internal/logger"
	"github.com/workcity/chat-admin/internal/proxy"
	"github.com/workcity/chat-admin/internal/session"
	"github.com/workcity/chat-admin/middleware"
)

const serviceName = "chat-admin"

// NewRouter wires the console. rdb may be nil, in which case login rate
// limiting runs in-process.
func NewRouter(cfg *config.Config, storage session.Storage, rdb *redis.Client) (http.Handler, error) {
	client := downstream.NewClient(downstream.ClientConfig{
		BaseURL:      cfg.APIBaseURL,
		ReadTimeout:  cfg.APIReadTimeout,
		WriteTimeout: cfg.APIWriteTimeout,
	})

	sessions := session.NewManager(storage, downstream.NewAuthClient(client), session.ManagerConfig{
		TTL:          cfg.SessionTTL,
		InitWait:     cfg.SessionInitWait,
		CookieSecure: cfg.CookieSecure,
	})

	g := gate.New(func(r *http.Request) gate.Session {
		if s := session.FromContext(r.Context()); s != nil {
			return s
		}
		return nil
	})

	authH := handlers.NewAuthHandler(sessions)
	adminH := handlers.NewAdminHandler(downstream.NewAdminClient(client), sessions, debounce.New(cfg.SearchDebounce))
	profileH := handlers.NewProfileHandler(downstream.NewProfileClient(client), sessions)

	checkers := []handlers.ReadinessChecker{
		handlers.NewHTTPReadinessChecker("api", cfg.APIBaseURL),
	}
	if p, ok := storage.(handlers.Pinger); ok {
		checkers = append(checkers, handlers.NewPingChecker("session_store", p))
	}
	readyH := handlers.NewReadinessHandler(checkers...)

	apiProxy, err := proxy.New(cfg.APIBaseURL, "/api", "", func(r *http.Request) string {
		if s := session.FromContext(r.Context()); s != nil {
			return s.Token()
		}
		return ""
	})
	if err != nil {
		return nil, fmt.Errorf("invalid API base url: %w", err)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Metrics)
	r.Use(middleware.Tracing(serviceName))

	r.Get("/healthz", readyH.Healthz)
	r.Get("/readyz", readyH.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.CSRFEnabled {
			r.Use(csrfProtect(cfg))
		}
		r.Use(sessions.Middleware)
		r.Use(middleware.NoStore)

		r.Mount("/api", apiProxy)

		r.Get("/", authH.LoginPage)
		r.With(middleware.LoginRateLimit(rdb, cfg.LoginRateLimit, cfg.LoginRateWindow)).Post("/login", authH.Login)
		r.Get("/signup", authH.SignupPage)
		r.With(middleware.LoginRateLimit(rdb, cfg.LoginRateLimit, cfg.LoginRateWindow)).Post("/signup", authH.Signup)
		r.Post("/logout", authH.Logout)

		r.Group(func(r chi.Router) {
			r.Use(g.Protect)

			r.Get("/inbox", authH.Inbox)

			r.Get("/profile", profileH.Show)
			r.Post("/profile", profileH.Update)
			r.Post("/profile/password", profileH.ChangePassword)

			r.Route("/admin", func(r chi.Router) {
				r.Use(g.RequireRole(domain.RoleAdmin))

				r.Get("/", adminH.Index)
				r.Get("/analytics", adminH.Analytics)

				r.Get("/users", adminH.ListUsers)
				r.Post("/users", adminH.CreateUser)
				r.Get("/users/new", adminH.NewUser)
				r.Get("/users/{id}/edit", adminH.EditUser)
				r.Post("/users/{id}", adminH.UpdateUser)
				r.Get("/users/{id}/delete", adminH.ConfirmDeleteUser)
				r.Post("/users/{id}/delete", adminH.DeleteUser)

				r.Get("/roles", adminH.ListRoles)
				r.Post("/roles", adminH.CreateRole)
				r.Get("/roles/new", adminH.NewRole)
				r.Get("/roles/{id}/edit", adminH.EditRole)
				r.Post("/roles/{id}", adminH.UpdateRole)
				r.Get("/roles/{id}/delete", adminH.ConfirmDeleteRole)
				r.Post("/roles/{id}/delete", adminH.DeleteRole)

				r.Get("/messages", adminH.ListMessages)
				r.Post("/messages/bulk-delete", adminH.BulkDeleteMessages)
				r.Post("/messages/{id}/flag", adminH.FlagMessage)
				r.Get("/messages/{id}/delete", adminH.ConfirmDeleteMessage)
				r.Post("/messages/{id}/delete", adminH.DeleteMessage)
			})
		})
	})

	logger.Log.Info().Str("api", cfg.APIBaseURL).Bool("csrf", cfg.CSRFEnabled).Msg("routes_mounted")

	return r, nil
}

// csrfProtect guards every state-changing request with a gorilla/csrf
// token. Over plain HTTP the Referer check has nothing to compare against.
func csrfProtect(cfg *config.Config) func(http.Handler) http.Handler {
	protect := csrf.Protect([]byte(cfg.CSRFKey),
		csrf.Secure(cfg.CookieSecure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Ctx(r.Context()).Warn().Err(csrf.FailureReason(r)).Str("path", r.URL.Path).Msg("csrf_rejected")
			http.Error(w, "Forbidden: invalid or missing CSRF token", http.StatusForbidden)
		})),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		if cfg.CookieSecure {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
