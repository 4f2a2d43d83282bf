package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/health"
	"github.com/sandeepkv93/campus-portal-backend/internal/http/handler"
	"github.com/sandeepkv93/campus-portal-backend/internal/http/middleware"
	"github.com/sandeepkv93/campus-portal-backend/internal/http/response"
	"github.com/sandeepkv93/campus-portal-backend/internal/security"
)

const defaultBodyLimit = 1 << 20

type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	AdminHandler      *handler.AdminHandler
	UploadHandler     *handler.UploadHandler
	SessionCodec      *security.SessionCodec
	CORSOrigins       []string
	AuthRateLimitRPM  int
	APIRateLimitRPM   int
	GlobalRateLimiter GlobalRateLimiterFunc
	AuthRateLimiter   AuthRateLimiterFunc
	Readiness         *health.ReadinessRunner
	EnableOTelHTTP    bool
}

type GlobalRateLimiterFunc func(http.Handler) http.Handler
type AuthRateLimiterFunc func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))

	globalLimiter := dep.GlobalRateLimiter
	if globalLimiter == nil {
		globalLimiter = middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware()
	}
	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()
	}
	session := middleware.RequireSession(dep.SessionCodec)
	staff := middleware.RequireRole(domain.RoleAdmin, domain.RoleOwner)
	owner := middleware.RequireRole(domain.RoleOwner)
	jsonBody := middleware.BodyLimit(defaultBodyLimit)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ready, results := dep.Readiness.Ready(r.Context())
		if results == nil {
			results = []health.CheckResult{}
		}
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(globalLimiter)

		r.Route("/auth", func(r chi.Router) {
			r.Use(jsonBody)
			r.With(authLimiter).Post("/register", dep.AuthHandler.Register)
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.Post("/logout", dep.AuthHandler.Logout)
			r.With(authLimiter).Post("/password/forgot", dep.AuthHandler.ForgotPassword)
			r.With(authLimiter).Post("/password/reset", dep.AuthHandler.ResetPassword)
			r.With(session, authLimiter).Post("/password/change", dep.AuthHandler.ChangePassword)
			r.With(authLimiter).Get("/google/login", dep.AuthHandler.GoogleLogin)
			r.With(authLimiter).Get("/google/callback", dep.AuthHandler.GoogleCallback)
		})

		r.With(session).Get("/me", dep.UserHandler.Me)

		r.Route("/uploads", func(r chi.Router) {
			r.Use(session)
			r.Get("/", dep.UploadHandler.ListApproved)
			r.With(middleware.BodyLimit(dep.UploadHandler.MaxRequestBytes())).Post("/", dep.UploadHandler.Create)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(session, jsonBody)
			r.With(staff).Get("/users", dep.AdminHandler.ListUsers)
			r.With(owner).Patch("/users/{id}/role", dep.AdminHandler.UpdateUserRole)
			r.With(staff).Post("/users/bulk-status", dep.AdminHandler.BulkUpdateStatus)
			r.With(staff).Post("/notifications", dep.AdminHandler.Notify)
			r.With(staff).Get("/uploads/pending", dep.AdminHandler.ListPendingUploads)
			r.With(staff).Post("/uploads/{id}/moderate", dep.AdminHandler.ModerateUpload)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
