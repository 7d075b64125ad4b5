package api

import (
	"context"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	apiContext "spaces/internal/api/context"
	"spaces/internal/api/handlers"
	"spaces/internal/api/middleware"
	"spaces/internal/pkg/errors"
	"spaces/internal/platform/config"
	"spaces/internal/platform/models"
)

type Dependencies struct {
	HealthHandler  *handlers.HealthHandler
	MetricsHandler *handlers.MetricsHandler
	OrgHandler     *handlers.OrgHandler
	AuditHandler   *handlers.AuditHandler
	SpaceHandler   *handlers.SpaceHandler
	StatusHandler  *handlers.StatusHandler
	ProfileHandler *handlers.ProfileHandler
	AvatarHandler  *handlers.AvatarHandler
	AuthMiddleware *middleware.AuthMiddleware
	OrgMiddleware  *middleware.OrgMiddleware
	RateLimiter    *middleware.RateLimiter
	Metrics        *middleware.Metrics
}

type middlewareFunc = func(http.HandlerFunc) http.HandlerFunc

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Route not found", nil)
	})

	// Every route is instrumented under its pattern, not the concrete path.
	handle := func(method, path string, handler http.HandlerFunc, middlewares ...middlewareFunc) {
		middlewares = append([]middlewareFunc{deps.Metrics.Instrument(path)}, middlewares...)
		router.Handle(method, path, chain(handler, middlewares...))
	}

	authMid := deps.AuthMiddleware.Handle
	orgMid := deps.OrgMiddleware.Handle
	read := deps.RateLimiter.Limit(middleware.ClassRead)
	write := deps.RateLimiter.Limit(middleware.ClassWrite)
	upload := deps.RateLimiter.Limit(middleware.ClassUpload)

	// Operational
	handle("GET", "/healthz", deps.HealthHandler.Check)
	handle("GET", "/metrics", deps.MetricsHandler.Export)

	// Organization
	handle("GET", "/api/v1/orgs/:org", deps.OrgHandler.GetCurrent, authMid, orgMid, read)
	handle("GET", "/api/v1/orgs/:org/entitlements", deps.OrgHandler.Entitlements, authMid, orgMid, read)
	handle("GET", "/api/v1/orgs/:org/audit-logs", deps.AuditHandler.List,
		authMid, orgMid, read, middleware.RequireOrgRole(models.OrgRoleOwner, models.OrgRoleAdmin))

	// Spaces
	handle("GET", "/api/v1/orgs/:org/spaces", deps.SpaceHandler.List, authMid, orgMid, read)
	handle("POST", "/api/v1/orgs/:org/spaces", deps.SpaceHandler.Create, authMid, orgMid, write)
	handle("GET", "/api/v1/orgs/:org/spaces/:space/settings", deps.SpaceHandler.Settings, authMid, orgMid, read)
	handle("PATCH", "/api/v1/orgs/:org/spaces/:space/name", deps.SpaceHandler.SetName, authMid, orgMid, write)
	handle("PATCH", "/api/v1/orgs/:org/spaces/:space/description", deps.SpaceHandler.SetDescription, authMid, orgMid, write)
	handle("PATCH", "/api/v1/orgs/:org/spaces/:space/color", deps.SpaceHandler.SetColor, authMid, orgMid, write)
	handle("PATCH", "/api/v1/orgs/:org/spaces/:space/type", deps.SpaceHandler.SetType, authMid, orgMid, write)

	// Statuses
	handle("GET", "/api/v1/orgs/:org/spaces/:space/statuses", deps.StatusHandler.List, authMid, orgMid, read)
	handle("POST", "/api/v1/orgs/:org/spaces/:space/statuses", deps.StatusHandler.Add, authMid, orgMid, write)
	handle("PATCH", "/api/v1/orgs/:org/spaces/:space/statuses/:status_id", deps.StatusHandler.Edit, authMid, orgMid, write)

	// Profile
	handle("GET", "/api/v1/profile", deps.ProfileHandler.Get, authMid, read)
	handle("POST", "/api/v1/profile", deps.ProfileHandler.Create, authMid, write)
	handle("PUT", "/api/v1/profile", deps.ProfileHandler.Update, authMid, write)
	handle("POST", "/api/v1/profile/avatar", deps.AvatarHandler.IssueUpload, authMid, upload)
	handle("GET", "/api/v1/profile/avatar/:upload_id", deps.AvatarHandler.Await, authMid, read)

	return router
}

// NewHandler wraps the router with CORS and request logging.
func NewHandler(router http.Handler, corsCfg config.CORSConfig, logger zerolog.Logger) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: corsCfg.AllowedOrigins,
		AllowedMethods: corsCfg.AllowedMethods,
		AllowedHeaders: corsCfg.AllowedHeaders,
		ExposedHeaders: []string{"X-Request-Id", "Retry-After"},
		MaxAge:         corsCfg.MaxAge,
	})
	return middleware.RequestLog(logger)(c.Handler(router))
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...middlewareFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
