package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/commandos-health/commandos/internal/accessgate"
	"github.com/commandos-health/commandos/internal/audit"
	"github.com/commandos-health/commandos/internal/auth"
	"github.com/commandos-health/commandos/internal/badges"
	"github.com/commandos-health/commandos/internal/dataimport"
	"github.com/commandos-health/commandos/internal/export"
	"github.com/commandos-health/commandos/internal/kpi"
	"github.com/commandos-health/commandos/internal/links"
	"github.com/commandos-health/commandos/internal/passcode"
	"github.com/commandos-health/commandos/internal/profile"
	"github.com/commandos-health/commandos/internal/roles"
	"github.com/commandos-health/commandos/internal/transport/middleware"
	"github.com/commandos-health/commandos/internal/transport/swagger"
	"github.com/commandos-health/commandos/internal/upload"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers collects every HTTP-facing component the router wires up.
// Nil entries are skipped, which keeps partial wiring possible in tests.
type Handlers struct {
	Auth       *auth.Handler
	Profile    *profile.Handler
	Export     *export.Handler
	Upload     *upload.Handler
	Audit      *audit.Handler
	Passcode   *passcode.Handler
	DataImport *dataimport.Handler
	Links      *links.Handler
	Badges     *badges.Handler
	KPI        *kpi.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, gate *accessgate.Gate, allowedOrigins, storageDir string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, storageDir)
	roleAuth := auth.NewRoleAuthorization(logger)

	// Apply global middleware
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	if gate != nil {
		router.Use(gate.Middleware)
	}

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Uploaded files served from local disk storage
	if storageDir != "" {
		fs := http.StripPrefix("/files/", http.FileServer(http.Dir(storageDir)))
		router.Get("/files/*", fs.ServeHTTP)
	}

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})
		}

		// Passcode check runs before login, so it stays public
		if h.Passcode != nil {
			r.Post("/verify-passcode", h.Passcode.Verify)
		}

		// Audit ingestion accepts unauthenticated events (failed logins
		// happen before a session exists); the handler attaches the user
		// when one is present.
		if h.Audit != nil {
			r.Post("/security-audit", h.Audit.LogEvent)
		}

		if h.Auth != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(h.Auth.AuthMiddleware)

				if h.Profile != nil {
					pr.Get("/profiles/me", h.Profile.GetMyProfile)
					pr.Group(func(ar chi.Router) {
						ar.Use(roleAuth.RequireAdmin())
						ar.Put("/profiles/{userId}", h.Profile.UpdateProfile)
					})
				}

				if h.Export != nil {
					pr.Group(func(er chi.Router) {
						er.Use(roleAuth.Require(export.AllowedRoles...))
						er.Post("/export-data", h.Export.ExportData)
					})
				}

				if h.Upload != nil {
					pr.Group(func(ur chi.Router) {
						ur.Use(roleAuth.Require(upload.AllowedRoles...))
						ur.Post("/file-upload", h.Upload.UploadFile)
					})
				}

				if h.DataImport != nil {
					pr.Group(func(ir chi.Router) {
						ir.Use(roleAuth.Require(dataimport.AllowedRoles...))
						ir.Post("/ceo-data-import", h.DataImport.ImportData)
					})
				}

				if h.Audit != nil {
					pr.Group(func(cr chi.Router) {
						cr.Use(roleAuth.Require(roles.RoleAdmin, roles.RoleHIPAAOfficer))
						cr.Get("/security-audit", h.Audit.ListEvents)
					})
				}

				if h.Links != nil {
					pr.Route("/links", func(lr chi.Router) {
						lr.Get("/", h.Links.ListLinks)
						lr.Post("/", h.Links.CreateLink)
						lr.Put("/reorder", h.Links.ReorderLinks)
						lr.Put("/{id}", h.Links.UpdateLink)
						lr.Delete("/{id}", h.Links.DeleteLink)
					})
				}

				if h.Badges != nil {
					pr.Route("/badges", func(br chi.Router) {
						br.Get("/", h.Badges.ListBadges)
						br.Put("/", h.Badges.UpsertBadge)
						br.Delete("/{key}", h.Badges.ClearBadge)
					})
				}

				if h.KPI != nil {
					pr.Group(func(kr chi.Router) {
						kr.Use(roleAuth.Require(roles.RoleCEO, roles.RoleCFO, roles.RoleCMO, roles.RoleAdmin))
						kr.Get("/kpis", h.KPI.ListKPIs)
					})
				}
			})
		}
	})
}
