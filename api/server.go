/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/health           Liveness and storage ping
  /api/employees/*      Employee directory
  /api/policies/*       Policy registry
  /api/attendance/*     Record and preview attendance
  /api/leave/*          Leave requests and decisions
  /api/reports/*        Aggregated reports (JSON, XLSX, PDF)
  /api/audit            Audit trail

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterOptions tunes the router. The zero value allows any origin.
type RouterOptions struct {
	AllowedOrigins []string
	Health         Pinger // optional
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health(opts.Health))

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Delete("/{id}", h.DeactivateEmployee)
			r.Get("/{id}/attendance", h.GetEmployeeAttendance)
			r.Get("/{id}/leave", h.GetEmployeeLeave)
			r.Get("/{id}/leave/usage", h.GetEmployeeLeaveUsage)
		})

		r.Route("/policies", func(r chi.Router) {
			r.Get("/", h.ListPolicies)
			r.Post("/", h.CreatePolicy)
			r.Get("/export", h.ExportPolicies)
			r.Post("/import", h.ImportPolicies)
			r.Get("/{name}", h.GetPolicy)
			r.Patch("/{name}", h.UpdatePolicy)
			r.Delete("/{name}", h.DeletePolicy)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Post("/", h.RecordAttendance)
			r.Post("/preview", h.PreviewAttendance)
			r.Post("/import", h.ImportAttendance)
			r.Get("/{employee}/{date}", h.GetAttendance)
		})

		r.Route("/leave", func(r chi.Router) {
			r.Get("/", h.ListLeave)
			r.Post("/", h.RequestLeave)
			r.Get("/{id}", h.GetLeave)
			r.Post("/{id}/approve", h.ApproveLeave)
			r.Post("/{id}/reject", h.RejectLeave)
			r.Post("/{id}/cancel", h.CancelLeave)
			r.Get("/{id}/events", h.GetLeaveEvents)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily", h.DailyReport)
			r.Get("/monthly", h.MonthlyReport)
			r.Get("/yearly", h.YearlyReport)
			r.Get("/overtime", h.OvertimeReport)
		})

		r.Get("/audit", h.ListAudit)
	})

	return r
}

func health(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			if err := p.Ping(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, "Storage unavailable", err)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
