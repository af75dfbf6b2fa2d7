package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rflorenc/storefront-ica-generator/internal/models"
	"github.com/rflorenc/storefront-ica-generator/internal/storefront"
)

// Server holds shared state for all API handlers.
type Server struct {
	Portals *models.PortalStore
	Jobs    *models.JobStore
	Logger  *zap.Logger
}

// NewRouter builds the chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Portals
		r.Post("/portals", s.CreatePortal)
		r.Get("/portals", s.ListPortals)
		r.Get("/portals/{id}", s.GetPortal)
		r.Put("/portals/{id}", s.UpdatePortal)
		r.Delete("/portals/{id}", s.DeletePortal)
		r.Post("/portals/{id}/test", s.TestPortal)

		// Resource browsing
		r.Get("/portals/{id}/resources", s.ListResources)

		// Descriptor generation (async)
		r.Post("/portals/{id}/descriptors", s.GenerateDescriptor)

		// Jobs
		r.Get("/jobs", s.ListJobs)
		r.Get("/jobs/{id}", s.GetJob)
		r.Get("/jobs/{id}/descriptor", s.GetJobDescriptor)
	})

	// WebSocket (outside /api to avoid JSON content-type assumptions)
	r.Get("/ws/jobs/{id}/logs", s.StreamJobLogs)

	return r
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// portalOptions carries a portal's TLS settings into the storefront client.
func (s *Server) portalOptions(p *models.Portal, extra ...storefront.Option) []storefront.Option {
	opts := []storefront.Option{
		storefront.WithLogger(s.logger().With(zap.String("portal", p.Name))),
		storefront.WithInsecureTLS(p.Insecure),
	}
	if p.CACert != "" {
		opts = append(opts, storefront.WithCACert(p.CACert))
	}
	return append(opts, extra...)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
