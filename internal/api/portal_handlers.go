package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rflorenc/storefront-ica-generator/internal/models"
	"github.com/rflorenc/storefront-ica-generator/internal/storefront"
)

func (s *Server) CreatePortal(w http.ResponseWriter, r *http.Request) {
	var p models.Portal
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(p.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if p.Name == "" {
		p.Name = p.URL
	}
	s.Portals.Create(&p)
	writeJSON(w, http.StatusCreated, p.Redacted())
}

func (s *Server) ListPortals(w http.ResponseWriter, r *http.Request) {
	portals := s.Portals.List()
	out := make([]models.Portal, 0, len(portals))
	for _, p := range portals {
		out = append(out, p.Redacted())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetPortal(w http.ResponseWriter, r *http.Request) {
	p := s.Portals.Get(chi.URLParam(r, "id"))
	if p == nil {
		writeError(w, http.StatusNotFound, "portal not found")
		return
	}
	writeJSON(w, http.StatusOK, p.Redacted())
}

func (s *Server) UpdatePortal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p models.Portal
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	p.ID = id
	if !s.Portals.Update(&p) {
		writeError(w, http.StatusNotFound, "portal not found")
		return
	}
	writeJSON(w, http.StatusOK, p.Redacted())
}

func (s *Server) DeletePortal(w http.ResponseWriter, r *http.Request) {
	if !s.Portals.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "portal not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TestPortal checks reachability and, when credentials are configured,
// login. The outcome is stored on the portal.
func (s *Server) TestPortal(w http.ResponseWriter, r *http.Request) {
	p := s.Portals.Get(chi.URLParam(r, "id"))
	if p == nil {
		writeError(w, http.StatusNotFound, "portal not found")
		return
	}
	h := s.CheckPortal(r.Context(), p)
	resp := map[string]any{
		"ok":          h.PingStatus == "ok" && h.AuthStatus != "error",
		"ping_status": h.PingStatus,
		"auth_status": h.AuthStatus,
	}
	if h.PingError != "" {
		resp["error"] = h.PingError
	} else if h.AuthError != "" {
		resp["error"] = h.AuthError
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health is the outcome of CheckPortal.
type Health struct {
	PingStatus, PingError string
	AuthStatus, AuthError string
}

// CheckPortal loads the portal main page and then runs the login pipeline.
// Auth stays "unknown" when the portal is unreachable.
func (s *Server) CheckPortal(ctx context.Context, p *models.Portal) Health {
	log := s.logger().With(zap.String("portal", p.Name))
	h := Health{PingStatus: "ok", AuthStatus: "unknown"}
	if err := storefront.Ping(ctx, p.URL, s.portalOptions(p)...); err != nil {
		h.PingStatus, h.PingError = "error", err.Error()
		log.Warn("ping failed", zap.Error(err))
	} else if p.Username == "" || p.Password == "" {
		h.AuthStatus, h.AuthError = "error", "no credentials configured"
		log.Warn("auth skipped", zap.String("reason", h.AuthError))
	} else if _, err := storefront.ListResources(ctx, p.Credentials(), s.portalOptions(p)...); err != nil {
		h.AuthStatus, h.AuthError = "error", err.Error()
		log.Warn("auth failed", zap.Error(err))
	} else {
		h.AuthStatus = "ok"
		log.Info("portal healthy")
	}
	s.Portals.SetHealth(p.ID, h.PingStatus, h.PingError, h.AuthStatus, h.AuthError)
	return h
}
