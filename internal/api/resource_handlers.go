package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/storefront-ica-generator/internal/models"
	"github.com/rflorenc/storefront-ica-generator/internal/storefront"
)

// ListResources logs into the portal and returns its resource listing,
// optionally narrowed by the name and type query parameters.
func (s *Server) ListResources(w http.ResponseWriter, r *http.Request) {
	p := s.Portals.Get(chi.URLParam(r, "id"))
	if p == nil {
		writeError(w, http.StatusNotFound, "portal not found")
		return
	}
	resources, err := storefront.ListResources(r.Context(), p.Credentials(), s.portalOptions(p)...)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	q := models.ResourceQuery{
		Name: r.URL.Query().Get("name"),
		Type: r.URL.Query().Get("type"),
	}
	out := []models.Resource{}
	for _, res := range resources {
		if q.Match(res) {
			out = append(out, res)
		}
	}
	writeJSON(w, http.StatusOK, out)
}
