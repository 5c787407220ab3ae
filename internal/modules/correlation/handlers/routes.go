package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all filing routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/filings", func(r chi.Router) {
		// Staging endpoints
		r.Route("/staged", func(r chi.Router) {
			r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetStaged(w, r, chi.URLParam(r, "id"))
			})
			r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleDiscardStaged(w, r, chi.URLParam(r, "id"))
			})
		})

		r.Get("/{symbol}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetFiling(w, r, chi.URLParam(r, "symbol"))
		})
		r.Post("/{symbol}/stage", func(w http.ResponseWriter, r *http.Request) {
			h.HandleStageFiling(w, r, chi.URLParam(r, "symbol"))
		})
	})
}
