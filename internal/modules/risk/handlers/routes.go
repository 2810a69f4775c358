package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all risk statistics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Post("/snapshots", h.HandleCreateSnapshot)
		r.Get("/snapshots/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetSnapshot(w, r, chi.URLParam(r, "id"))
		})

		r.Route("/securities/{symbol}", func(r chi.Router) {
			r.Get("/variance", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetVariance(w, r, chi.URLParam(r, "symbol"))
			})
			r.Get("/var/historical", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetHistoricalVaR(w, r, chi.URLParam(r, "symbol"))
			})
			r.Get("/var/weighted", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetWeightedVaR(w, r, chi.URLParam(r, "symbol"))
			})
			r.Get("/snapshots", func(w http.ResponseWriter, r *http.Request) {
				h.HandleListSnapshots(w, r, chi.URLParam(r, "symbol"))
			})
		})
	})
}
