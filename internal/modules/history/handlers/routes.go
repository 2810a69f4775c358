package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all price history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/securities", h.HandleListSymbols)

		r.Route("/securities/{symbol}", func(r chi.Router) {
			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				h.HandleDeleteSymbol(w, r, chi.URLParam(r, "symbol"))
			})
			r.Post("/closes", func(w http.ResponseWriter, r *http.Request) {
				h.HandleImportCloses(w, r, chi.URLParam(r, "symbol"))
			})
			r.Get("/closes", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetCloses(w, r, chi.URLParam(r, "symbol"))
			})
		})
	})
}
