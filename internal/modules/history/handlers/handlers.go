// Package handlers provides HTTP handlers for the price history store.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskd/internal/modules/history"
)

const dateLayout = "2006-01-02"

// Handler handles price history HTTP requests
type Handler struct {
	repo *history.Repository
	log  zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(repo *history.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "history").Logger(),
	}
}

type closePayload struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// HandleImportCloses handles POST /api/history/securities/{symbol}/closes
func (h *Handler) HandleImportCloses(w http.ResponseWriter, r *http.Request, symbol string) {
	var payload []closePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(payload) == 0 {
		http.Error(w, "At least one close is required", http.StatusBadRequest)
		return
	}

	closes := make([]history.DailyClose, 0, len(payload))
	for _, p := range payload {
		date, err := time.Parse(dateLayout, p.Date)
		if err != nil {
			http.Error(w, "Invalid date: "+p.Date, http.StatusBadRequest)
			return
		}
		if p.Close <= 0 {
			http.Error(w, "Close price must be positive", http.StatusBadRequest)
			return
		}
		closes = append(closes, history.DailyClose{Symbol: symbol, Date: date, Close: p.Close})
	}

	written, err := h.repo.UpsertCloses(symbol, closes)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to import closes")
		http.Error(w, "Failed to import closes", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbol":   symbol,
			"imported": written,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetCloses handles GET /api/history/securities/{symbol}/closes
func (h *Handler) HandleGetCloses(w http.ResponseWriter, r *http.Request, symbol string) {
	closes, err := h.repo.ListCloses(symbol, 0)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to load closes")
		http.Error(w, "Failed to load closes", http.StatusInternalServerError)
		return
	}
	if len(closes) == 0 {
		http.Error(w, "No history for symbol", http.StatusNotFound)
		return
	}

	points := make([]map[string]interface{}, 0, len(closes))
	for _, c := range closes {
		points = append(points, map[string]interface{}{
			"date":  c.Date.Format(dateLayout),
			"close": c.Close,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbol": symbol,
			"closes": points,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(points),
		},
	})
}

// HandleListSymbols handles GET /api/history/securities
func (h *Handler) HandleListSymbols(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.repo.ListSymbols()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list symbols")
		http.Error(w, "Failed to list symbols", http.StatusInternalServerError)
		return
	}

	items := make([]map[string]interface{}, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, map[string]interface{}{
			"symbol":     s.Symbol,
			"count":      s.Count,
			"first_date": s.FirstDate.Format(dateLayout),
			"last_date":  s.LastDate.Format(dateLayout),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"securities": items,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(items),
		},
	})
}

// HandleDeleteSymbol handles DELETE /api/history/securities/{symbol}
func (h *Handler) HandleDeleteSymbol(w http.ResponseWriter, r *http.Request, symbol string) {
	deleted, err := h.repo.DeleteSymbol(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to delete symbol")
		http.Error(w, "Failed to delete symbol", http.StatusInternalServerError)
		return
	}
	if deleted == 0 {
		http.Error(w, "No history for symbol", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbol":  symbol,
			"deleted": deleted,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
