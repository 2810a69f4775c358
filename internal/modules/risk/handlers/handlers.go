// Package handlers provides HTTP handlers for risk statistics operations.
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskd/internal/modules/risk"
	"github.com/aristath/riskd/pkg/formulas"
	"github.com/aristath/riskd/pkg/timeseries"
)

const dateLayout = "2006-01-02"

// Handler handles risk statistics HTTP requests
type Handler struct {
	service *risk.Service
	log     zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(service *risk.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "risk").Logger(),
	}
}

// HandleGetVariance handles GET /api/risk/securities/{symbol}/variance
func (h *Handler) HandleGetVariance(w http.ResponseWriter, r *http.Request, symbol string) {
	series, err := h.service.VarianceSeries(symbol)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSeries(w, symbol, "riskmetrics", series, map[string]interface{}{
		"decay": 0.94,
	})
}

// HandleGetHistoricalVaR handles GET /api/risk/securities/{symbol}/var/historical
func (h *Handler) HandleGetHistoricalVaR(w http.ResponseWriter, r *http.Request, symbol string) {
	params, ok := h.parseVaRQuery(w, r, symbol)
	if !ok {
		return
	}

	series, err := h.service.HistoricalVaR(params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSeries(w, symbol, "historical", series, map[string]interface{}{
		"window":     params.Window,
		"confidence": params.Confidence,
	})
}

// HandleGetWeightedVaR handles GET /api/risk/securities/{symbol}/var/weighted
func (h *Handler) HandleGetWeightedVaR(w http.ResponseWriter, r *http.Request, symbol string) {
	params, ok := h.parseVaRQuery(w, r, symbol)
	if !ok {
		return
	}

	if raw := r.URL.Query().Get("lambda"); raw != "" {
		lambda, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "Invalid lambda", http.StatusBadRequest)
			return
		}
		params.Lambda = lambda
	}

	series, err := h.service.WeightedHistoricalVaR(params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	extra := map[string]interface{}{
		"window":     params.Window,
		"confidence": params.Confidence,
	}
	if params.Lambda > 0 {
		extra["lambda"] = params.Lambda
	}
	h.writeSeries(w, symbol, "weighted", series, extra)
}

type snapshotRequest struct {
	Symbol     string  `json:"symbol"`
	Method     string  `json:"method"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
	Window     int     `json:"window"`
	Confidence float64 `json:"confidence"`
	Lambda     float64 `json:"lambda"`
}

// HandleCreateSnapshot handles POST /api/risk/snapshots
func (h *Handler) HandleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" {
		http.Error(w, "Symbol is required", http.StatusBadRequest)
		return
	}

	params := risk.SnapshotParams{
		Symbol:     req.Symbol,
		Method:     risk.Method(req.Method),
		Window:     req.Window,
		Confidence: req.Confidence,
		Lambda:     req.Lambda,
	}

	var err error
	if req.Start != "" {
		if params.Start, err = time.Parse(dateLayout, req.Start); err != nil {
			http.Error(w, "Invalid start date", http.StatusBadRequest)
			return
		}
	}
	if req.End != "" {
		if params.End, err = time.Parse(dateLayout, req.End); err != nil {
			http.Error(w, "Invalid end date", http.StatusBadRequest)
			return
		}
	}

	snapshot, err := h.service.ComputeSnapshot(params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": snapshot,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetSnapshot handles GET /api/risk/snapshots/{id}
func (h *Handler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request, id string) {
	snapshot, err := h.service.GetSnapshot(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Snapshot not found", http.StatusNotFound)
			return
		}
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": snapshot,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleListSnapshots handles GET /api/risk/securities/{symbol}/snapshots
func (h *Handler) HandleListSnapshots(w http.ResponseWriter, r *http.Request, symbol string) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	snapshots, err := h.service.ListSnapshots(symbol, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if snapshots == nil {
		snapshots = []*risk.Snapshot{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbol":    symbol,
			"snapshots": snapshots,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(snapshots),
		},
	})
}

// parseVaRQuery extracts the shared start/end/window/confidence query
// parameters. On failure it writes a 400 and returns ok=false.
func (h *Handler) parseVaRQuery(w http.ResponseWriter, r *http.Request, symbol string) (risk.VaRParams, bool) {
	q := r.URL.Query()
	params := risk.VaRParams{Symbol: symbol}

	start, err := time.Parse(dateLayout, q.Get("start"))
	if err != nil {
		http.Error(w, "Invalid or missing start date", http.StatusBadRequest)
		return params, false
	}
	end, err := time.Parse(dateLayout, q.Get("end"))
	if err != nil {
		http.Error(w, "Invalid or missing end date", http.StatusBadRequest)
		return params, false
	}
	window, err := strconv.Atoi(q.Get("window"))
	if err != nil {
		http.Error(w, "Invalid or missing window", http.StatusBadRequest)
		return params, false
	}
	confidence, err := strconv.ParseFloat(q.Get("confidence"), 64)
	if err != nil {
		http.Error(w, "Invalid or missing confidence", http.StatusBadRequest)
		return params, false
	}

	params.Start = start
	params.End = end
	params.Window = window
	params.Confidence = confidence
	return params, true
}

// writeSeries writes a (date, value) series response in the standard
// data/metadata envelope.
func (h *Handler) writeSeries(w http.ResponseWriter, symbol, method string, series *timeseries.Series, extra map[string]interface{}) {
	points := make([]map[string]interface{}, 0, series.Len())
	for i := 0; i < series.Len(); i++ {
		// NaN is not representable in JSON; undefined heads become null
		var value interface{}
		if v := series.Value(i); !math.IsNaN(v) {
			value = v
		}
		points = append(points, map[string]interface{}{
			"date":  series.Date(i).Format(dateLayout),
			"value": value,
		})
	}

	data := map[string]interface{}{
		"symbol": symbol,
		"method": method,
		"series": points,
	}
	for k, v := range extra {
		data[k] = v
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(points),
		},
	})
}

// writeError maps estimator errors to HTTP statuses: invalid parameters
// are client errors, unknown symbols and dates are 404, and data that
// cannot support the computation is 422.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, formulas.ErrInvalidParameter):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, formulas.ErrDateNotFound), errors.Is(err, risk.ErrNoHistory):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, formulas.ErrInsufficientData),
		errors.Is(err, formulas.ErrWindowUnderflow),
		errors.Is(err, formulas.ErrThresholdNotReached):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Error().Err(err).Msg("Risk computation failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
