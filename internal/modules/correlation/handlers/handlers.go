// Package handlers provides HTTP handlers for filing correlation and staging.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/insights/internal/domain"
	"github.com/aristath/insights/internal/modules/staging"
	"github.com/rs/zerolog"
)

// Correlator runs the filing pipeline
type Correlator interface {
	Run(ctx context.Context, symbol, filingType string) (*domain.CorrelationResult, error)
	FilingType() string
}

// Stager parks results for downstream analysis
type Stager interface {
	Stage(result *domain.CorrelationResult) (*staging.StagedFiling, error)
	Get(id string) (*staging.StagedFiling, error)
	Discard(id string) error
}

// Handler handles filing HTTP requests
type Handler struct {
	pipeline Correlator
	stager   Stager
	log      zerolog.Logger
}

// NewHandler creates a new filings handler
func NewHandler(
	pipeline Correlator,
	stager Stager,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		pipeline: pipeline,
		stager:   stager,
		log:      log.With().Str("handler", "filings").Logger(),
	}
}

// HandleGetFiling handles GET /api/filings/{symbol}
// Query: type (form type, default from config), include_document (bool)
func (h *Handler) HandleGetFiling(w http.ResponseWriter, r *http.Request, symbol string) {
	result, err := h.pipeline.Run(r.Context(), symbol, h.filingType(r))
	if err != nil {
		h.writePipelineError(w, symbol, err)
		return
	}

	includeDocument, _ := strconv.ParseBool(r.URL.Query().Get("include_document"))

	response := map[string]interface{}{
		"data": summarize(result, includeDocument),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleStageFiling handles POST /api/filings/{symbol}/stage
func (h *Handler) HandleStageFiling(w http.ResponseWriter, r *http.Request, symbol string) {
	result, err := h.pipeline.Run(r.Context(), symbol, h.filingType(r))
	if err != nil {
		h.writePipelineError(w, symbol, err)
		return
	}

	staged, err := h.stager.Stage(result)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", result.Symbol).Msg("Failed to stage filing")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to stage filing",
		})
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"id":         staged.ID,
			"staged_at":  staged.StagedAt.Format(time.RFC3339),
			"expires_at": staged.ExpiresAt.Format(time.RFC3339),
			"result":     summarize(result, false),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusCreated, response)
}

// HandleGetStaged handles GET /api/filings/staged/{id}
func (h *Handler) HandleGetStaged(w http.ResponseWriter, r *http.Request, id string) {
	staged, err := h.stager.Get(id)
	if errors.Is(err, staging.ErrNotFound) {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Staged filing not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to get staged filing")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Failed to get staged filing"})
		return
	}

	data := summarize(&staged.Result, true)
	data["id"] = staged.ID
	data["staged_at"] = staged.StagedAt.Format(time.RFC3339)
	data["expires_at"] = staged.ExpiresAt.Format(time.RFC3339)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleDiscardStaged handles DELETE /api/filings/staged/{id}
func (h *Handler) HandleDiscardStaged(w http.ResponseWriter, r *http.Request, id string) {
	err := h.stager.Discard(id)
	if errors.Is(err, staging.ErrNotFound) {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Staged filing not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to discard staged filing")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "Failed to discard staged filing"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) filingType(r *http.Request) string {
	if t := strings.TrimSpace(r.URL.Query().Get("type")); t != "" {
		return strings.ToUpper(t)
	}
	return h.pipeline.FilingType()
}

// writePipelineError maps a pipeline failure to a status code and a message free of internal URLs
func (h *Handler) writePipelineError(w http.ResponseWriter, symbol string, err error) {
	var perr *domain.PipelineError
	if !errors.As(err, &perr) {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Pipeline failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to process symbol",
		})
		return
	}

	h.writeJSON(w, StatusForKind(perr.Kind()), map[string]interface{}{
		"error":  perr.UserMessage(),
		"symbol": perr.Symbol,
		"stage":  string(perr.Stage),
	})
}

// StatusForKind maps an error kind to an HTTP status
func StatusForKind(kind error) int {
	switch kind {
	case domain.ErrUnknownSymbol, domain.ErrNoFilingFound:
		return http.StatusNotFound
	case domain.ErrFetchFailure, domain.ErrMalformedSource:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// summarize renders a result; the document text is replaced by its length unless requested
func summarize(result *domain.CorrelationResult, includeDocument bool) map[string]interface{} {
	data := map[string]interface{}{
		"symbol":                               result.Symbol,
		"company_name":                         result.CompanyName,
		"filing_type":                          result.FilingType,
		"filing_date":                          result.FilingDate.Format("2006-01-02"),
		"filing_url":                           result.FilingURL,
		"accession_id":                         result.AccessionID,
		"filing_price_at_or_after_filing_date": result.FilingPriceAtOrAfterFilingDate,
		"most_recent_price":                    result.MostRecentPrice,
		"document_length":                      len(result.DocumentText),
	}

	if change, ok := result.PriceChange(); ok {
		data["price_change"] = change.Round(6)
	}
	if includeDocument {
		data["document_text"] = result.DocumentText
	}

	return data
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
