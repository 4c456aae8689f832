package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/subsearch/internal/entity"
	"github.com/eslsoft/subsearch/internal/usecase"
)

const maxRequestBody = 1 << 20

// Handler exposes the search usecase over JSON HTTP.
type Handler struct {
	search usecase.SearchUsecase
	logger *logrus.Logger
}

func NewHandler(search usecase.SearchUsecase, logger *logrus.Logger) *Handler {
	return &Handler{search: search, logger: logger}
}

// Routes builds the service mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/cards/search", h.handleSearch)
	mux.HandleFunc("/v1/cards/source-counts", h.handleSourceCounts)
	mux.HandleFunc("/v1/search/suggest", h.handleSuggest)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var dto searchRequest
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := h.search.Search(r.Context(), dto.toEntity())
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchResponseDTO(resp))
}

func (h *Handler) handleSourceCounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var dto searchRequest
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	counts, err := h.search.CountBySource(r.Context(), dto.toEntity())
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}

	out := make([]sourceCountDTO, 0, len(counts))
	for _, count := range counts {
		out = append(out, sourceCountDTO{SourceID: count.SourceID, Title: count.Title, Count: count.Count})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": out})
}

func (h *Handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	prefix := query.Get("q")
	lang := entity.ParseLanguage(query.Get("lang"))
	var limit int32
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be an integer")
			return
		}
		limit = int32(parsed)
	}

	terms, err := h.search.Suggest(r.Context(), prefix, lang, limit)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}

	out := make([]suggestTermDTO, 0, len(terms))
	for _, term := range terms {
		out = append(out, suggestTermDTO{Term: term.Term, Language: term.Language.Code(), Frequency: term.Frequency})
	}
	writeJSON(w, http.StatusOK, map[string]any{"terms": out})
}

func (h *Handler) writeUsecaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidQuery),
		errors.Is(err, entity.ErrUnknownLevel),
		errors.Is(err, entity.ErrUserRequired):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		h.logger.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
