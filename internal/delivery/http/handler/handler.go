package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/artifact"
	"github.com/user/trackscope/internal/delivery/http/request"
	"github.com/user/trackscope/internal/delivery/http/response"
	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/internal/usecase"
	"github.com/user/trackscope/pkg/utils"
)

// ResultAnnotator adds cookie and tracker analyses to a stored result.
type ResultAnnotator interface {
	Annotate(ctx context.Context, profile, domain string) (*entity.ResultDocument, error)
}

// TrackerLookup classifies a single hostname.
type TrackerLookup interface {
	Classify(ctx context.Context, candidate string) entity.TrackerVerdict
}

type Handler struct {
	jobs      usecase.JobManager
	results   repository.ResultStore
	annotator ResultAnnotator
	trackers  TrackerLookup
	logger    *zap.Logger
}

// NewHandler wires the API. annotator and trackers may be nil when no
// filter lists are configured; their endpoints then answer 503.
func NewHandler(jobs usecase.JobManager, results repository.ResultStore, annotator ResultAnnotator, trackers TrackerLookup, logger *zap.Logger) *Handler {
	return &Handler{
		jobs:      jobs,
		results:   results,
		annotator: annotator,
		trackers:  trackers,
		logger:    logger.Named("api"),
	}
}

func (h *Handler) HandleSubmitCrawl(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	domain, ok := normalizeDomain(req.Domain)
	if !ok {
		h.writeJSONError(w, "Invalid domain", http.StatusBadRequest)
		return
	}
	if req.Profile == "" {
		h.writeJSONError(w, "Profile is required", http.StatusBadRequest)
		return
	}

	crawlID, err := h.jobs.Submit(r.Context(), domain, req.Profile, req.ForceCrawl)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrRecentlyCrawled):
			h.writeJSONError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, usecase.ErrUnknownProfile):
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("Failed to submit crawl", zap.String("domain", domain), zap.Error(err))
			h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	resp := response.SubmitCrawlResponse{
		Status:         "success",
		Message:        "Domain submitted for crawling",
		CrawlRequestID: crawlID,
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) HandleGetCrawlStatus(w http.ResponseWriter, r *http.Request) {
	domain, ok := normalizeDomain(r.URL.Query().Get("domain"))
	profile := r.URL.Query().Get("profile")
	if !ok || profile == "" {
		h.writeJSONError(w, "domain and profile query parameters are required", http.StatusBadRequest)
		return
	}

	status, err := h.jobs.GetStatus(r.Context(), domain, profile)
	if err != nil {
		h.logger.Error("Failed to get crawl status", zap.String("domain", domain), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if status.CurrentStatus == "not_found" {
		h.writeJSONError(w, "Crawl status not found for the given domain", http.StatusNotFound)
		return
	}

	resp := response.CrawlStatusResponse{
		Domain:             status.Domain,
		Profile:            status.Profile,
		CurrentStatus:      status.CurrentStatus,
		LastCrawlTimestamp: status.LastCrawlTimestamp,
		FailureReason:      status.FailureReason,
		RetryCount:         status.RetryCount,
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleGetResult streams the stored document as is, after checking it
// against the artifact validity rule.
func (h *Handler) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	profile, domain := chi.URLParam(r, "profile"), chi.URLParam(r, "domain")

	raw, err := h.results.Raw(r.Context(), profile, domain)
	if err == nil {
		err = artifact.Validate(raw)
	}
	if err != nil {
		h.writeStoreError(w, err, domain)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		h.logger.Warn("Failed to write result", zap.String("domain", domain), zap.Error(err))
	}
}

func (h *Handler) HandleAnnotate(w http.ResponseWriter, r *http.Request) {
	if h.annotator == nil {
		h.writeJSONError(w, "Classification is not configured", http.StatusServiceUnavailable)
		return
	}
	profile, domain := chi.URLParam(r, "profile"), chi.URLParam(r, "domain")

	doc, err := h.annotator.Annotate(r.Context(), profile, domain)
	if err != nil {
		h.writeStoreError(w, err, domain)
		return
	}
	h.writeJSON(w, http.StatusOK, response.AnnotationResponse{
		Domain:          doc.Domain,
		Profile:         doc.Profile,
		CookieAnalysis:  doc.CookieAnalysis,
		TrackerAnalysis: doc.TrackerAnalysis,
	})
}

func (h *Handler) HandleClassifyHost(w http.ResponseWriter, r *http.Request) {
	if h.trackers == nil {
		h.writeJSONError(w, "Classification is not configured", http.StatusServiceUnavailable)
		return
	}
	host := utils.NormalizeHost(chi.URLParam(r, "host"))
	if host == "" {
		h.writeJSONError(w, "Invalid host", http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, h.trackers.Classify(r.Context(), host))
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error, domain string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.writeJSONError(w, "Result not found", http.StatusNotFound)
	case errors.Is(err, repository.ErrCorruptArtifact):
		h.writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error("Failed to read result", zap.String("domain", domain), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func normalizeDomain(raw string) (string, bool) {
	d := utils.NormalizeHost(raw)
	if d == "" || !strings.Contains(d, ".") || strings.ContainsAny(d, " \t") {
		return "", false
	}
	return d, true
}
