package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
	"github.com/A-Yoshitsugu/crossborder/internal/usecase"
)

// OpportunityService is the use-case surface the handlers depend on
type OpportunityService interface {
	CatalogReady() bool
	CatalogSize() int
	CatalogError() error
	FetchDemand(ctx context.Context, query domain.DemandQuery) ([]domain.DemandItem, error)
	MatchItems(ctx context.Context, items []domain.DemandItem) (*usecase.MatchResult, error)
	ScoreMatches(matches []domain.MatchRecord, requestPrices map[string]domain.RefPrice, overrides domain.FeeOverrides) (*usecase.ScoreResult, error)
	FindOpportunities(ctx context.Context, query usecase.OpportunityQuery) (*domain.OpportunityReport, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service OpportunityService
	version string
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(service OpportunityService, version string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, version: version, logger: logger}
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// MatchRequest is the body of POST /api/v1/match
type MatchRequest struct {
	Items []domain.DemandItem `json:"items" binding:"required"`
}

// MatchResponse lists one match per valid demand item
type MatchResponse struct {
	Matches  []domain.MatchRecord `json:"matches"`
	Failures []domain.RecordError `json:"failures"`
}

// ScoreRequest is the body of POST /api/v1/score.
// Fee fields left out fall back to the configured defaults.
type ScoreRequest struct {
	Matches   []domain.MatchRecord       `json:"matches" binding:"required"`
	RefPrices map[string]domain.RefPrice `json:"ref_prices"`
	domain.FeeOverrides
}

// ScoreResponse lists the rows that cleared the margin threshold, best first
type ScoreResponse struct {
	Scored   []domain.ScoredRow   `json:"scored"`
	Failures []domain.RecordError `json:"failures"`
}

// OpportunityRequest is the body of POST /api/v1/opportunities
type OpportunityRequest struct {
	Categories []string `json:"categories" binding:"required"`
	Days       int      `json:"days"`
	domain.FeeOverrides
}

// HealthCheck returns the health status of the API.
// A failed catalog load is reported as "degraded" with 503.
func (h *Handler) HealthCheck(c *gin.Context) {
	code := http.StatusOK
	body := gin.H{
		"status":        "healthy",
		"service":       "crossborder-backend",
		"version":       h.version,
		"catalog_ready": h.service.CatalogReady(),
		"catalog_size":  h.service.CatalogSize(),
	}

	switch err := h.service.CatalogError(); {
	case err != nil:
		code = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["catalog_error"] = err.Error()
	case !h.service.CatalogReady():
		body["status"] = "starting"
	}
	c.JSON(code, body)
}

// GetDemand handles GET /api/v1/demand?cats=a,b&days=30
func (h *Handler) GetDemand(c *gin.Context) {
	query := domain.DemandQuery{Categories: splitCategories(c.QueryArray("cats"))}
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(c, &domain.ValidationError{Field: "days", Reason: "must be an integer"})
			return
		}
		query.Days = days
	}

	items, err := h.service.FetchDemand(c.Request.Context(), query)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// MatchItems handles POST /api/v1/match
func (h *Handler) MatchItems(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}
	if !h.service.CatalogReady() {
		h.respondError(c, domain.ErrCatalogNotReady)
		return
	}

	result, err := h.service.MatchItems(c.Request.Context(), req.Items)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MatchResponse{
		Matches:  nonNil(result.Matches),
		Failures: nonNil(result.Failures),
	})
}

// ScoreMatches handles POST /api/v1/score
func (h *Handler) ScoreMatches(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	result, err := h.service.ScoreMatches(req.Matches, req.RefPrices, req.FeeOverrides)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ScoreResponse{
		Scored:   nonNil(result.Rows),
		Failures: nonNil(result.Failures),
	})
}

// FindOpportunities handles POST /api/v1/opportunities
func (h *Handler) FindOpportunities(c *gin.Context) {
	var req OpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}
	if !h.service.CatalogReady() {
		h.respondError(c, domain.ErrCatalogNotReady)
		return
	}

	report, err := h.service.FindOpportunities(c.Request.Context(), usecase.OpportunityQuery{
		Categories: req.Categories,
		Days:       req.Days,
		Overrides:  req.FeeOverrides,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	report.Matches = nonNil(report.Matches)
	report.Scored = nonNil(report.Scored)
	report.Failures = nonNil(report.Failures)
	c.JSON(http.StatusOK, report)
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCatalogNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNoCandidates), errors.Is(err, domain.ErrConfig):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrUpstreamFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), RequestID: c.GetString(requestIDKey)}

	var cfgErr *domain.ConfigError
	var valErr *domain.ValidationError
	switch {
	case errors.As(err, &cfgErr):
		resp.Field = cfgErr.Field
	case errors.As(err, &valErr):
		resp.Field = valErr.Field
	}

	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		h.logger.Error("request failed", zap.String("request_id", resp.RequestID), zap.Error(err))
		if status == http.StatusInternalServerError {
			resp.Error = "internal server error"
		}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

func (h *Handler) respondBindError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:     "invalid request body: " + err.Error(),
		RequestID: c.GetString(requestIDKey),
	})
}

// splitCategories accepts both ?cats=a,b and ?cats=a&cats=b
func splitCategories(values []string) []string {
	var cats []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				cats = append(cats, part)
			}
		}
	}
	return cats
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
