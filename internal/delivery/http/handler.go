package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	reportService *usecase.ReportService
}

// NewHandler creates a new HTTP handler
func NewHandler(reportService *usecase.ReportService) *Handler {
	return &Handler{reportService: reportService}
}

// ListingsRequest is the request body shared by the listing endpoints.
type ListingsRequest struct {
	Listings []domain.RawListing `json:"listings" binding:"required"`
}

// NormalizeResponse is returned by the normalize endpoint.
type NormalizeResponse struct {
	Products    []*domain.NormalizedProduct `json:"products"`
	Diagnostics []domain.Diagnostic         `json:"diagnostics"`
}

// ComparisonsResponse is returned by the comparisons endpoint.
type ComparisonsResponse struct {
	Comparisons []domain.PriceComparison `json:"comparisons"`
	Diagnostics []domain.Diagnostic      `json:"diagnostics"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricelens-backend",
		"version": "1.0.0",
	})
}

// NormalizeListings handles POST /api/v1/listings/normalize
func (h *Handler) NormalizeListings(c *gin.Context) {
	if h.reportService == nil {
		notConfigured(c)
		return
	}

	req, ok := bindListings(c)
	if !ok {
		return
	}

	products, diagnostics := h.reportService.Engine().NormalizeBatch(req.Listings)
	c.JSON(http.StatusOK, NormalizeResponse{Products: products, Diagnostics: diagnostics})
}

// FindComparisons handles POST /api/v1/listings/comparisons
func (h *Handler) FindComparisons(c *gin.Context) {
	if h.reportService == nil {
		notConfigured(c)
		return
	}

	req, ok := bindListings(c)
	if !ok {
		return
	}

	engine := h.reportService.Engine()
	products, diagnostics := engine.NormalizeBatch(req.Listings)
	comparisons := engine.FindPriceComparisons(products)

	c.JSON(http.StatusOK, ComparisonsResponse{Comparisons: comparisons, Diagnostics: diagnostics})
}

// CreateReport handles POST /api/v1/reports
func (h *Handler) CreateReport(c *gin.Context) {
	if h.reportService == nil {
		notConfigured(c)
		return
	}

	req, ok := bindListings(c)
	if !ok {
		return
	}

	record, err := h.reportService.GenerateReport(c.Request.Context(), req.Listings)
	if err != nil {
		zap.L().Error("report generation failed", zap.Int("listings", len(req.Listings)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
		return
	}

	c.JSON(http.StatusCreated, record)
}

// GetReport handles GET /api/v1/reports/:id
func (h *Handler) GetReport(c *gin.Context) {
	if h.reportService == nil {
		notConfigured(c)
		return
	}

	id := c.Param("id")
	record, err := h.reportService.GetReport(c.Request.Context(), id)
	switch {
	case errors.Is(err, domain.ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found", "id": id})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Report id is required"})
	case err != nil:
		zap.L().Error("report lookup failed", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load report"})
	default:
		c.JSON(http.StatusOK, record)
	}
}

// bindListings decodes the request body and writes a 400 response on failure.
func bindListings(c *gin.Context) (*ListingsRequest, bool) {
	var req ListingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return nil, false
	}
	return &req, true
}

func notConfigured(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": "Matching service not configured",
	})
}
