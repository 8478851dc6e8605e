package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/jengzang/taxi-analytics-go/internal/models"
	"github.com/jengzang/taxi-analytics-go/internal/service"
	"github.com/jengzang/taxi-analytics-go/pkg/response"
)

// DashboardHandler handles HTTP requests for the trip dashboard
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// Health handles GET /health
func (h *DashboardHandler) Health(c *gin.Context) {
	response.Success(c, h.dashboardService.Health())
}

// GetFilterOptions handles GET /api/v1/filters/options
func (h *DashboardHandler) GetFilterOptions(c *gin.Context) {
	opts, err := h.dashboardService.Options(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, opts)
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	var f models.TripFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	dashboard, err := h.dashboardService.Dashboard(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, dashboard)
}

// GetChart handles GET /api/v1/charts/:name
func (h *DashboardHandler) GetChart(c *gin.Context) {
	var f models.TripFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	chart, err := h.dashboardService.Chart(c.Request.Context(), c.Param("name"), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, chart)
}

// ExportTrips handles GET /api/v1/trips/export
func (h *DashboardHandler) ExportTrips(c *gin.Context) {
	var f models.TripFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	view, err := h.dashboardService.Export(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}

	filename := fmt.Sprintf("trips_%s.csv", time.Now().UTC().Format("20060102T150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := view.WriteCSV(c.Writer); err != nil {
		// headers are already sent
		log.WithError(err).WithField("rows", view.Len()).Error("CSV export failed")
		_ = c.Error(err)
	}
}

// fail maps service errors to status codes
func (h *DashboardHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidFilter):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrUnknownChart):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrDatasetUnavailable):
		log.WithError(err).Error("Dataset load failed")
		response.ServiceUnavailable(c, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c, err.Error())
	}
}
