package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/tokosume/toko_backoffice_app/internal/core/ports/services"
	"github.com/tokosume/toko_backoffice_app/internal/middleware"
)

const chartQueryLayout = "2006-01-02"

// reportingHandler handles HTTP requests for chart series.
type reportingHandler struct {
	reportingService portssvc.ReportingSvcFacade
}

func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingSvcFacade) {
	h := &reportingHandler{reportingService: reportingService}
	rg.GET("/journal/chart", h.dailyTotals)
}

// dailyTotals returns the sale-vs-buy daily series. Optional from/to query
// parameters (YYYY-MM-DD) bound the range; without them the service uses its
// default trailing window.
func (h *reportingHandler) dailyTotals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tenantID, _, ok := callerIdentity(c)
	if !ok {
		return
	}

	var start, end time.Time
	if fromStr := c.Query("from"); fromStr != "" {
		t, err := time.Parse(chartQueryLayout, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from parameter, expected YYYY-MM-DD"})
			return
		}
		start = t
	}
	if toStr := c.Query("to"); toStr != "" {
		t, err := time.Parse(chartQueryLayout, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to parameter, expected YYYY-MM-DD"})
			return
		}
		// Inclusive end of day.
		end = t.Add(24*time.Hour - time.Nanosecond)
	}

	totals, err := h.reportingService.DailyTotals(c.Request.Context(), tenantID, start, end)
	if err != nil {
		respondJournalError(c, logger, "chart query", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": totals})
}
