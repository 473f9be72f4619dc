package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/tokosume/toko_backoffice_app/internal/core/ports/services"
	"github.com/tokosume/toko_backoffice_app/internal/dto"
	"github.com/tokosume/toko_backoffice_app/internal/middleware"
)

// stockHandler handles HTTP requests for derived stock.
type stockHandler struct {
	stockService portssvc.StockSvcFacade
}

func registerStockRoutes(rg *gin.RouterGroup, stockService portssvc.StockSvcFacade) {
	h := &stockHandler{stockService: stockService}
	rg.GET("/stock/current", h.currentStock)
}

// currentStock returns the derived per-unit stock map. Repeated unit_id query
// parameters narrow the response to those units.
func (h *stockHandler) currentStock(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tenantID, _, ok := callerIdentity(c)
	if !ok {
		return
	}

	unitIDs := c.QueryArray("unit_id")
	stock, err := h.stockService.CurrentStock(c.Request.Context(), tenantID, unitIDs)
	if err != nil {
		respondJournalError(c, logger, "stock query", err)
		return
	}

	logger.Debug("Stock derived", slog.Int("unit_count", len(stock)))
	c.JSON(http.StatusOK, dto.CurrentStockResponse{Stock: stock})
}
