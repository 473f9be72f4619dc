package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tokosume/toko_backoffice_app/internal/apperrors"
	"github.com/tokosume/toko_backoffice_app/internal/core/domain"
	portssvc "github.com/tokosume/toko_backoffice_app/internal/core/ports/services"
	"github.com/tokosume/toko_backoffice_app/internal/dto"
	"github.com/tokosume/toko_backoffice_app/internal/middleware"
)

// journalHandler handles HTTP requests related to journals.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

// newJournalHandler creates a new journalHandler.
func newJournalHandler(journalService portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{journalService: journalService}
}

func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := newJournalHandler(journalService)

	journal := rg.Group("/journal")
	{
		journal.POST("/sale", h.createSale)
		journal.POST("/buy", h.createBuy)
		journal.POST("/return/sale", h.createSaleReturn)
		journal.POST("/return/buy", h.createBuyReturn)
		journal.POST("/debt/ar", h.createAR)
		journal.POST("/debt/ap", h.createAP)
		journal.POST("/payment/ar", h.createARPayment)
		journal.POST("/payment/ap", h.createAPPayment)
		journal.GET("/report/:type", h.listByType)
		journal.DELETE("/:code", h.softDelete)
		journal.POST("/:code/restore", h.restore)
	}
	rg.POST("/stock/adjust", h.adjustStock)
}

type transactionCreator func(c *gin.Context, tenantID string, req dto.CreateTransactionRequest, actorID string) (*domain.Journal, error)

func (h *journalHandler) createSale(c *gin.Context) {
	h.createTransaction(c, "sale", func(c *gin.Context, tenantID string, req dto.CreateTransactionRequest, actorID string) (*domain.Journal, error) {
		return h.journalService.CreateSale(c.Request.Context(), tenantID, req, actorID)
	})
}

func (h *journalHandler) createBuy(c *gin.Context) {
	h.createTransaction(c, "buy", func(c *gin.Context, tenantID string, req dto.CreateTransactionRequest, actorID string) (*domain.Journal, error) {
		return h.journalService.CreateBuy(c.Request.Context(), tenantID, req, actorID)
	})
}

func (h *journalHandler) createSaleReturn(c *gin.Context) {
	h.createTransaction(c, "sale return", func(c *gin.Context, tenantID string, req dto.CreateTransactionRequest, actorID string) (*domain.Journal, error) {
		return h.journalService.CreateSaleReturn(c.Request.Context(), tenantID, req, actorID)
	})
}

func (h *journalHandler) createBuyReturn(c *gin.Context) {
	h.createTransaction(c, "buy return", func(c *gin.Context, tenantID string, req dto.CreateTransactionRequest, actorID string) (*domain.Journal, error) {
		return h.journalService.CreateBuyReturn(c.Request.Context(), tenantID, req, actorID)
	})
}

func (h *journalHandler) createTransaction(c *gin.Context, label string, create transactionCreator) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for "+label, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorID, ok := callerIdentity(c)
	if !ok {
		return
	}

	journal, err := create(c, tenantID, req, actorID)
	if err != nil {
		respondJournalError(c, logger, label, err)
		return
	}

	logger.Info("Transaction recorded", slog.String("code", journal.Code), slog.String("type", string(journal.TypePrefix)))
	c.JSON(http.StatusCreated, dto.ToJournalResponse(journal))
}

func (h *journalHandler) createAR(c *gin.Context) {
	h.createDebt(c, "receivable", h.journalService.CreateAR)
}

func (h *journalHandler) createAP(c *gin.Context) {
	h.createDebt(c, "payable", h.journalService.CreateAP)
}

func (h *journalHandler) createDebt(c *gin.Context, label string, create func(ctx context.Context, tenantID string, req dto.CreateDebtRequest, actorID string) (*domain.Journal, error)) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for "+label, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorID, ok := callerIdentity(c)
	if !ok {
		return
	}

	journal, err := create(c.Request.Context(), tenantID, req, actorID)
	if err != nil {
		respondJournalError(c, logger, label, err)
		return
	}

	logger.Info("Debt recorded", slog.String("code", journal.Code))
	c.JSON(http.StatusCreated, dto.ToJournalResponse(journal))
}

func (h *journalHandler) createARPayment(c *gin.Context) {
	h.createPayment(c, "receivable payment", h.journalService.CreateARPayment)
}

func (h *journalHandler) createAPPayment(c *gin.Context) {
	h.createPayment(c, "payable payment", h.journalService.CreateAPPayment)
}

func (h *journalHandler) createPayment(c *gin.Context, label string, create func(ctx context.Context, tenantID string, req dto.CreatePaymentRequest, actorID string) (*domain.Journal, error)) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for "+label, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorID, ok := callerIdentity(c)
	if !ok {
		return
	}

	journal, err := create(c.Request.Context(), tenantID, req, actorID)
	if err != nil {
		respondJournalError(c, logger, label, err)
		return
	}

	logger.Info("Payment recorded", slog.String("code", journal.Code))
	c.JSON(http.StatusCreated, dto.ToJournalResponse(journal))
}

func (h *journalHandler) adjustStock(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for stock adjustment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorID, ok := callerIdentity(c)
	if !ok {
		return
	}

	journal, err := h.journalService.AdjustStock(c.Request.Context(), tenantID, req, actorID)
	if err != nil {
		respondJournalError(c, logger, "stock adjustment", err)
		return
	}

	logger.Info("Stock adjusted", slog.String("code", journal.Code))
	c.JSON(http.StatusCreated, dto.ToJournalResponse(journal))
}

func (h *journalHandler) listByType(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tenantID, _, ok := callerIdentity(c)
	if !ok {
		return
	}

	typePrefix := domain.TransactionType(c.Param("type"))
	params := dto.ListJournalsParams{}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		params.Limit = limit
	}
	if token := c.Query("nextToken"); token != "" {
		params.NextToken = &token
	}

	resp, err := h.journalService.FindByTypePrefix(c.Request.Context(), tenantID, typePrefix, params)
	if err != nil {
		respondJournalError(c, logger, "journal listing", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *journalHandler) softDelete(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tenantID, actorID, ok := callerIdentity(c)
	if !ok {
		return
	}

	code := c.Param("code")
	if err := h.journalService.SoftDeleteJournal(c.Request.Context(), tenantID, code, actorID); err != nil {
		respondJournalError(c, logger, "journal deletion", err)
		return
	}
	logger.Info("Journal soft deleted", slog.String("code", code))
	c.Status(http.StatusNoContent)
}

func (h *journalHandler) restore(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tenantID, actorID, ok := callerIdentity(c)
	if !ok {
		return
	}

	code := c.Param("code")
	if err := h.journalService.RestoreJournal(c.Request.Context(), tenantID, code, actorID); err != nil {
		respondJournalError(c, logger, "journal restore", err)
		return
	}
	logger.Info("Journal restored", slog.String("code", code))
	c.Status(http.StatusNoContent)
}

// callerIdentity pulls the tenant and user from the auth context, replying
// 401 itself when either is missing.
func callerIdentity(c *gin.Context) (tenantID, actorID string, ok bool) {
	tenantID, tenantOK := middleware.GetTenantIDFromContext(c)
	actorID, userOK := middleware.GetUserIDFromContext(c)
	if !tenantOK || !userOK {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	return tenantID, actorID, true
}

// respondJournalError maps service errors to HTTP statuses.
func respondJournalError(c *gin.Context, logger *slog.Logger, label string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error in "+label, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Not found in "+label, slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Conflict in "+label, slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Failed to handle "+label, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
