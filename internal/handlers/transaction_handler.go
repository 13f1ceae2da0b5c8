package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cryptoledger/internal/models"
	"cryptoledger/internal/pagination"
	"cryptoledger/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// CreateTransactionRequest represents the request payload for creating a transaction.
// Action, asset and timestamp rules are checked by the service so each violation
// gets its own error code.
type CreateTransactionRequest struct {
	CryptoCode   string           `json:"cryptoCode" binding:"required"`
	Action       string           `json:"action" binding:"required"`
	CryptoAmount *decimal.Decimal `json:"cryptoAmount" binding:"required" swaggertype:"string" example:"0.5"`
	Datetime     string           `json:"datetime" binding:"required" example:"2024-05-01T12:00:00Z"`
	ClientID     uint             `json:"clientId" binding:"required"`
}

// UpdateTransactionRequest represents a partial update. Omitted fields are left unchanged;
// money is ignored when cryptoAmount is present.
type UpdateTransactionRequest struct {
	CryptoAmount *decimal.Decimal `json:"cryptoAmount" swaggertype:"string" example:"0.75"`
	Datetime     *string          `json:"datetime" example:"2024-05-01T12:00:00Z"`
	Money        *decimal.Decimal `json:"money" swaggertype:"string" example:"150000.00"`
}

// transactionListQuery holds the optional list filters.
type transactionListQuery struct {
	ClientID   *uint  `form:"clientId" binding:"omitempty,min=1"`
	CryptoCode string `form:"cryptoCode" binding:"omitempty,crypto_asset"`
	Action     string `form:"action" binding:"omitempty,crypto_action"`
}

// CreateTransaction handles recording a purchase or sale
// @Summary     Create a transaction
// @Description Record a purchase or sale. Money is priced from the live quote feed; sales require sufficient balance.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} TransactionResponse "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient balance"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Failure     502 {object} ErrorResponse "Price feed unavailable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	datetime, err := parseFlexibleTime(req.Datetime)
	if err != nil {
		respondWithBindError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(
		c.Request.Context(),
		req.ClientID,
		req.CryptoCode,
		req.Action,
		*req.CryptoAmount,
		datetime,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditCreateTransaction, "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{
			"clientId":     transaction.ClientID,
			"cryptoCode":   transaction.CryptoCode,
			"action":       transaction.Action,
			"cryptoAmount": transaction.CryptoAmount.String(),
			"money":        transaction.Money.String(),
		})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetTransactions handles listing transactions, newest first
// @Summary     List transactions
// @Tags        transactions
// @Produce     json
// @Param       page       query int    false "Page number (default 1)"
// @Param       pageSize   query int    false "Items per page (default 20, max 100)"
// @Param       clientId   query int    false "Filter by client ID"
// @Param       cryptoCode query string false "Filter by crypto code (btc, eth, usdt)"
// @Param       action     query string false "Filter by action (purchase, sale)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithBindError(c, err)
		return
	}

	var query transactionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithBindError(c, err)
		return
	}

	result, err := h.transactionService.GetTransactions(page, query.filter())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (q transactionListQuery) filter() services.TransactionFilter {
	var filter services.TransactionFilter
	filter.ClientID = q.ClientID
	if q.CryptoCode != "" {
		code := models.NormalizeAsset(q.CryptoCode)
		filter.CryptoCode = &code
	}
	if q.Action != "" {
		action := models.Action(q.Action)
		filter.Action = &action
	}
	return filter
}

// GetTransactionByID handles fetching a single transaction
// @Summary     Get transaction
// @Tags        transactions
// @Produce     json
// @Param       id path int true "Transaction ID"
// @Success     200 {object} TransactionResponse "Transaction"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction handles a partial update
// @Summary     Update transaction
// @Description Change quantity and/or datetime. A new quantity re-prices the transaction; money can only be set directly when quantity is omitted.
// @Tags        transactions
// @Accept      json
// @Security    ApiKeyAuth
// @Param       id      path int                      true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     204 "Transaction updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     502 {object} ErrorResponse "Price feed unavailable"
// @Router      /transactions/{id} [patch]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	fields := services.TransactionUpdateFields{
		CryptoAmount: req.CryptoAmount,
		Money:        req.Money,
	}
	if req.Datetime != nil {
		parsed, parseErr := parseFlexibleTime(*req.Datetime)
		if parseErr != nil {
			respondWithBindError(c, parseErr)
			return
		}
		fields.Datetime = &parsed
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request.Context(), transactionID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditUpdateTransaction, "transaction", transactionID, c.ClientIP(),
		map[string]interface{}{
			"cryptoAmount": transaction.CryptoAmount.String(),
			"money":        transaction.Money.String(),
			"datetime":     transaction.Datetime,
		})

	c.Status(http.StatusNoContent)
}

// DeleteTransaction handles deleting a transaction
// @Summary     Delete transaction
// @Tags        transactions
// @Security    ApiKeyAuth
// @Param       id path int true "Transaction ID"
// @Success     204 "Transaction deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditDeleteTransaction, "transaction", transactionID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
