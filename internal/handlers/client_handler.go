package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cryptoledger/internal/pagination"
	"cryptoledger/internal/services"
)

// ClientHandler handles client-related requests.
type ClientHandler struct {
	clientService services.ClientServicer
	ledgerService services.LedgerServicer
	auditService  services.AuditServicer
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clientService services.ClientServicer, ledgerService services.LedgerServicer, auditService services.AuditServicer) *ClientHandler {
	return &ClientHandler{clientService: clientService, ledgerService: ledgerService, auditService: auditService}
}

// ClientRequest is the payload for creating or replacing a client.
type ClientRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Email string `json:"email" binding:"required,email,max=254"`
}

// BalancesResponse lists a client's holdings per supported asset.
type BalancesResponse struct {
	ClientID uint               `json:"clientId"`
	Balances []services.Holding `json:"balances"`
}

// CreateClient handles client registration
// @Summary     Create a client
// @Tags        clients
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body ClientRequest true "Client details"
// @Success     201 {object} ClientResponse "Client created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	client, err := h.clientService.CreateClient(req.Name, req.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditCreateClient, "client", client.ID, c.ClientIP(),
		map[string]interface{}{"name": client.Name, "email": client.Email})

	c.JSON(http.StatusCreated, gin.H{"client": client})
}

// GetClients handles listing clients
// @Summary     List clients
// @Tags        clients
// @Produce     json
// @Param       page     query int false "Page number (default 1)"
// @Param       pageSize query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Client] "Paginated clients"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /clients [get]
func (h *ClientHandler) GetClients(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithBindError(c, err)
		return
	}

	result, err := h.clientService.GetClients(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetClientByID handles fetching a single client
// @Summary     Get client
// @Tags        clients
// @Produce     json
// @Param       id path int true "Client ID"
// @Success     200 {object} ClientResponse "Client"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Router      /clients/{id} [get]
func (h *ClientHandler) GetClientByID(c *gin.Context) {
	clientID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	client, err := h.clientService.GetClientByID(clientID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": client})
}

// UpdateClient handles replacing a client's details
// @Summary     Update client
// @Tags        clients
// @Accept      json
// @Security    ApiKeyAuth
// @Param       id      path int           true "Client ID"
// @Param       request body ClientRequest true "Client details"
// @Success     204 "Client updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Router      /clients/{id} [put]
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	clientID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	if _, err := h.clientService.UpdateClient(clientID, req.Name, req.Email); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditUpdateClient, "client", clientID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "email": req.Email})

	c.Status(http.StatusNoContent)
}

// DeleteClient handles deleting a client and its transactions
// @Summary     Delete client
// @Tags        clients
// @Security    ApiKeyAuth
// @Param       id path int true "Client ID"
// @Success     204 "Client deleted"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Router      /clients/{id} [delete]
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	clientID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.clientService.DeleteClient(clientID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditDeleteClient, "client", clientID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// GetClientBalances handles listing a client's holdings
// @Summary     Get client balances
// @Description Net quantity (purchases minus sales) of every supported asset
// @Tags        clients
// @Produce     json
// @Param       id path int true "Client ID"
// @Success     200 {object} BalancesResponse "Balances"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Router      /clients/{id}/balances [get]
func (h *ClientHandler) GetClientBalances(c *gin.Context) {
	clientID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	holdings, err := h.ledgerService.GetHoldings(clientID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, BalancesResponse{ClientID: clientID, Balances: holdings})
}
