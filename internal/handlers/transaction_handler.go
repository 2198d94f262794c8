package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/services"
	"pocketledger/internal/txinput"
)

const (
	maxListLimit = 1000
	dateOnly     = "2006-01-02"
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

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Create a transaction with an optional category, payment mode and tag set
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body txinput.Payload true "Transaction details"
// @Success     201 {object} map[string]services.TransactionView "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input or reference"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var payload txinput.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	rec, err := txinput.NormalizeCreate(payload)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	id, err := h.transactionService.CreateTransaction(ctx, userID, *rec)
	if err != nil {
		respondWithError(c, err)
		return
	}

	view, err := h.transactionService.GetTransaction(ctx, userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recordAudit(c, h.auditService, userID, services.AuditActionCreate, "transaction", id,
		map[string]interface{}{"amount": view.Amount, "category_id": view.CategoryID, "tag_ids": view.TagIDs})

	c.JSON(http.StatusCreated, gin.H{"transaction": view})
}

// GetTransaction returns one enriched transaction
// @Summary     Get a transaction
// @Description Get a single transaction with its category and tag names
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} map[string]services.TransactionView "Transaction"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	view, err := h.transactionService.GetTransaction(c.Request.Context(), userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": view})
}

// GetUserTransactions lists the caller's transactions
// @Summary     List transactions
// @Description List the caller's transactions newest first, optionally filtered
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       from_date   query string false "Earliest transaction date (inclusive)"
// @Param       to_date     query string false "Latest transaction date (inclusive)"
// @Param       category_id query int    false "Only this category"
// @Param       tag_id      query int    false "Only transactions carrying this tag"
// @Param       limit       query int    false "Maximum number of rows"
// @Success     200 {object} map[string][]services.TransactionView "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	views, err := h.transactionService.ListTransactions(c.Request.Context(), userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": views})
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if raw := c.Query("from_date"); raw != "" {
		from, err := txinput.ParseTime(raw)
		if err != nil {
			return filter, apperrors.InvalidField("from_date", "from_date must be a date")
		}
		filter.FromDate = &from
	}
	if raw := c.Query("to_date"); raw != "" {
		to, err := txinput.ParseTime(raw)
		if err != nil {
			return filter, apperrors.InvalidField("to_date", "to_date must be a date")
		}
		if len(raw) == len(dateOnly) {
			// A bare date includes the whole day.
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		filter.ToDate = &to
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.ToDate.Before(*filter.FromDate) {
		return filter, apperrors.InvalidField("to_date", "to_date must not be before from_date")
	}

	var err error
	if filter.CategoryID, err = parseQueryID(c, "category_id"); err != nil {
		return filter, err
	}
	if filter.TagID, err = parseQueryID(c, "tag_id"); err != nil {
		return filter, err
	}

	if raw := c.Query("limit"); raw != "" {
		limit, convErr := strconv.Atoi(raw)
		if convErr != nil || limit < 1 || limit > maxListLimit {
			return filter, apperrors.InvalidField("limit", "limit must be between 1 and "+strconv.Itoa(maxListLimit))
		}
		filter.Limit = limit
	}

	return filter, nil
}

// UpdateTransaction applies a partial update to a transaction
// @Summary     Update a transaction
// @Description Update the supplied fields of a transaction; a supplied tag_ids replaces the whole tag set
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int             true "Transaction ID"
// @Param       request body txinput.Payload true "Fields to change"
// @Success     200 {object} map[string]services.TransactionView "Transaction updated"
// @Failure     400 {object} ErrorResponse "Invalid input or reference"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var payload txinput.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	patch, err := txinput.NormalizeUpdate(payload)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.transactionService.UpdateTransaction(ctx, userID, transactionID, *patch); err != nil {
		respondWithError(c, err)
		return
	}

	view, err := h.transactionService.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recordAudit(c, h.auditService, userID, services.AuditActionUpdate, "transaction", transactionID, patchSummary(patch))

	c.JSON(http.StatusOK, gin.H{"transaction": view})
}

// patchSummary lists the fields an update touched.
func patchSummary(p *txinput.Patch) map[string]interface{} {
	changed := []string{}
	if !p.Amount.IsUnset() {
		changed = append(changed, "amount")
	}
	if !p.Description.IsUnset() {
		changed = append(changed, "description")
	}
	if !p.TransactionDate.IsUnset() {
		changed = append(changed, "transaction_date")
	}
	if !p.CategoryID.IsUnset() {
		changed = append(changed, "category_id")
	}
	if !p.PaymentMode.IsUnset() {
		changed = append(changed, "payment_mode")
	}
	if !p.TagIDs.IsUnset() {
		changed = append(changed, "tag_ids")
	}
	return map[string]interface{}{"fields": changed}
}

// DeleteTransaction handles deleting a transaction
// @Summary     Delete a transaction
// @Description Delete a transaction and its tag associations
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	recordAudit(c, h.auditService, userID, services.AuditActionDelete, "transaction", transactionID, nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}
