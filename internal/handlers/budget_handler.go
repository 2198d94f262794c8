package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/services"
	"pocketledger/internal/validator"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
	loc           *time.Location
	now           func() time.Time
}

// NewBudgetHandler creates a new BudgetHandler. loc decides which month is
// "current" when a progress request names none.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer, loc *time.Location) *BudgetHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BudgetHandler{budgetService: budgetService, auditService: auditService, loc: loc, now: time.Now}
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	CategoryID uint             `json:"category_id" binding:"required"`
	Limit      *decimal.Decimal `json:"limit" binding:"required" swaggertype:"number" example:"500.00"`
	Month      string           `json:"month" binding:"required,budget_month" example:"2025-03"`
}

// CreateBudget handles the creation of a new budget
// @Summary     Create a budget
// @Description Set a spending limit for one category in one month
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} map[string]services.BudgetView "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input or category"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Budget already exists for that month"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	month, err := validator.ParseMonth(req.Month)
	if err != nil {
		respondWithError(c, apperrors.InvalidField("month", "month must be YYYY-MM"))
		return
	}

	budget, err := h.budgetService.SetBudget(c.Request.Context(), userID, req.CategoryID, month, *req.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recordAudit(c, h.auditService, userID, services.AuditActionCreate, "budget", budget.ID,
		map[string]interface{}{"category_id": budget.CategoryID, "month": budget.Month, "limit": budget.Limit})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudgets lists the caller's budgets
// @Summary     List budgets
// @Description List budgets newest month first, optionally for a single month
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month as YYYY-MM"
// @Success     200 {object} map[string][]services.BudgetView "Budgets"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var month *time.Time
	if raw := c.Query("month"); raw != "" {
		m, err := validator.ParseMonth(raw)
		if err != nil {
			respondWithError(c, apperrors.InvalidField("month", "month must be YYYY-MM"))
			return
		}
		month = &m
	}

	budgets, err := h.budgetService.ListBudgets(c.Request.Context(), userID, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

// DeleteBudget handles deleting a budget
// @Summary     Delete a budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(c.Request.Context(), userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	recordAudit(c, h.auditService, userID, services.AuditActionDelete, "budget", budgetID, nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Budget deleted successfully"})
}

// GetBudgetProgress compares each budget of a month with actual spending
// @Summary     Budget vs actual
// @Description Spent, remaining and percentage used for every budget of a month
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month as YYYY-MM, defaults to the current month"
// @Success     200 {object} map[string][]services.BudgetProgress "Progress per budget"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets/progress [get]
func (h *BudgetHandler) GetBudgetProgress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	now := h.now().In(h.loc)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if raw := c.Query("month"); raw != "" {
		if month, err = validator.ParseMonth(raw); err != nil {
			respondWithError(c, apperrors.InvalidField("month", "month must be YYYY-MM"))
			return
		}
	}

	progress, err := h.budgetService.GetBudgetProgress(c.Request.Context(), userID, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"month": month.Format(validator.MonthLayout), "progress": progress})
}
