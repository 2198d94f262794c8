package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pocketledger/internal/analysis"
)

// AnalysisHandler serves the planning calculators. It holds no state.
type AnalysisHandler struct {
	now func() time.Time
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler() *AnalysisHandler {
	return &AnalysisHandler{now: time.Now}
}

// BudgetRuleRequest represents the request payload for the 50/30/20 split.
type BudgetRuleRequest struct {
	MonthlyIncome *decimal.Decimal `json:"monthly_income" binding:"required" swaggertype:"number" example:"5000"`
}

// AffordabilityRequest represents the request payload for an affordability check.
type AffordabilityRequest struct {
	ItemCost       *decimal.Decimal `json:"item_cost" binding:"required" swaggertype:"number" example:"1200"`
	CurrentSavings *decimal.Decimal `json:"current_savings" binding:"required" swaggertype:"number" example:"300"`
	MonthlySavings *decimal.Decimal `json:"monthly_savings" binding:"required" swaggertype:"number" example:"200"`
	DesiredDate    string           `json:"desired_date" binding:"required" example:"2026-06-01"`
}

// BudgetRule splits a monthly income by the 50/30/20 rule
// @Summary     50/30/20 budget rule
// @Tags        analysis
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BudgetRuleRequest true "Monthly income"
// @Success     200 {object} analysis.Split "Needs, wants and savings"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /analysis/budget-rule [post]
func (h *AnalysisHandler) BudgetRule(c *gin.Context) {
	var req BudgetRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	split, err := analysis.BudgetRule(*req.MonthlyIncome)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, split)
}

// Affordability projects savings up to a desired purchase date
// @Summary     Affordability check
// @Description Whether a purchase fits current and monthly savings by the desired date, and if not, when it would
// @Tags        analysis
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AffordabilityRequest true "Purchase plan"
// @Success     200 {object} analysis.AffordabilityResult "Projection"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /analysis/affordability [post]
func (h *AnalysisHandler) Affordability(c *gin.Context) {
	var req AffordabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	desired, err := analysis.ParseDesiredDate(req.DesiredDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := analysis.Affordability(analysis.AffordabilityInput{
		ItemCost:       *req.ItemCost,
		CurrentSavings: *req.CurrentSavings,
		MonthlySavings: *req.MonthlySavings,
		DesiredDate:    desired,
	}, h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
