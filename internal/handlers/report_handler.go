package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/services"
)

const (
	defaultIncomeVsExpenseMonths    = 6
	defaultMonthlyExpenditureMonths = 12
)

// ReportHandler serves the dashboard, summary and chart endpoints.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetDashboard returns the headline figures
// @Summary     Dashboard
// @Description All-time balance, this month's income and expense, and the transaction count
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Dashboard "Dashboard"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboard [get]
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	dashboard, err := h.reportService.GetDashboard(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetSummary returns all-time totals and the latest transactions
// @Summary     Summary
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Summary "Summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /summary [get]
func (h *ReportHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.reportService.GetSummary(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetExpenseByCategory returns expense totals per category
// @Summary     Expense by category
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]services.CategoryTotal "Totals per category"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /charts/expense-by-category [get]
func (h *ReportHandler) GetExpenseByCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.reportService.ExpenseByCategory(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": totals})
}

// GetIncomeVsExpense returns monthly income and expense totals
// @Summary     Income vs expense
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       months query int false "Number of months, 1 to 24" default(6)
// @Success     200 {object} map[string][]services.MonthlyPoint "Series, oldest month first"
// @Failure     400 {object} ErrorResponse "Invalid months"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /charts/income-vs-expense [get]
func (h *ReportHandler) GetIncomeVsExpense(c *gin.Context) {
	h.series(c, defaultIncomeVsExpenseMonths, h.reportService.IncomeVsExpense)
}

// GetMonthlyExpenditure returns monthly expense totals
// @Summary     Monthly expenditure
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       months query int false "Number of months, 1 to 24" default(12)
// @Success     200 {object} map[string][]services.MonthlyPoint "Series, oldest month first"
// @Failure     400 {object} ErrorResponse "Invalid months"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /charts/monthly-expenditure [get]
func (h *ReportHandler) GetMonthlyExpenditure(c *gin.Context) {
	h.series(c, defaultMonthlyExpenditureMonths, h.reportService.MonthlyExpenditure)
}

func (h *ReportHandler) series(c *gin.Context, defaultMonths int, fetch func(context.Context, uint, int) ([]services.MonthlyPoint, error)) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	months := defaultMonths
	if raw := c.Query("months"); raw != "" {
		if months, err = strconv.Atoi(raw); err != nil {
			respondWithError(c, apperrors.InvalidField("months", "months must be a whole number"))
			return
		}
	}

	points, err := fetch(c.Request.Context(), userID, months)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": points})
}
