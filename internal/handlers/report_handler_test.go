package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/services"
)

type mockReportService struct {
	dashboardFn func(userID uint) (*services.Dashboard, error)
	seriesFn    func(userID uint, months int) ([]services.MonthlyPoint, error)
}

func (m *mockReportService) GetDashboard(_ context.Context, userID uint) (*services.Dashboard, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(userID)
	}
	return &services.Dashboard{TotalBalance: "0.00", MonthlyIncome: "0.00", MonthlyExpense: "0.00"}, nil
}

func (m *mockReportService) GetSummary(_ context.Context, _ uint) (*services.Summary, error) {
	return &services.Summary{TotalIncome: "0.00", TotalExpenses: "0.00", Balance: "0.00", RecentTransactions: []services.TransactionView{}}, nil
}

func (m *mockReportService) ExpenseByCategory(_ context.Context, _ uint) ([]services.CategoryTotal, error) {
	return []services.CategoryTotal{{CategoryID: 3, Category: "Food", Total: "250.00"}}, nil
}

func (m *mockReportService) IncomeVsExpense(_ context.Context, userID uint, months int) ([]services.MonthlyPoint, error) {
	if m.seriesFn != nil {
		return m.seriesFn(userID, months)
	}
	return []services.MonthlyPoint{}, nil
}

func (m *mockReportService) MonthlyExpenditure(_ context.Context, userID uint, months int) ([]services.MonthlyPoint, error) {
	if m.seriesFn != nil {
		return m.seriesFn(userID, months)
	}
	return []services.MonthlyPoint{}, nil
}

func setupReportRouter(handler *ReportHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("", injectUserID(1))
	g.GET("/dashboard", handler.GetDashboard)
	g.GET("/summary", handler.GetSummary)
	g.GET("/charts/expense-by-category", handler.GetExpenseByCategory)
	g.GET("/charts/income-vs-expense", handler.GetIncomeVsExpense)
	g.GET("/charts/monthly-expenditure", handler.GetMonthlyExpenditure)
	return r
}

func TestReportHandler(t *testing.T) {
	t.Run("dashboard renders money with two decimals", func(t *testing.T) {
		svc := &mockReportService{
			dashboardFn: func(_ uint) (*services.Dashboard, error) {
				return &services.Dashboard{TotalBalance: "1750.00", MonthlyIncome: "2000.00", MonthlyExpense: "250.00", TotalTransactions: 2}, nil
			},
		}
		r := setupReportRouter(NewReportHandler(svc))

		rec := doRequest(r, "GET", "/dashboard", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !containsAll(rec.Body.String(), `"total_balance":1750.00`, `"monthly_expense":250.00`) {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("summary and expense chart return 200", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(&mockReportService{}))

		for _, path := range []string{"/summary", "/charts/expense-by-category"} {
			if rec := doRequest(r, "GET", path, ""); rec.Code != http.StatusOK {
				t.Errorf("%s: expected 200, got %d", path, rec.Code)
			}
		}
	})

	defaults := []struct {
		path   string
		months int
	}{
		{"/charts/income-vs-expense", 6},
		{"/charts/monthly-expenditure", 12},
		{"/charts/monthly-expenditure?months=3", 3},
	}
	for _, tc := range defaults {
		t.Run("months for "+tc.path, func(t *testing.T) {
			var got int
			svc := &mockReportService{
				seriesFn: func(_ uint, months int) ([]services.MonthlyPoint, error) {
					got = months
					return []services.MonthlyPoint{}, nil
				},
			}
			r := setupReportRouter(NewReportHandler(svc))

			rec := doRequest(r, "GET", tc.path, "")

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if got != tc.months {
				t.Errorf("expected %d months, got %d", tc.months, got)
			}
		})
	}

	t.Run("non numeric months returns 400", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(&mockReportService{}))

		rec := doRequest(r, "GET", "/charts/income-vs-expense?months=six", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorField(t, parseJSON(t, rec), "months")
	})

	t.Run("service range error is surfaced", func(t *testing.T) {
		svc := &mockReportService{
			seriesFn: func(_ uint, _ int) ([]services.MonthlyPoint, error) {
				return nil, apperrors.InvalidField("months", "months must be between 1 and 24")
			},
		}
		r := setupReportRouter(NewReportHandler(svc))

		rec := doRequest(r, "GET", "/charts/income-vs-expense?months=99", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
