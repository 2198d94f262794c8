package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/services"
)

type mockBudgetService struct {
	setFn      func(userID, categoryID uint, month time.Time, limit decimal.Decimal) (*services.BudgetView, error)
	listFn     func(userID uint, month *time.Time) ([]services.BudgetView, error)
	deleteFn   func(userID, id uint) error
	progressFn func(userID uint, month time.Time) ([]services.BudgetProgress, error)
}

func (m *mockBudgetService) SetBudget(_ context.Context, userID, categoryID uint, month time.Time, limit decimal.Decimal) (*services.BudgetView, error) {
	if m.setFn != nil {
		return m.setFn(userID, categoryID, month, limit)
	}
	return &services.BudgetView{ID: 1, CategoryID: categoryID}, nil
}

func (m *mockBudgetService) ListBudgets(_ context.Context, userID uint, month *time.Time) ([]services.BudgetView, error) {
	if m.listFn != nil {
		return m.listFn(userID, month)
	}
	return []services.BudgetView{}, nil
}

func (m *mockBudgetService) DeleteBudget(_ context.Context, userID, id uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, id)
	}
	return nil
}

func (m *mockBudgetService) GetBudgetProgress(_ context.Context, userID uint, month time.Time) ([]services.BudgetProgress, error) {
	if m.progressFn != nil {
		return m.progressFn(userID, month)
	}
	return []services.BudgetProgress{}, nil
}

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/budgets", injectUserID(1))
	g.POST("", handler.CreateBudget)
	g.GET("", handler.GetBudgets)
	g.GET("/progress", handler.GetBudgetProgress)
	g.DELETE("/:id", handler.DeleteBudget)
	return r
}

func TestBudgetHandler_Create(t *testing.T) {
	t.Run("returns 201 and parses month", func(t *testing.T) {
		var gotMonth time.Time
		var gotLimit decimal.Decimal
		svc := &mockBudgetService{
			setFn: func(_, categoryID uint, month time.Time, limit decimal.Decimal) (*services.BudgetView, error) {
				gotMonth, gotLimit = month, limit
				return &services.BudgetView{ID: 9, CategoryID: categoryID, Category: "Food", Month: "2025-03-01", Limit: "500.00"}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, time.UTC))

		rec := doRequest(r, "POST", "/budgets", `{"category_id":3,"limit":500,"month":"2025-03"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !gotMonth.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected 2025-03-01, got %v", gotMonth)
		}
		if !gotLimit.Equal(decimal.NewFromInt(500)) {
			t.Errorf("expected limit 500, got %s", gotLimit)
		}
	})

	t.Run("zero limit is allowed", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}, time.UTC))

		rec := doRequest(r, "POST", "/budgets", `{"category_id":3,"limit":0,"month":"2025-03"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	rejects := []struct {
		name  string
		body  string
		field string
	}{
		{"missing limit", `{"category_id":3,"month":"2025-03"}`, "limit"},
		{"bad month", `{"category_id":3,"limit":1,"month":"March"}`, "month"},
		{"missing category", `{"limit":1,"month":"2025-03"}`, "category_id"},
	}
	for _, tc := range rejects {
		t.Run("returns 400 on "+tc.name, func(t *testing.T) {
			r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}, time.UTC))

			rec := doRequest(r, "POST", "/budgets", tc.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			assertErrorField(t, parseJSON(t, rec), tc.field)
		})
	}

	t.Run("returns 409 on duplicate", func(t *testing.T) {
		svc := &mockBudgetService{
			setFn: func(_, _ uint, _ time.Time, _ decimal.Decimal) (*services.BudgetView, error) {
				return nil, apperrors.ErrDuplicateBudget
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, time.UTC))

		rec := doRequest(r, "POST", "/budgets", `{"category_id":3,"limit":1,"month":"2025-03"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_Progress(t *testing.T) {
	t.Run("defaults to current month in configured zone", func(t *testing.T) {
		loc := time.FixedZone("UTC+5:30", 5*3600+1800)
		var got time.Time
		svc := &mockBudgetService{
			progressFn: func(_ uint, month time.Time) ([]services.BudgetProgress, error) {
				got = month
				return []services.BudgetProgress{}, nil
			},
		}
		handler := NewBudgetHandler(svc, &mockAuditService{}, loc)
		// 20:00 UTC on 31 March is already 1 April in the configured zone.
		handler.now = func() time.Time { return time.Date(2025, 3, 31, 20, 0, 0, 0, time.UTC) }
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/progress", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !got.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected April 2025, got %v", got)
		}
		if parseJSON(t, rec)["month"] != "2025-04" {
			t.Errorf("expected month 2025-04 in body, got %s", rec.Body.String())
		}
	})

	t.Run("returns 400 on bad month", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}, time.UTC))

		rec := doRequest(r, "GET", "/budgets/progress?month=2025-13", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_ListAndDelete(t *testing.T) {
	t.Run("list passes month filter", func(t *testing.T) {
		var got *time.Time
		svc := &mockBudgetService{
			listFn: func(_ uint, month *time.Time) ([]services.BudgetView, error) {
				got = month
				return []services.BudgetView{}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, time.UTC))

		rec := doRequest(r, "GET", "/budgets?month=2025-02", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got == nil || got.Month() != time.February {
			t.Errorf("expected February filter, got %v", got)
		}
	})

	t.Run("delete returns 404 when not owned", func(t *testing.T) {
		svc := &mockBudgetService{
			deleteFn: func(_, _ uint) error { return apperrors.ErrBudgetNotFound },
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, time.UTC))

		rec := doRequest(r, "DELETE", "/budgets/4", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
