package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/models"
	moneypkg "pocketledger/internal/money"
)

// monthLayout renders a budget month in responses.
const monthLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

// maxLimit is the first value that no longer fits budget_limit numeric(14,2).
var maxLimit = decimal.New(1, 12)

// budgetService handles budget-related business logic.
type budgetService struct {
	db  *gorm.DB
	loc *time.Location
}

// NewBudgetService creates a new BudgetServicer. Spending is attributed to a
// month using calendar boundaries in loc.
func NewBudgetService(db *gorm.DB, loc *time.Location) BudgetServicer {
	if loc == nil {
		loc = time.UTC
	}
	return &budgetService{db: db, loc: loc}
}

// budgetRow is a budget joined with its category name.
type budgetRow struct {
	ID          uint
	CategoryID  uint
	Category    string
	Month       time.Time
	BudgetLimit decimal.Decimal
}

func (r budgetRow) view() BudgetView {
	return BudgetView{
		ID:         r.ID,
		CategoryID: r.CategoryID,
		Category:   r.Category,
		Month:      r.Month.UTC().Format(monthLayout),
		Limit:      money(r.BudgetLimit),
	}
}

// SetBudget creates the budget for one category and month.
func (s *budgetService) SetBudget(ctx context.Context, userID, categoryID uint, month time.Time, limit decimal.Decimal) (*BudgetView, error) {
	if err := moneypkg.CheckRange("limit", limit); err != nil {
		return nil, err
	}
	if limit.IsNegative() {
		return nil, apperrors.InvalidField("limit", "limit must not be negative")
	}
	if limit.GreaterThanOrEqual(maxLimit) {
		return nil, apperrors.InvalidField("limit", "limit is too large")
	}

	var view *BudgetView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
			return notFoundOr(err, apperrors.WithMessage(apperrors.ErrInvalidCategory,
				fmt.Sprintf("category %d does not exist or does not belong to you", categoryID)))
		}

		budget := &models.Budget{
			UserID:     userID,
			CategoryID: categoryID,
			Month:      models.FirstOfMonth(month),
			Limit:      limit.Round(2),
		}

		var count int64
		if err := tx.Model(&models.Budget{}).
			Where("user_id = ? AND category_id = ? AND month = ?", userID, categoryID, budget.Month).
			Count(&count).Error; err != nil {
			return storeError(err)
		}
		if count > 0 {
			return apperrors.ErrDuplicateBudget
		}

		if err := tx.Create(budget).Error; err != nil {
			return duplicateOr(err, apperrors.ErrDuplicateBudget)
		}

		v := budgetRow{
			ID:          budget.ID,
			CategoryID:  categoryID,
			Category:    category.Name,
			Month:       budget.Month,
			BudgetLimit: budget.Limit,
		}.view()
		view = &v
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return view, nil
}

// ListBudgets returns budgets newest month first, then by category name.
func (s *budgetService) ListBudgets(ctx context.Context, userID uint, month *time.Time) ([]BudgetView, error) {
	rows, err := s.budgetRows(s.db.WithContext(ctx), userID, month)
	if err != nil {
		return nil, err
	}

	views := make([]BudgetView, len(rows))
	for i, r := range rows {
		views[i] = r.view()
	}
	return views, nil
}

// DeleteBudget deletes a budget owned by the user.
func (s *budgetService) DeleteBudget(ctx context.Context, userID, budgetID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", budgetID, userID).
		Delete(&models.Budget{})
	if result.Error != nil {
		return storeError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}

// categorySpend is the summed amount of one category's transactions.
type categorySpend struct {
	CategoryID uint
	Total      decimal.Decimal
}

// GetBudgetProgress compares every budget of the month with the sum of its
// category's transactions dated inside that month.
func (s *budgetService) GetBudgetProgress(ctx context.Context, userID uint, month time.Time) ([]BudgetProgress, error) {
	db := s.db.WithContext(ctx)

	rows, err := s.budgetRows(db, userID, &month)
	if err != nil {
		return nil, err
	}
	progress := make([]BudgetProgress, 0, len(rows))
	if len(rows) == 0 {
		return progress, nil
	}

	categoryIDs := make([]uint, len(rows))
	for i, r := range rows {
		categoryIDs[i] = r.CategoryID
	}

	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 1, 0)

	var spends []categorySpend
	if err := db.Model(&models.Transaction{}).
		Select("category_id, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND category_id IN ?", userID, categoryIDs).
		Where("transaction_date >= ? AND transaction_date < ?", start.UTC(), end.UTC()).
		Group("category_id").
		Scan(&spends).Error; err != nil {
		return nil, storeError(err)
	}

	spent := make(map[uint]decimal.Decimal, len(spends))
	for _, sp := range spends {
		spent[sp.CategoryID] = sp.Total.Round(2)
	}

	for _, r := range rows {
		used := spent[r.CategoryID]
		var pct float64
		if r.BudgetLimit.IsPositive() {
			pct = used.Div(r.BudgetLimit).Mul(hundred).Round(2).InexactFloat64()
		}
		progress = append(progress, BudgetProgress{
			BudgetID:   r.ID,
			CategoryID: r.CategoryID,
			Category:   r.Category,
			Month:      r.Month.UTC().Format(monthLayout),
			Limit:      money(r.BudgetLimit),
			Spent:      money(used),
			Remaining:  money(r.BudgetLimit.Sub(used)),
			Percentage: pct,
		})
	}
	return progress, nil
}

func (s *budgetService) budgetRows(db *gorm.DB, userID uint, month *time.Time) ([]budgetRow, error) {
	q := db.Table("budget").
		Select("budget.id, budget.category_id, category.name AS category, budget.month, budget.budget_limit").
		Joins("JOIN category ON category.id = budget.category_id").
		Where("budget.user_id = ?", userID)
	if month != nil {
		q = q.Where("budget.month = ?", models.FirstOfMonth(*month))
	}

	var rows []budgetRow
	if err := q.Order("budget.month DESC").Order("category.name").Scan(&rows).Error; err != nil {
		return nil, storeError(err)
	}
	return rows, nil
}
