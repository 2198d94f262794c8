package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/models"
)

const (
	recentTransactionCount = 5
	maxChartMonths         = 24
	chartMonthLayout       = "2006-01"
)

// reportService computes read-only aggregates over committed transactions.
// Income and expense are decided by the category type; uncategorized
// transactions count towards neither.
type reportService struct {
	db     *gorm.DB
	loc    *time.Location
	reader TransactionReader
	now    func() time.Time
}

// NewReportService creates a new ReportServicer. Month boundaries are taken
// in loc.
func NewReportService(db *gorm.DB, loc *time.Location, reader TransactionReader) ReportServicer {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{
		db:     db,
		loc:    loc,
		reader: reader,
		now:    time.Now,
	}
}

// flowTotals holds summed income and expense amounts.
type flowTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

func (s *reportService) totals(db *gorm.DB, userID uint, from, to *time.Time) (flowTotals, error) {
	q := db.Table(`"transaction" AS t`).
		Select(fmt.Sprintf(
			"COALESCE(SUM(CASE WHEN c.type = '%s' THEN t.amount ELSE 0 END), 0) AS income, "+
				"COALESCE(SUM(CASE WHEN c.type = '%s' THEN t.amount ELSE 0 END), 0) AS expense",
			models.CategoryTypeIncome, models.CategoryTypeExpense)).
		Joins("LEFT JOIN category AS c ON c.id = t.category_id").
		Where("t.user_id = ?", userID)
	if from != nil {
		q = q.Where("t.transaction_date >= ?", from.UTC())
	}
	if to != nil {
		q = q.Where("t.transaction_date < ?", to.UTC())
	}

	var out flowTotals
	if err := q.Scan(&out).Error; err != nil {
		return flowTotals{}, storeError(err)
	}
	return out, nil
}

func (s *reportService) monthStart(t time.Time) time.Time {
	local := t.In(s.loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.loc)
}

// GetDashboard returns the all-time balance, this month's income and
// expense, and the transaction count. The three queries run concurrently.
func (s *reportService) GetDashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	start := s.monthStart(s.now())
	end := start.AddDate(0, 1, 0)

	var (
		allTime flowTotals
		month   flowTotals
		count   int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		allTime, err = s.totals(s.db.WithContext(gctx), userID, nil, nil)
		return err
	})
	g.Go(func() error {
		var err error
		month, err = s.totals(s.db.WithContext(gctx), userID, &start, &end)
		return err
	})
	g.Go(func() error {
		if err := s.db.WithContext(gctx).Model(&models.Transaction{}).
			Where("user_id = ?", userID).
			Count(&count).Error; err != nil {
			return storeError(err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalBalance:      money(allTime.Income.Sub(allTime.Expense)),
		MonthlyIncome:     money(month.Income),
		MonthlyExpense:    money(month.Expense),
		TotalTransactions: count,
	}, nil
}

// GetSummary returns all-time totals and the most recent transactions.
func (s *reportService) GetSummary(ctx context.Context, userID uint) (*Summary, error) {
	var (
		totals flowTotals
		recent []TransactionView
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.totals(s.db.WithContext(gctx), userID, nil, nil)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.reader.ListTransactions(gctx, userID, TransactionFilter{Limit: recentTransactionCount})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Summary{
		TotalIncome:        money(totals.Income),
		TotalExpenses:      money(totals.Expense),
		Balance:            money(totals.Income.Sub(totals.Expense)),
		RecentTransactions: recent,
	}, nil
}

type categoryTotalRow struct {
	CategoryID uint
	Category   string
	Total      decimal.Decimal
}

// ExpenseByCategory returns per-category expense totals above zero, largest first.
func (s *reportService) ExpenseByCategory(ctx context.Context, userID uint) ([]CategoryTotal, error) {
	var rows []categoryTotalRow
	if err := s.db.WithContext(ctx).
		Table(`"transaction" AS t`).
		Select("c.id AS category_id, c.name AS category, COALESCE(SUM(t.amount), 0) AS total").
		Joins("JOIN category AS c ON c.id = t.category_id").
		Where("t.user_id = ? AND c.type = ?", userID, models.CategoryTypeExpense).
		Group("c.id, c.name").
		Scan(&rows).Error; err != nil {
		return nil, storeError(err)
	}

	rows = slices.DeleteFunc(rows, func(r categoryTotalRow) bool { return !r.Total.IsPositive() })
	slices.SortFunc(rows, func(a, b categoryTotalRow) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})

	out := make([]CategoryTotal, len(rows))
	for i, r := range rows {
		out[i] = CategoryTotal{CategoryID: r.CategoryID, Category: r.Category, Total: money(r.Total)}
	}
	return out, nil
}

// IncomeVsExpense returns one point per month for the last months months,
// oldest first, with empty months reported as zero.
func (s *reportService) IncomeVsExpense(ctx context.Context, userID uint, months int) ([]MonthlyPoint, error) {
	buckets, labels, err := s.monthlyBuckets(ctx, userID, months)
	if err != nil {
		return nil, err
	}

	points := make([]MonthlyPoint, len(labels))
	for i, label := range labels {
		b := buckets[label]
		points[i] = MonthlyPoint{Month: label, Income: money(b.Income), Expense: money(b.Expense)}
	}
	return points, nil
}

// MonthlyExpenditure is IncomeVsExpense without the income series.
func (s *reportService) MonthlyExpenditure(ctx context.Context, userID uint, months int) ([]MonthlyPoint, error) {
	buckets, labels, err := s.monthlyBuckets(ctx, userID, months)
	if err != nil {
		return nil, err
	}

	points := make([]MonthlyPoint, len(labels))
	for i, label := range labels {
		points[i] = MonthlyPoint{Month: label, Expense: money(buckets[label].Expense)}
	}
	return points, nil
}

type datedAmount struct {
	TransactionDate time.Time
	Amount          decimal.Decimal
	Type            models.CategoryType
}

// monthlyBuckets sums categorized amounts per local calendar month over the
// window ending with the current month. labels lists every month in the
// window, oldest first.
func (s *reportService) monthlyBuckets(ctx context.Context, userID uint, months int) (map[string]flowTotals, []string, error) {
	if months < 1 || months > maxChartMonths {
		return nil, nil, apperrors.InvalidField("months", fmt.Sprintf("months must be between 1 and %d", maxChartMonths))
	}

	current := s.monthStart(s.now())
	start := current.AddDate(0, -(months - 1), 0)
	end := current.AddDate(0, 1, 0)

	labels := make([]string, months)
	buckets := make(map[string]flowTotals, months)
	for i := range labels {
		labels[i] = start.AddDate(0, i, 0).Format(chartMonthLayout)
		buckets[labels[i]] = flowTotals{}
	}

	var rows []datedAmount
	if err := s.db.WithContext(ctx).
		Table(`"transaction" AS t`).
		Select("t.transaction_date, t.amount, c.type").
		Joins("JOIN category AS c ON c.id = t.category_id").
		Where("t.user_id = ?", userID).
		Where("t.transaction_date >= ? AND t.transaction_date < ?", start.UTC(), end.UTC()).
		Scan(&rows).Error; err != nil {
		return nil, nil, storeError(err)
	}

	for _, r := range rows {
		label := r.TransactionDate.In(s.loc).Format(chartMonthLayout)
		b, ok := buckets[label]
		if !ok {
			continue
		}
		switch r.Type {
		case models.CategoryTypeIncome:
			b.Income = b.Income.Add(r.Amount)
		case models.CategoryTypeExpense:
			b.Expense = b.Expense.Add(r.Amount)
		}
		buckets[label] = b
	}
	return buckets, labels, nil
}
