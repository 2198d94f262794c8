package analysis

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pocketledger/internal/errors"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBudgetRule(t *testing.T) {
	split, err := BudgetRule(dec("5000"))
	require.NoError(t, err)
	assert.Equal(t, "2500.00", split.Needs.String())
	assert.Equal(t, "1500.00", split.Wants.String())
	assert.Equal(t, "1000.00", split.Savings.String())

	split, err = BudgetRule(dec("1234.57"))
	require.NoError(t, err)
	assert.Equal(t, "617.29", split.Needs.String())
	assert.Equal(t, "370.37", split.Wants.String())
	assert.Equal(t, "246.91", split.Savings.String())

	for _, income := range []string{"0", "-10"} {
		_, err := BudgetRule(dec(income))
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "monthly_income", appErr.Field)
	}
}

func TestAffordability(t *testing.T) {
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	date := func(s string) time.Time {
		d, err := ParseDesiredDate(s)
		require.NoError(t, err)
		return d
	}

	tests := []struct {
		name         string
		in           AffordabilityInput
		affordable   bool
		message      string
		monthsNeeded int64
		newDate      string
	}{
		{
			name:       "no monthly savings but enough saved",
			in:         AffordabilityInput{ItemCost: dec("500"), CurrentSavings: dec("800"), MonthlySavings: dec("0"), DesiredDate: date("2025-04-01")},
			affordable: true,
			message:    msgAffordableNow,
		},
		{
			name:    "no monthly savings and not enough saved",
			in:      AffordabilityInput{ItemCost: dec("500"), CurrentSavings: dec("100"), MonthlySavings: dec("-5"), DesiredDate: date("2026-01-01")},
			message: msgNotSaving,
		},
		{
			name:       "reachable by desired date",
			in:         AffordabilityInput{ItemCost: dec("1000"), CurrentSavings: dec("400"), MonthlySavings: dec("200"), DesiredDate: date("2025-06-21")},
			affordable: true,
			message:    msgAffordableProjected,
		},
		{
			name:         "partial month does not count",
			in:           AffordabilityInput{ItemCost: dec("1000"), CurrentSavings: dec("400"), MonthlySavings: dec("200"), DesiredDate: date("2025-06-20")},
			monthsNeeded: 3,
			newDate:      "June 2025",
		},
		{
			name:         "past date projects from today",
			in:           AffordabilityInput{ItemCost: dec("1000"), CurrentSavings: dec("0"), MonthlySavings: dec("300"), DesiredDate: date("2024-01-01")},
			monthsNeeded: 4,
			newDate:      "July 2025",
		},
		{
			name:    "tiny monthly savings is not achievable",
			in:      AffordabilityInput{ItemCost: dec("1000"), CurrentSavings: dec("0"), MonthlySavings: dec("1e-18"), DesiredDate: date("2026-01-01")},
			message: msgTooFar,
		},
		{
			name:    "one cent a month is past the horizon",
			in:      AffordabilityInput{ItemCost: dec("1000"), CurrentSavings: dec("0"), MonthlySavings: dec("0.01"), DesiredDate: date("2026-01-01")},
			message: msgTooFar,
		},
		{
			name:         "exactly at the horizon",
			in:           AffordabilityInput{ItemCost: dec("1200"), CurrentSavings: dec("0"), MonthlySavings: dec("1"), DesiredDate: date("2025-04-01")},
			monthsNeeded: MaxMonthsNeeded,
			newDate:      "March 2125",
		},
		{
			name:       "past date but already saved",
			in:         AffordabilityInput{ItemCost: dec("100"), CurrentSavings: dec("100"), MonthlySavings: dec("10"), DesiredDate: date("2024-01-01")},
			affordable: true,
			message:    msgAffordableProjected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Affordability(tt.in, now)
			require.NoError(t, err)
			assert.Equal(t, tt.affordable, got.Affordable)
			assert.Equal(t, tt.message, got.Message)
			assert.Equal(t, tt.newDate, got.NewDate)
			if tt.monthsNeeded == 0 {
				assert.Nil(t, got.MonthsNeeded)
			} else {
				require.NotNil(t, got.MonthsNeeded)
				assert.Equal(t, tt.monthsNeeded, *got.MonthsNeeded)
			}
		})
	}
}

func TestAffordabilityRejects(t *testing.T) {
	now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)

	_, err := Affordability(AffordabilityInput{ItemCost: dec("0"), MonthlySavings: dec("10")}, now)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "item_cost", appErr.Field)

	_, err = Affordability(AffordabilityInput{ItemCost: dec("10"), CurrentSavings: dec("-1")}, now)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "current_savings", appErr.Field)

	for _, tt := range []struct {
		field string
		in    AffordabilityInput
	}{
		{"monthly_savings", AffordabilityInput{ItemCost: dec("1000"), MonthlySavings: dec("1e-22")}},
		{"item_cost", AffordabilityInput{ItemCost: dec("1e50000000"), MonthlySavings: dec("10")}},
		{"current_savings", AffordabilityInput{ItemCost: dec("10"), CurrentSavings: dec("1e-5000000")}},
	} {
		_, err = Affordability(tt.in, now)
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, tt.field, appErr.Field)
		assert.Equal(t, "INVALID_INPUT", appErr.Code)
	}

	_, err = BudgetRule(dec("1e50000000"))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "monthly_income", appErr.Field)

	_, err = ParseDesiredDate("20/03/2025")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "desired_date", appErr.Field)
}

func TestWholeMonthsBetween(t *testing.T) {
	from := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(0), wholeMonthsBetween(from, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(2), wholeMonthsBetween(from, time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(12), wholeMonthsBetween(from, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(0), wholeMonthsBetween(from, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAddMonthsClampsDay(t *testing.T) {
	got := addMonths(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 1)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), got)
}
