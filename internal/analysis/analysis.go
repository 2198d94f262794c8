// Package analysis holds the stateless planning calculators: the 50/30/20
// budget split and the savings affordability projection.
package analysis

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	apperrors "pocketledger/internal/errors"
	moneypkg "pocketledger/internal/money"
)

// DateLayout is the accepted format for a desired purchase date.
const DateLayout = "2006-01-02"

var (
	needsShare   = decimal.RequireFromString("0.50")
	wantsShare   = decimal.RequireFromString("0.30")
	savingsShare = decimal.RequireFromString("0.20")
)

// Split is a monthly income divided by the 50/30/20 rule.
type Split struct {
	Needs   json.Number `json:"needs" swaggertype:"number" example:"2500.00"`
	Wants   json.Number `json:"wants" swaggertype:"number" example:"1500.00"`
	Savings json.Number `json:"savings" swaggertype:"number" example:"1000.00"`
}

// BudgetRule splits income into needs, wants and savings.
func BudgetRule(income decimal.Decimal) (*Split, error) {
	if err := moneypkg.CheckRange("monthly_income", income); err != nil {
		return nil, err
	}
	if !income.IsPositive() {
		return nil, apperrors.InvalidField("monthly_income", "monthly_income must be greater than zero")
	}
	return &Split{
		Needs:   money(income.Mul(needsShare)),
		Wants:   money(income.Mul(wantsShare)),
		Savings: money(income.Mul(savingsShare)),
	}, nil
}

// AffordabilityInput describes a planned purchase.
type AffordabilityInput struct {
	ItemCost       decimal.Decimal
	CurrentSavings decimal.Decimal
	MonthlySavings decimal.Decimal
	DesiredDate    time.Time
}

// AffordabilityResult answers whether the purchase fits the plan. When it
// does not, MonthsNeeded and NewDate give the earliest month it would.
type AffordabilityResult struct {
	Affordable   bool   `json:"affordable"`
	Message      string `json:"message,omitempty"`
	MonthsNeeded *int64 `json:"months_needed,omitempty"`
	NewDate      string `json:"new_date,omitempty" example:"January 2026"`
}

// MaxMonthsNeeded bounds the projection. A plan that needs longer is reported
// as not achievable instead of naming a date.
const MaxMonthsNeeded = 1200

const (
	msgAffordableNow       = "You can afford this now with your current savings."
	msgNotSaving           = "You are not saving money monthly, so you will not be able to afford this item."
	msgAffordableProjected = "Based on your projections, you can afford this!"
	msgTooFar              = "At your current savings rate this would take more than 100 years."
)

// Affordability projects savings from now until the desired date.
func Affordability(in AffordabilityInput, now time.Time) (*AffordabilityResult, error) {
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"item_cost", in.ItemCost},
		{"current_savings", in.CurrentSavings},
		{"monthly_savings", in.MonthlySavings},
	} {
		if err := moneypkg.CheckRange(f.name, f.value); err != nil {
			return nil, err
		}
	}
	if !in.ItemCost.IsPositive() {
		return nil, apperrors.InvalidField("item_cost", "item_cost must be greater than zero")
	}
	if in.CurrentSavings.IsNegative() {
		return nil, apperrors.InvalidField("current_savings", "current_savings must not be negative")
	}

	if !in.MonthlySavings.IsPositive() {
		if in.CurrentSavings.GreaterThanOrEqual(in.ItemCost) {
			return &AffordabilityResult{Affordable: true, Message: msgAffordableNow}, nil
		}
		return &AffordabilityResult{Affordable: false, Message: msgNotSaving}, nil
	}

	months := wholeMonthsBetween(now, in.DesiredDate)
	projected := in.CurrentSavings.Add(in.MonthlySavings.Mul(decimal.NewFromInt(months)))
	if projected.GreaterThanOrEqual(in.ItemCost) {
		return &AffordabilityResult{Affordable: true, Message: msgAffordableProjected}, nil
	}

	shortfall := in.ItemCost.Sub(in.CurrentSavings)
	if !shortfall.IsPositive() {
		return &AffordabilityResult{Affordable: true, Message: msgAffordableNow}, nil
	}

	required := shortfall.Div(in.MonthlySavings).Ceil()
	if required.GreaterThan(decimal.NewFromInt(MaxMonthsNeeded)) {
		return &AffordabilityResult{Affordable: false, Message: msgTooFar}, nil
	}
	needed := required.IntPart()
	return &AffordabilityResult{
		Affordable:   false,
		MonthsNeeded: &needed,
		NewDate:      addMonths(now, int(needed)).Format("January 2006"),
	}, nil
}

// wholeMonthsBetween counts complete calendar months from from to the wall
// clock time to, read in from's location. A target in the past yields zero.
func wholeMonthsBetween(from, to time.Time) int64 {
	to = time.Date(to.Year(), to.Month(), to.Day(), to.Hour(), to.Minute(), to.Second(), to.Nanosecond(), from.Location())
	months := int64(to.Year()-from.Year())*12 + int64(to.Month()-from.Month())
	if months > 0 && dayClock(to) < dayClock(from) {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// dayClock orders instants within a month by day and time of day.
func dayClock(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(t.Day())*24*time.Hour +
		time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond())
}

// addMonths moves t forward n calendar months, clamping to the last day of
// the target month.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	h, m, s := t.Clock()
	return time.Date(first.Year(), first.Month(), day, h, m, s, t.Nanosecond(), t.Location())
}

// ParseDesiredDate parses a YYYY-MM-DD date.
func ParseDesiredDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.InvalidField("desired_date", "desired_date must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
