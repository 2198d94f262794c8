package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget caps spending in one category for one calendar month.
type Budget struct {
	Base
	UserID     uint            `gorm:"not null;uniqueIndex:idx_budget_user_category_month" json:"user_id"`
	CategoryID uint            `gorm:"not null;uniqueIndex:idx_budget_user_category_month" json:"category_id"`
	Month      time.Time       `gorm:"type:date;not null;uniqueIndex:idx_budget_user_category_month" json:"month"`
	Limit      decimal.Decimal `gorm:"column:budget_limit;type:numeric(14,2);not null" json:"limit"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"-"`
}

// TableName overrides the default table name.
func (Budget) TableName() string { return "budget" }

// FirstOfMonth truncates t to midnight UTC on the first day of its month.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
