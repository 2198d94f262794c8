package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "Income"
	CategoryTypeExpense CategoryType = "Expense"
)

// Valid reports whether t is one of the known category types.
func (t CategoryType) Valid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// Category represents a transaction category
type Category struct {
	Base
	UserID uint         `gorm:"not null;uniqueIndex:idx_category_user_name" json:"user_id"`
	Name   string       `gorm:"not null;uniqueIndex:idx_category_user_name" json:"name"`
	Type   CategoryType `gorm:"not null" json:"type"`
}

// TableName overrides the default table name.
func (Category) TableName() string { return "category" }
