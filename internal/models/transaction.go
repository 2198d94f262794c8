package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single income or expense entry. Whether it counts
// as income or expense is decided by its category's type.
type Transaction struct {
	Base
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Description     string          `gorm:"not null;default:''" json:"description"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`
	CategoryID      *uint           `json:"category_id"`
	PaymentMode     *string         `json:"payment_mode"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName overrides the default table name.
func (Transaction) TableName() string { return "transaction" }

// TransactionTag associates a transaction with one of its owner's tags. It
// has no identity beyond the pair and is replaced wholesale on update.
type TransactionTag struct {
	TransactionID uint `gorm:"primaryKey;autoIncrement:false"`
	TagID         uint `gorm:"primaryKey;autoIncrement:false;index"`
}

// TableName overrides the default table name.
func (TransactionTag) TableName() string { return "transaction_tags" }
