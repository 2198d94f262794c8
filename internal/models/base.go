package models

import "time"

// Base contains common columns for all tables. Rows are hard-deleted;
// nothing in the ledger is soft-deleted.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
