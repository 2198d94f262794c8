// Package models holds the GORM models backing the ledger tables.
package models

// All lists every model in dependency order, for AutoMigrate in tests.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Tag{},
		&Transaction{},
		&TransactionTag{},
		&Budget{},
		&AuditLog{},
	}
}
