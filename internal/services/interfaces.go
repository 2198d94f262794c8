package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"pocketledger/internal/models"
	"pocketledger/internal/pagination"
	"pocketledger/internal/txinput"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, username, email, password string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, userID uint, name string, categoryType models.CategoryType) (*models.Category, error)
	ListCategories(ctx context.Context, userID uint, categoryType *models.CategoryType) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, userID, categoryID uint) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID uint, name *string, categoryType *models.CategoryType) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID uint) error
}

// TagUsage is a tag together with the number of transactions carrying it.
type TagUsage struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	UsageCount int64  `json:"usage_count"`
}

// TagServicer defines the contract for tag-related business logic.
type TagServicer interface {
	CreateTag(ctx context.Context, userID uint, name string) (*models.Tag, error)
	ListTags(ctx context.Context, userID uint) ([]TagUsage, error)
	DeleteTag(ctx context.Context, userID, tagID uint) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	CategoryID *uint
	TagID      *uint
	// Limit caps the number of rows; zero returns everything.
	Limit int
}

// TransactionView is a transaction as returned to clients: scalar fields plus
// the category display name and the owner's tag names joined by ", ".
type TransactionView struct {
	ID              uint                 `json:"id"`
	Amount          json.Number          `json:"amount" swaggertype:"number" example:"250.00"`
	Description     string               `json:"description"`
	TransactionDate time.Time            `json:"transaction_date"`
	CategoryID      *uint                `json:"category_id"`
	Category        string               `json:"category"`
	CategoryType    *models.CategoryType `json:"category_type,omitempty"`
	PaymentMode     *string              `json:"payment_mode"`
	TagIDs          []uint               `json:"tag_ids"`
	Tags            string               `json:"tags"`
}

// TransactionWriter persists transactions and their tag sets atomically.
type TransactionWriter interface {
	CreateTransaction(ctx context.Context, userID uint, rec txinput.Record) (uint, error)
	UpdateTransaction(ctx context.Context, userID, transactionID uint, patch txinput.Patch) error
	DeleteTransaction(ctx context.Context, userID, transactionID uint) error
}

// TransactionReader returns committed transactions in their enriched form.
type TransactionReader interface {
	GetTransaction(ctx context.Context, userID, transactionID uint) (*TransactionView, error)
	ListTransactions(ctx context.Context, userID uint, filter TransactionFilter) ([]TransactionView, error)
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	TransactionWriter
	TransactionReader
}

// BudgetView is a budget row with its category name and month as YYYY-MM-DD.
type BudgetView struct {
	ID         uint        `json:"id"`
	CategoryID uint        `json:"category_id"`
	Category   string      `json:"category"`
	Month      string      `json:"month" example:"2025-03-01"`
	Limit      json.Number `json:"limit" swaggertype:"number" example:"500.00"`
}

// BudgetProgress compares a budget's limit with what was spent in its month.
type BudgetProgress struct {
	BudgetID   uint        `json:"budget_id"`
	CategoryID uint        `json:"category_id"`
	Category   string      `json:"category"`
	Month      string      `json:"month"`
	Limit      json.Number `json:"limit" swaggertype:"number"`
	Spent      json.Number `json:"spent" swaggertype:"number"`
	Remaining  json.Number `json:"remaining" swaggertype:"number"`
	Percentage float64     `json:"percentage"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	SetBudget(ctx context.Context, userID, categoryID uint, month time.Time, limit decimal.Decimal) (*BudgetView, error)
	ListBudgets(ctx context.Context, userID uint, month *time.Time) ([]BudgetView, error)
	DeleteBudget(ctx context.Context, userID, budgetID uint) error
	GetBudgetProgress(ctx context.Context, userID uint, month time.Time) ([]BudgetProgress, error)
}

// Dashboard is the headline widget set.
type Dashboard struct {
	TotalBalance      json.Number `json:"total_balance" swaggertype:"number"`
	MonthlyIncome     json.Number `json:"monthly_income" swaggertype:"number"`
	MonthlyExpense    json.Number `json:"monthly_expense" swaggertype:"number"`
	TotalTransactions int64       `json:"total_transactions"`
}

// Summary is the all-time income/expense position plus the latest entries.
type Summary struct {
	TotalIncome        json.Number       `json:"total_income" swaggertype:"number"`
	TotalExpenses      json.Number       `json:"total_expenses" swaggertype:"number"`
	Balance            json.Number       `json:"balance" swaggertype:"number"`
	RecentTransactions []TransactionView `json:"recent_transactions"`
}

// CategoryTotal is one slice of the expense-by-category chart.
type CategoryTotal struct {
	CategoryID uint        `json:"category_id"`
	Category   string      `json:"category"`
	Total      json.Number `json:"total" swaggertype:"number"`
}

// MonthlyPoint is one month of a chart series, labelled YYYY-MM.
type MonthlyPoint struct {
	Month   string      `json:"month" example:"2025-03"`
	Income  json.Number `json:"income,omitempty" swaggertype:"number"`
	Expense json.Number `json:"expense" swaggertype:"number"`
}

// ReportServicer defines the read-only aggregate reports over transactions.
type ReportServicer interface {
	GetDashboard(ctx context.Context, userID uint) (*Dashboard, error)
	GetSummary(ctx context.Context, userID uint) (*Summary, error)
	ExpenseByCategory(ctx context.Context, userID uint) ([]CategoryTotal, error)
	IncomeVsExpense(ctx context.Context, userID uint, months int) ([]MonthlyPoint, error)
	MonthlyExpenditure(ctx context.Context, userID uint, months int) ([]MonthlyPoint, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
	ListAuditLogs(ctx context.Context, userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}
