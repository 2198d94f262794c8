package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"pocketledger/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: fmt.Sprintf("user%d", nextID()),
		Email:    email,
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category of the given type with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID uint, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return CreateTestCategoryNamed(t, db, userID, fmt.Sprintf("Test Category %d", nextID()), categoryType)
}

// CreateTestCategoryNamed creates a category with the given name and type.
func CreateTestCategoryNamed(t *testing.T, db *gorm.DB, userID uint, name string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTag creates a tag with the given name.
func CreateTestTag(t *testing.T, db *gorm.DB, userID uint, name string) *models.Tag {
	t.Helper()

	tag := &models.Tag{UserID: userID, Name: name}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create test tag: %v", err)
	}
	return tag
}

// CreateTestTransaction inserts a transaction directly, bypassing the writer.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID uint, categoryID *uint, amount string, date time.Time) *models.Transaction {
	t.Helper()

	txn := &models.Transaction{
		UserID:          userID,
		Amount:          decimal.RequireFromString(amount),
		Description:     fmt.Sprintf("Test Transaction %d", nextID()),
		TransactionDate: date.UTC(),
		CategoryID:      categoryID,
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return txn
}

// TagTransaction links an existing transaction to a tag.
func TagTransaction(t *testing.T, db *gorm.DB, transactionID, tagID uint) {
	t.Helper()

	link := &models.TransactionTag{TransactionID: transactionID, TagID: tagID}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("failed to tag test transaction: %v", err)
	}
}

// CreateTestBudget creates a budget for the given category and month.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID uint, month time.Time, limit string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Month:      models.FirstOfMonth(month),
		Limit:      decimal.RequireFromString(limit),
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
