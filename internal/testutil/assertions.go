package testutil

import (
	"errors"
	"slices"
	"testing"

	"gorm.io/gorm"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/models"
)

// AssertAppError fails unless err is an *AppError with the given code, and
// returns it for further checks.
func AssertAppError(t *testing.T, err error, expectedCode string) *apperrors.AppError {
	t.Helper()

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError %q, got %T: %v", expectedCode, err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
	return appErr
}

// AssertFieldError is AssertAppError plus a check on the offending field.
func AssertFieldError(t *testing.T, err error, expectedCode, expectedField string) {
	t.Helper()

	if appErr := AssertAppError(t, err, expectedCode); appErr.Field != expectedField {
		t.Errorf("expected field %q on %s, got %q", expectedField, expectedCode, appErr.Field)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertTagLinks checks the exact tag set linked to a transaction.
func AssertTagLinks(t *testing.T, db *gorm.DB, transactionID uint, want ...uint) {
	t.Helper()

	var got []uint
	if err := db.Model(&models.TransactionTag{}).
		Where("transaction_id = ?", transactionID).
		Order("tag_id").
		Pluck("tag_id", &got).Error; err != nil {
		t.Fatalf("failed to load tag links: %v", err)
	}

	want = slices.Clone(want)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Errorf("expected tag links %v on transaction %d, got %v", want, transactionID, got)
	}
}
