package services

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "pocketledger/internal/errors"
)

// storeError classifies a persistence error. AppErrors pass through; translated
// constraint failures become client errors; everything else is a 500 that
// keeps the cause for logging.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperrors.Wrap(apperrors.ErrReferentialViolation, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Wrap(apperrors.ErrConflict, err)
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// notFoundOr maps gorm.ErrRecordNotFound to notFound and classifies the rest.
func notFoundOr(err error, notFound *apperrors.AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return storeError(err)
}

// duplicateOr maps a unique-constraint violation to duplicate and classifies the rest.
func duplicateOr(err error, duplicate *apperrors.AppError) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return duplicate
	}
	return storeError(err)
}

// money renders an amount with exactly two decimals as a JSON number.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
