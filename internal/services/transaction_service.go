package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/models"
	"pocketledger/internal/txinput"
)

// transactionService handles transaction-related business logic. Every write
// runs inside a single database transaction; a failure at any step, including
// a cancelled context, rolls the whole call back.
type transactionService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// CreateTransaction inserts the transaction and its tag links and returns the new id.
func (s *transactionService) CreateTransaction(ctx context.Context, userID uint, rec txinput.Record) (uint, error) {
	date := s.now()
	if rec.TransactionDate != nil {
		date = rec.TransactionDate.UTC()
	}

	transaction := &models.Transaction{
		UserID:          userID,
		Amount:          rec.Amount,
		Description:     rec.Description,
		TransactionDate: date,
		CategoryID:      rec.CategoryID,
		PaymentMode:     rec.PaymentMode,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if rec.CategoryID != nil {
			if err := verifyCategoryOwner(tx, userID, *rec.CategoryID); err != nil {
				return err
			}
		}

		if err := tx.Create(transaction).Error; err != nil {
			return storeError(err)
		}

		return linkTags(tx, userID, transaction.ID, rec.TagIDs)
	})
	if err != nil {
		return 0, storeError(err)
	}
	return transaction.ID, nil
}

// UpdateTransaction applies only the fields present in patch. A supplied tag
// list, even an empty one, replaces every existing tag link.
//
// An empty patch writes nothing, not even updated_at; it only reports whether
// the transaction exists for this user.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, transactionID uint, patch txinput.Patch) error {
	if patch.IsEmpty() {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
			Where("id = ? AND user_id = ?", transactionID, userID).
			Count(&count).Error; err != nil {
			return storeError(err)
		}
		if count == 0 {
			return apperrors.ErrTransactionNotFound
		}
		return nil
	}

	fields := patchColumns(patch, s.now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Transaction{}).
			Where("id = ? AND user_id = ?", transactionID, userID).
			Updates(fields)
		if result.Error != nil {
			return storeError(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrTransactionNotFound
		}

		if categoryID, ok := patch.CategoryID.Get(); ok {
			if err := verifyCategoryOwner(tx, userID, categoryID); err != nil {
				return err
			}
		}

		tagIDs, ok := patch.TagIDs.Get()
		if !ok {
			return nil
		}
		if err := tx.Where("transaction_id = ?", transactionID).Delete(&models.TransactionTag{}).Error; err != nil {
			return storeError(err)
		}
		return linkTags(tx, userID, transactionID, tagIDs)
	})
	return storeError(err)
}

// DeleteTransaction removes the tag links and then the transaction itself.
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transaction_id = ?", transactionID).Delete(&models.TransactionTag{}).Error; err != nil {
			return storeError(err)
		}

		result := tx.Where("id = ? AND user_id = ?", transactionID, userID).Delete(&models.Transaction{})
		if result.Error != nil {
			return storeError(result.Error)
		}
		if result.RowsAffected == 0 {
			// Rolls back the link delete above when the id belongs to someone else.
			return apperrors.ErrTransactionNotFound
		}
		return nil
	})
	return storeError(err)
}

// patchColumns builds the column map for an update. updated_at is always
// written so that a matching row is reported as affected even when no other
// column changes.
func patchColumns(patch txinput.Patch, now time.Time) map[string]interface{} {
	fields := map[string]interface{}{"updated_at": now}

	if amount, ok := patch.Amount.Get(); ok {
		fields["amount"] = amount
	}
	if desc, ok := patch.Description.Get(); ok {
		fields["description"] = desc
	}
	if date, ok := patch.TransactionDate.Get(); ok {
		fields["transaction_date"] = date.UTC()
	}
	if !patch.CategoryID.IsUnset() {
		if id, ok := patch.CategoryID.Get(); ok {
			fields["category_id"] = id
		} else {
			fields["category_id"] = nil
		}
	}
	if !patch.PaymentMode.IsUnset() {
		if mode, ok := patch.PaymentMode.Get(); ok {
			fields["payment_mode"] = mode
		} else {
			fields["payment_mode"] = nil
		}
	}
	return fields
}

// verifyCategoryOwner fails with INVALID_CATEGORY unless the category exists
// and belongs to userID.
func verifyCategoryOwner(tx *gorm.DB, userID, categoryID uint) error {
	var count int64
	if err := tx.Model(&models.Category{}).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Count(&count).Error; err != nil {
		return storeError(err)
	}
	if count == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidCategory,
			fmt.Sprintf("category %d does not exist or does not belong to you", categoryID))
	}
	return nil
}

// linkTags verifies in one query that every tag belongs to userID and then
// inserts the links. tagIDs must already be free of duplicates.
func linkTags(tx *gorm.DB, userID, transactionID uint, tagIDs []uint) error {
	if len(tagIDs) == 0 {
		return nil
	}

	var owned []uint
	if err := tx.Model(&models.Tag{}).
		Where("user_id = ? AND id IN ?", userID, tagIDs).
		Pluck("id", &owned).Error; err != nil {
		return storeError(err)
	}
	if len(owned) != len(tagIDs) {
		ownedSet := make(map[uint]struct{}, len(owned))
		for _, id := range owned {
			ownedSet[id] = struct{}{}
		}
		for _, id := range tagIDs {
			if _, ok := ownedSet[id]; !ok {
				return apperrors.WithMessage(apperrors.ErrInvalidTag,
					fmt.Sprintf("tag %d does not exist or does not belong to you", id))
			}
		}
	}

	links := make([]models.TransactionTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		links = append(links, models.TransactionTag{TransactionID: transactionID, TagID: id})
	}
	if err := tx.Create(&links).Error; err != nil {
		return storeError(err)
	}
	return nil
}
