package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/models"
)

// UncategorizedLabel is shown in place of a category name when a
// transaction has none.
const UncategorizedLabel = "Uncategorized"

// tagSeparator joins tag names in TransactionView.Tags.
const tagSeparator = ", "

// GetTransaction returns one committed transaction owned by userID.
func (s *transactionService) GetTransaction(ctx context.Context, userID, transactionID uint) (*TransactionView, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).
		Preload("Category").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrTransactionNotFound)
	}

	views, err := s.enrich(ctx, []models.Transaction{transaction})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListTransactions returns the owner's transactions, newest first.
func (s *transactionService) ListTransactions(ctx context.Context, userID uint, filter TransactionFilter) ([]TransactionView, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	q = applyTransactionFilters(q, filter)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var transactions []models.Transaction
	if err := q.Preload("Category").
		Order("transaction_date DESC").
		Order("id DESC").
		Find(&transactions).Error; err != nil {
		return nil, storeError(err)
	}

	return s.enrich(ctx, transactions)
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("transaction_date >= ?", f.FromDate.UTC())
	}
	if f.ToDate != nil {
		q = q.Where("transaction_date <= ?", f.ToDate.UTC())
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.TagID != nil {
		// NewDB drops the outer conditions but keeps the request context.
		links := q.Session(&gorm.Session{NewDB: true}).Model(&models.TransactionTag{}).
			Select("transaction_id").
			Where("tag_id = ?", *f.TagID)
		q = q.Where("id IN (?)", links)
	}
	return q
}

// transactionTagRow is one (transaction, tag) pair joined with the tag name.
type transactionTagRow struct {
	TransactionID uint
	TagID         uint
	Name          string
}

// enrich attaches category names and tag names to already loaded rows,
// preserving their order. Tags are listed by ascending tag id.
func (s *transactionService) enrich(ctx context.Context, transactions []models.Transaction) ([]TransactionView, error) {
	views := make([]TransactionView, len(transactions))
	if len(transactions) == 0 {
		return views, nil
	}

	ids := make([]uint, len(transactions))
	for i, t := range transactions {
		ids[i] = t.ID
	}

	var rows []transactionTagRow
	if err := s.db.WithContext(ctx).
		Table("transaction_tags").
		Select("transaction_tags.transaction_id, tag.id AS tag_id, tag.name").
		Joins("JOIN tag ON tag.id = transaction_tags.tag_id").
		Where("transaction_tags.transaction_id IN ?", ids).
		Order("transaction_tags.transaction_id, tag.id").
		Scan(&rows).Error; err != nil {
		return nil, storeError(err)
	}

	tagIDs := make(map[uint][]uint, len(transactions))
	tagNames := make(map[uint][]string, len(transactions))
	for _, r := range rows {
		tagIDs[r.TransactionID] = append(tagIDs[r.TransactionID], r.TagID)
		tagNames[r.TransactionID] = append(tagNames[r.TransactionID], r.Name)
	}

	for i, t := range transactions {
		view := TransactionView{
			ID:              t.ID,
			Amount:          money(t.Amount),
			Description:     t.Description,
			TransactionDate: t.TransactionDate.UTC(),
			CategoryID:      t.CategoryID,
			Category:        UncategorizedLabel,
			PaymentMode:     t.PaymentMode,
			TagIDs:          tagIDs[t.ID],
			Tags:            strings.Join(tagNames[t.ID], tagSeparator),
		}
		if view.TagIDs == nil {
			view.TagIDs = []uint{}
		}
		if t.Category != nil {
			view.Category = t.Category.Name
			categoryType := t.Category.Type
			view.CategoryType = &categoryType
		}
		views[i] = view
	}
	return views, nil
}
