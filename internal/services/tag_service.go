package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/models"
)

// maxTagNameLength bounds tag names in runes.
const maxTagNameLength = 50

// tagService handles tag-related business logic.
type tagService struct {
	db *gorm.DB
}

// NewTagService creates a new TagServicer.
func NewTagService(db *gorm.DB) TagServicer {
	return &tagService{db: db}
}

// CreateTag creates a tag with a name unique to the user.
func (s *tagService) CreateTag(ctx context.Context, userID uint, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.InvalidField("name", "tag name is required")
	}
	if len([]rune(name)) > maxTagNameLength {
		return nil, apperrors.InvalidField("name", "tag name must be at most 50 characters")
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Tag{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, storeError(err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateTag
	}

	tag := &models.Tag{UserID: userID, Name: name}
	if err := db.Create(tag).Error; err != nil {
		return nil, duplicateOr(err, apperrors.ErrDuplicateTag)
	}
	return tag, nil
}

// ListTags returns the user's tags ordered by name with the number of
// transactions carrying each.
func (s *tagService) ListTags(ctx context.Context, userID uint) ([]TagUsage, error) {
	tags := []TagUsage{}
	if err := s.db.WithContext(ctx).
		Table("tag").
		Select("tag.id, tag.name, COUNT(transaction_tags.transaction_id) AS usage_count").
		Joins("LEFT JOIN transaction_tags ON transaction_tags.tag_id = tag.id").
		Where("tag.user_id = ?", userID).
		Group("tag.id, tag.name").
		Order("tag.name").
		Scan(&tags).Error; err != nil {
		return nil, storeError(err)
	}
	return tags, nil
}

// DeleteTag removes the tag and every association to it.
func (s *tagService) DeleteTag(ctx context.Context, userID, tagID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&models.Tag{}).
			Where("id = ? AND user_id = ?", tagID, userID).
			Count(&owned).Error; err != nil {
			return storeError(err)
		}
		if owned == 0 {
			return apperrors.ErrTagNotFound
		}

		if err := tx.Where("tag_id = ?", tagID).Delete(&models.TransactionTag{}).Error; err != nil {
			return storeError(err)
		}
		if err := tx.Where("id = ? AND user_id = ?", tagID, userID).Delete(&models.Tag{}).Error; err != nil {
			return storeError(err)
		}
		return nil
	})
	return storeError(err)
}
