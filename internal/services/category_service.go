package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(ctx context.Context, userID uint, name string, categoryType models.CategoryType) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.InvalidField("name", "category name is required")
	}
	if !categoryType.Valid() {
		return nil, apperrors.InvalidField("type", "category type must be Income or Expense")
	}

	db := s.db.WithContext(ctx)
	if err := s.ensureNameFree(db, userID, name, 0); err != nil {
		return nil, err
	}

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		return nil, duplicateOr(err, apperrors.ErrDuplicateCategory)
	}

	return category, nil
}

// ListCategories returns the user's categories ordered by name, optionally
// restricted to one type.
func (s *categoryService) ListCategories(ctx context.Context, userID uint, categoryType *models.CategoryType) ([]models.Category, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if categoryType != nil {
		q = q.Where("type = ?", *categoryType)
	}

	categories := []models.Category{}
	if err := q.Order("name").Find(&categories).Error; err != nil {
		return nil, storeError(err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(ctx context.Context, userID, categoryID uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", categoryID, userID).
		First(&category).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrCategoryNotFound)
	}
	return &category, nil
}

// UpdateCategory renames and/or retypes an existing category
func (s *categoryService) UpdateCategory(ctx context.Context, userID, categoryID uint, name *string, categoryType *models.CategoryType) (*models.Category, error) {
	category, err := s.GetCategoryByID(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	updates := make(map[string]interface{})
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperrors.InvalidField("name", "category name cannot be empty")
		}
		if trimmed != category.Name {
			if err := s.ensureNameFree(db, userID, trimmed, categoryID); err != nil {
				return nil, err
			}
			updates["name"] = trimmed
		}
	}
	if categoryType != nil {
		if !categoryType.Valid() {
			return nil, apperrors.InvalidField("type", "category type must be Income or Expense")
		}
		updates["type"] = *categoryType
	}

	if len(updates) > 0 {
		if err := db.Model(category).Updates(updates).Error; err != nil {
			return nil, duplicateOr(err, apperrors.ErrDuplicateCategory)
		}
	}

	return category, nil
}

// DeleteCategory deletes a category and its budgets. A category that still
// has transactions cannot be deleted.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Model(&models.Transaction{}).
			Where("category_id = ? AND user_id = ?", categoryID, userID).
			Count(&inUse).Error; err != nil {
			return storeError(err)
		}
		if inUse > 0 {
			return apperrors.ErrCategoryInUse
		}

		if err := tx.Where("category_id = ? AND user_id = ?", categoryID, userID).
			Delete(&models.Budget{}).Error; err != nil {
			return storeError(err)
		}

		result := tx.Where("id = ? AND user_id = ?", categoryID, userID).Delete(&models.Category{})
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
				return apperrors.ErrCategoryInUse
			}
			return storeError(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrCategoryNotFound
		}
		return nil
	})
	return storeError(err)
}

func (s *categoryService) ensureNameFree(db *gorm.DB, userID uint, name string, exceptID uint) error {
	var count int64
	if err := db.Model(&models.Category{}).
		Where("user_id = ? AND name = ? AND id <> ?", userID, name, exceptID).
		Count(&count).Error; err != nil {
		return storeError(err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategory
	}
	return nil
}
