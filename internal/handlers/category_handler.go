package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/models"
	"pocketledger/internal/services"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name string              `json:"name" binding:"required,max=100"`
	Type models.CategoryType `json:"type" binding:"required,category_type" example:"Expense"`
}

// UpdateCategoryRequest represents the request payload for updating a category
type UpdateCategoryRequest struct {
	Name *string              `json:"name" binding:"omitempty,max=100"`
	Type *models.CategoryType `json:"type" binding:"omitempty,category_type" example:"Income"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a new income or expense category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} map[string]models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Category name already used"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), userID, req.Name, req.Type)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recordAudit(c, h.auditService, userID, services.AuditActionCreate, "category", category.ID,
		map[string]interface{}{"name": category.Name, "type": category.Type})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetUserCategories returns the caller's categories
// @Summary     List categories
// @Description List the caller's categories ordered by name
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       type query string false "Income or Expense"
// @Success     200 {object} map[string][]models.Category "Categories"
// @Failure     400 {object} ErrorResponse "Invalid type"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /categories [get]
func (h *CategoryHandler) GetUserCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var categoryType *models.CategoryType
	if raw := c.Query("type"); raw != "" {
		t := models.CategoryType(raw)
		if !t.Valid() {
			respondWithError(c, apperrors.InvalidField("type", "type must be Income or Expense"))
			return
		}
		categoryType = &t
	}

	categories, err := h.categoryService.ListCategories(c.Request.Context(), userID, categoryType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategoryByID returns a single category
// @Summary     Get a category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Category ID"
// @Success     200 {object} map[string]models.Category "Category"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(c.Request.Context(), userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory renames or retypes a category
// @Summary     Update a category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                   true "Category ID"
// @Param       request body UpdateCategoryRequest true "Fields to change"
// @Success     200 {object} map[string]models.Category "Category updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category name already used"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), userID, categoryID, req.Name, req.Type)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recordAudit(c, h.auditService, userID, services.AuditActionUpdate, "category", categoryID,
		map[string]interface{}{"name": category.Name, "type": category.Type})

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory removes a category and its budgets
// @Summary     Delete a category
// @Description Delete a category that no transaction uses; its budgets go with it
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Category ID"
// @Success     200 {object} MessageResponse "Category deleted"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category still has transactions"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(c.Request.Context(), userID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	recordAudit(c, h.auditService, userID, services.AuditActionDelete, "category", categoryID, nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Category deleted successfully"})
}
