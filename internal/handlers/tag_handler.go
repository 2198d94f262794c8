package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pocketledger/internal/services"
)

// TagHandler handles tag-related requests.
type TagHandler struct {
	tagService   services.TagServicer
	auditService services.AuditServicer
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(tagService services.TagServicer, auditService services.AuditServicer) *TagHandler {
	return &TagHandler{tagService: tagService, auditService: auditService}
}

// CreateTagRequest represents the request payload for creating a tag.
type CreateTagRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

// CreateTag handles the creation of a new tag
// @Summary     Create a tag
// @Tags        tags
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTagRequest true "Tag name"
// @Success     201 {object} map[string]models.Tag "Tag created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Tag already exists"
// @Router      /tags [post]
func (h *TagHandler) CreateTag(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	tag, err := h.tagService.CreateTag(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recordAudit(c, h.auditService, userID, services.AuditActionCreate, "tag", tag.ID,
		map[string]interface{}{"name": tag.Name})

	c.JSON(http.StatusCreated, gin.H{"tag": tag})
}

// GetUserTags lists the caller's tags with usage counts
// @Summary     List tags
// @Tags        tags
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]services.TagUsage "Tags"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /tags [get]
func (h *TagHandler) GetUserTags(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tags, err := h.tagService.ListTags(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// DeleteTag removes a tag from every transaction and deletes it
// @Summary     Delete a tag
// @Tags        tags
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Tag ID"
// @Success     200 {object} MessageResponse "Tag deleted"
// @Failure     404 {object} ErrorResponse "Tag not found"
// @Router      /tags/{id} [delete]
func (h *TagHandler) DeleteTag(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tagID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.tagService.DeleteTag(c.Request.Context(), userID, tagID); err != nil {
		respondWithError(c, err)
		return
	}

	recordAudit(c, h.auditService, userID, services.AuditActionDelete, "tag", tagID, nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Tag deleted successfully"})
}
