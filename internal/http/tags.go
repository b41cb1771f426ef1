package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TagsController edits the caller's private view of a work's tags.
type TagsController struct {
	store TagStore
}

func NewTagsController(store TagStore) *TagsController {
	return &TagsController{store: store}
}

// GetWorkTags returns the caller's custom tags on a work.
// GET /api/work/:id/tags
func (tc *TagsController) GetWorkTags(c *gin.Context) {
	workID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := tc.store.EffectiveTags(c.Request.Context(), currentUser(c), workID)
	if err != nil {
		respondStoreError(c, err, "get work tags")
		return
	}
	c.JSON(http.StatusOK, view)
}

// AttachGlobalTag overrides a work's scraped tags with a global tag.
// POST /api/work/:id/tags/dlsite
func (tc *TagsController) AttachGlobalTag(c *gin.Context) {
	workID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		TagID uint `json:"tag_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "tag_id is required")
		return
	}
	if err := tc.store.AttachGlobalTag(c.Request.Context(), currentUser(c), workID, req.TagID); err != nil {
		respondStoreError(c, err, "attach global tag")
		return
	}
	respondCreated(c, gin.H{"work_id": workID, "tag_id": req.TagID})
}

// DetachGlobalTag removes one override.
// DELETE /api/work/:id/tags/dlsite/:tag_id
func (tc *TagsController) DetachGlobalTag(c *gin.Context) {
	workID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tagID, ok := parseIDParam(c, "tag_id")
	if !ok {
		return
	}
	if err := tc.store.DetachGlobalTag(c.Request.Context(), currentUser(c), workID, tagID); err != nil {
		respondStoreError(c, err, "detach global tag")
		return
	}
	respondSuccess(c, "tag removed")
}

// AttachUserTag tags a work with one of the caller's private tags, creating
// the tag on first use.
// POST /api/work/:id/tags/user
func (tc *TagsController) AttachUserTag(c *gin.Context) {
	workID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		respondBadRequest(c, "name is required")
		return
	}
	tag, err := tc.store.AttachUserTag(c.Request.Context(), currentUser(c), workID, req.Name)
	if err != nil {
		respondStoreError(c, err, "attach user tag")
		return
	}
	respondCreated(c, tag)
}

// DetachUserTag removes a private tag from a work.
// DELETE /api/work/:id/tags/user/:tag_id
func (tc *TagsController) DetachUserTag(c *gin.Context) {
	workID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tagID, ok := parseIDParam(c, "tag_id")
	if !ok {
		return
	}
	if err := tc.store.DetachUserTag(c.Request.Context(), currentUser(c), workID, tagID); err != nil {
		respondStoreError(c, err, "detach user tag")
		return
	}
	respondSuccess(c, "tag removed")
}

// ResetWork drops every tag edit the caller made on a work.
// DELETE /api/work/:id/tags
func (tc *TagsController) ResetWork(c *gin.Context) {
	workID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := tc.store.ResetWork(c.Request.Context(), currentUser(c), workID); err != nil {
		respondStoreError(c, err, "reset work tags")
		return
	}
	respondSuccess(c, "tags reset")
}

// ListUserTags returns the caller's private tags.
// GET /api/user-tags
func (tc *TagsController) ListUserTags(c *gin.Context) {
	list, err := tc.store.ListUserTags(c.Request.Context(), currentUser(c))
	if err != nil {
		respondStoreError(c, err, "list user tags")
		return
	}
	c.JSON(http.StatusOK, list)
}
