package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CollectionsController serves one kind of ordered collection. Mylists and
// playlists each get their own instance.
type CollectionsController struct {
	noun     string
	store    CollectionStore
	works    WorkStore
	recorder Recorder
}

func NewCollectionsController(noun string, store CollectionStore, works WorkStore, recorder Recorder) *CollectionsController {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &CollectionsController{noun: noun, store: store, works: works, recorder: recorder}
}

type collectionRequest struct {
	Name string `json:"name" binding:"required"`
}

type addWorkRequest struct {
	WorkID uint `json:"work_id" binding:"required"`
}

type reorderRequest struct {
	Works []uint `json:"works" binding:"required"`
}

// List returns the caller's collections.
// GET /api/mylists
func (cc *CollectionsController) List(c *gin.Context) {
	list, err := cc.store.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondStoreError(c, err, "list "+cc.noun)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create creates an empty collection.
// POST /api/mylists
func (cc *CollectionsController) Create(c *gin.Context) {
	var req collectionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		respondBadRequest(c, "name is required")
		return
	}
	created, err := cc.store.Create(c.Request.Context(), currentUser(c), req.Name)
	var id uint
	if created != nil {
		id = created.ID
	}
	cc.recorder.LogCollection(currentUser(c), cc.noun, "create", id, err)
	if err != nil {
		respondStoreError(c, err, "create "+cc.noun)
		return
	}
	respondCreated(c, created)
}

// Get returns a collection with the details of its works in stored order.
// GET /api/mylists/:id
func (cc *CollectionsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	coll, err := cc.store.Get(ctx, currentUser(c), id)
	if err != nil {
		respondStoreError(c, err, "get "+cc.noun)
		return
	}
	details, err := cc.works.GetWorkDetails(ctx, currentUser(c), coll.Works)
	if err != nil {
		respondStoreError(c, err, "get "+cc.noun)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		cc.noun:  coll,
		"works": details,
	})
}

// Rename changes a collection's name.
// PUT /api/mylists/:id
func (cc *CollectionsController) Rename(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req collectionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		respondBadRequest(c, "name is required")
		return
	}
	err := cc.store.Rename(c.Request.Context(), currentUser(c), id, req.Name)
	cc.recorder.LogCollection(currentUser(c), cc.noun, "rename", id, err)
	if err != nil {
		respondStoreError(c, err, "rename "+cc.noun)
		return
	}
	respondSuccess(c, cc.noun+" renamed")
}

// Delete removes a collection and its memberships.
// DELETE /api/mylists/:id
func (cc *CollectionsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	err := cc.store.Delete(c.Request.Context(), currentUser(c), id)
	cc.recorder.LogCollection(currentUser(c), cc.noun, "delete", id, err)
	if err != nil {
		respondStoreError(c, err, "delete "+cc.noun)
		return
	}
	respondSuccess(c, cc.noun+" deleted")
}

// AddWork appends a work to a collection.
// POST /api/mylists/:id/works
func (cc *CollectionsController) AddWork(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req addWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "work_id is required")
		return
	}
	err := cc.store.AddWork(c.Request.Context(), currentUser(c), id, req.WorkID)
	cc.recorder.LogCollection(currentUser(c), cc.noun, "add_work", id, err)
	if err != nil {
		respondStoreError(c, err, "add work to "+cc.noun)
		return
	}
	respondSuccess(c, "work added")
}

// RemoveWork drops a work from a collection.
// DELETE /api/mylists/:id/works/:work_id
func (cc *CollectionsController) RemoveWork(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	workID, ok := parseIDParam(c, "work_id")
	if !ok {
		return
	}
	err := cc.store.RemoveWork(c.Request.Context(), currentUser(c), id, workID)
	cc.recorder.LogCollection(currentUser(c), cc.noun, "remove_work", id, err)
	if err != nil {
		respondStoreError(c, err, "remove work from "+cc.noun)
		return
	}
	respondSuccess(c, "work removed")
}

// Reorder replaces the order of a collection's works. The new order must be
// a permutation of the current one.
// PUT /api/mylists/:id/order
func (cc *CollectionsController) Reorder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "works is required")
		return
	}
	err := cc.store.Reorder(c.Request.Context(), currentUser(c), id, req.Works)
	cc.recorder.LogCollection(currentUser(c), cc.noun, "reorder", id, err)
	if err != nil {
		respondStoreError(c, err, "reorder "+cc.noun)
		return
	}
	respondSuccess(c, cc.noun+" reordered")
}
