package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yodhcn/kikoeru-express/internal/database/query"
	"github.com/yodhcn/kikoeru-express/internal/ingest"
)

// WorksController serves work listings, details, labels and work-level
// maintenance.
type WorksController struct {
	lister   WorkLister
	store    WorkStore
	recorder Recorder
}

func NewWorksController(lister WorkLister, store WorkStore, recorder Recorder) *WorksController {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &WorksController{lister: lister, store: store, recorder: recorder}
}

// ListWorks returns one page of all works.
// GET /api/works
func (wc *WorksController) ListWorks(c *gin.Context) {
	wc.list(c, query.All())
}

// ListBySource returns one page of the works sharing an entity.
// GET /api/works/:field/:id
func (wc *WorksController) ListBySource(c *gin.Context) {
	kind, err := query.ParseField(c.Param("field"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	src, err := query.ByField(kind, id)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	wc.list(c, src)
}

// Search returns one page of works matching a keyword or an RJ code. A
// missing keyword lists every work.
// GET /api/search?keyword=...
func (wc *WorksController) Search(c *gin.Context) {
	wc.list(c, query.ByKeyword(strings.TrimSpace(c.Query("keyword"))))
}

func (wc *WorksController) list(c *gin.Context, src query.Source) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	result, err := wc.lister.Works(c.Request.Context(), currentUser(c), src, filter, page)
	if err != nil {
		respondStoreError(c, err, "list works")
		return
	}

	ids := make([]uint, len(result.Works))
	for i, w := range result.Works {
		ids[i] = w.ID
	}
	details, err := wc.store.GetWorkDetails(c.Request.Context(), currentUser(c), ids)
	if err != nil {
		respondStoreError(c, err, "list works")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"works": details,
		"pagination": gin.H{
			"currentPage": result.Page,
			"pageSize":    result.PageSize,
			"totalCount":  result.Total,
		},
	})
}

// GetWork returns one work with the caller's custom tags.
// GET /api/work/:id
func (wc *WorksController) GetWork(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	detail, err := wc.store.GetWork(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondStoreError(c, err, "get work")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// DeleteWork removes a work, prunes it from every collection and collects
// the shared entities it leaves unreferenced.
// DELETE /api/work/:id
func (wc *WorksController) DeleteWork(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	report, err := wc.store.RemoveWork(c.Request.Context(), id)
	if report.Removed || err != nil {
		wc.recorder.LogRemove(currentUser(c), id, report.Collections, report.Orphans.Total(), err)
	}
	if err != nil {
		respondStoreError(c, err, "remove work")
		return
	}
	c.JSON(http.StatusOK, report)
}

// UpdateMetrics replaces the dynamic metrics of a work.
// PUT /api/work/:id/metrics
func (wc *WorksController) UpdateMetrics(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ingest.RawMetrics
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid metrics payload")
		return
	}
	err := wc.store.UpdateWorkDynamicMetrics(c.Request.Context(), id, req.Metrics())
	wc.recorder.LogMetrics(id, err)
	if err != nil {
		respondStoreError(c, err, "update metrics")
		return
	}
	respondSuccess(c, "metrics updated")
}

// Labels returns every distinct value of an entity with its work count.
// GET /api/labels/:field
func (wc *WorksController) Labels(c *gin.Context) {
	kind, err := query.ParseLabelKind(c.Param("field"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	labels, err := wc.lister.Labels(c.Request.Context(), currentUser(c), kind)
	if err != nil {
		respondStoreError(c, err, "labels")
		return
	}
	c.JSON(http.StatusOK, labels)
}
