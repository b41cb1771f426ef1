package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yodhcn/kikoeru-express/internal/ingest"
)

type IngestController struct {
	ingester Ingester
}

func NewIngestController(ingester Ingester) *IngestController {
	return &IngestController{ingester: ingester}
}

// Ingest stores a JSON array (or a single object) of scraped works.
// Records that fail validation are listed in the response; the rest are kept.
// POST /api/ingest
func (ic *IngestController) Ingest(c *gin.Context) {
	works, err := ingest.DecodeWorks(c.Request.Body)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	result, err := ic.ingester.Ingest(c.Request.Context(), works)
	if err != nil {
		respondStoreError(c, err, "ingest")
		return
	}

	status := http.StatusOK
	if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}
