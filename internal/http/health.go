package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	store   HealthStore
	version string
}

func NewHealthController(store HealthStore, version string) *HealthController {
	return &HealthController{
		store:   store,
		version: version,
	}
}

// Status reports store connectivity and the number of unreferenced shared
// entities. Orphans degrade the status but do not make it unhealthy.
// GET /api/health
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if h.store == nil {
		checks["database"] = "not configured"
	} else if err := h.store.Ping(ctx); err != nil {
		checks["database"] = "error: " + err.Error()
		status = "unhealthy"
	} else {
		checks["database"] = "ok"
		report, err := h.store.ScanOrphans(ctx)
		switch {
		case err != nil:
			checks["orphans"] = "error: " + err.Error()
			status = "degraded"
		case report.Total() > 0:
			checks["orphans"] = strconv.FormatInt(report.Total(), 10) + " unreferenced"
			status = "degraded"
		default:
			checks["orphans"] = "ok"
		}
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
