package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/yodhcn/kikoeru-express/internal/ingest"
	"github.com/yodhcn/kikoeru-express/internal/tasks"
)

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue         TaskQueue
	retentionDays int
}

// NewTasksController creates a new TasksController.
func NewTasksController(queue TaskQueue, retentionDays int) *TasksController {
	return &TasksController{queue: queue, retentionDays: retentionDays}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

var taskTypes = []TaskTypeInfo{
	{Type: "ingest_work", Description: "Store a batch of scraped works"},
	{Type: "update_work_metrics", Description: "Refresh the dynamic metrics of one work"},
	{Type: "remove_work", Description: "Remove one work and collect what it leaves unreferenced"},
	{Type: "cleanup_audit_events", Description: "Delete audit events past retention"},
	{Type: "scan_orphans", Description: "Count shared entities no work references"},
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"task_types": taskTypes})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondStoreError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "task not found", Code: "not_found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	WorkID        uint              `json:"work_id,omitempty"`
	Works         []ingest.RawWork  `json:"works,omitempty"`
	Metrics       ingest.RawMetrics `json:"metrics"`
	RetentionDays int               `json:"retention_days,omitempty"`
}

// RunTask handles POST /api/tasks/:type/run
// Enqueues a task of the specified type.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	var task backlite.Task
	switch taskType {
	case "ingest_work":
		if len(req.Works) == 0 {
			respondBadRequest(c, "works is required")
			return
		}
		task = tasks.IngestWorkTask{Works: req.Works}
	case "update_work_metrics":
		if req.WorkID == 0 {
			respondBadRequest(c, "work_id is required")
			return
		}
		task = tasks.UpdateWorkMetricsTask{WorkID: req.WorkID, Metrics: req.Metrics}
	case "remove_work":
		if req.WorkID == 0 {
			respondBadRequest(c, "work_id is required")
			return
		}
		task = tasks.RemoveWorkTask{WorkID: req.WorkID, UserName: currentUser(c)}
	case "cleanup_audit_events":
		days := req.RetentionDays
		if days <= 0 {
			days = tc.retentionDays
		}
		task = tasks.CleanupAuditEventsTask{RetentionDays: days}
	case "scan_orphans":
		task = tasks.ScanOrphansTask{}
	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	ids, err := tc.queue.Add(task).Save()
	if err != nil {
		respondStoreError(c, err, "enqueue "+taskType)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": ids[0],
		"type":    taskType,
		"message": "task enqueued",
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
