package http

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
)

// TaskQueue is the part of the task client the admin endpoints use.
type TaskQueue interface {
	EnqueueOverdueSweep(ctx context.Context, trigger string) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// TasksController handles maintenance task endpoints for administrators.
type TasksController struct {
	queue TaskQueue
}

// NewTasksController creates a new TasksController.
func NewTasksController(queue TaskQueue) *TasksController {
	return &TasksController{queue: queue}
}

// GetTaskStatus handles GET /api/admin/tasks/:id
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
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunOverdueSweep handles POST /api/admin/overdue-sweep
// Supports both JSON API and HTMX requests from the admin page.
func (tc *TasksController) RunOverdueSweep(c *gin.Context) {
	id, err := tc.queue.EnqueueOverdueSweep(c.Request.Context(), "admin")
	if err != nil {
		tc.respondTaskError(c, err)
		return
	}

	if isHTMXRequest(c) {
		c.Header("Content-Type", "text/html")
		c.String(http.StatusOK, fmt.Sprintf(
			`<div class="notice notice-success">Overdue sweep enqueued <span class="muted">(%s)</span></div>`,
			template.HTMLEscapeString(id)))
		return
	}

	respondAccepted(c, "task enqueued", gin.H{"task_id": id, "type": "mark_overdue_loans"})
}

func (tc *TasksController) respondTaskError(c *gin.Context, err error) {
	if isHTMXRequest(c) {
		c.Header("Content-Type", "text/html")
		c.String(http.StatusOK, `<div class="notice notice-error">Failed to enqueue overdue sweep</div>`)
		return
	}
	respondInternalError(c, err, "enqueue overdue sweep")
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
