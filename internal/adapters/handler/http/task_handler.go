package http

import (
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

type TaskHandler struct {
	svc *services.TaskService
}

func NewTaskHandler(svc *services.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

type taskRequest struct {
	ID          string                 `json:"id" binding:"omitempty,uuid"`
	Title       string                 `json:"title" binding:"required"`
	Description string                 `json:"description"`
	Priority    domain.Priority        `json:"priority"`
	StartDate   string                 `json:"start_date"`
	DueDate     string                 `json:"due_date"`
	Recurrence  *domain.RecurrenceSpec `json:"recurrence"`
	Version     int                    `json:"version" binding:"min=0"`
}

type taskCompletionResponse struct {
	Task           *domain.Task `json:"task"`
	NewlyCompleted bool         `json:"newly_completed"`
}

func (h *TaskHandler) RegisterRoutes(router *gin.RouterGroup) {
	tasks := router.Group("/tasks")
	{
		tasks.POST("", h.Create)
		tasks.GET("", h.List)
		tasks.GET("/sync", h.Sync)
		tasks.GET("/:id", h.Get)
		tasks.PUT("/:id", h.Update)
		tasks.POST("/:id/complete", h.Complete)
		tasks.DELETE("/:id/complete", h.Reopen)
		tasks.DELETE("/:id", h.Delete)
	}
}

func (r taskRequest) dates() (start, due *civil.Date, err error) {
	start, err = domain.ParseOptionalDate("start_date", r.StartDate)
	if err != nil {
		return nil, nil, err
	}
	due, err = domain.ParseOptionalDate("due_date", r.DueDate)
	if err != nil {
		return nil, nil, err
	}
	return start, due, nil
}

// Create godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        task  body      taskRequest  true  "Task"
// @Success      201   {object}  domain.Task
// @Security     BearerAuth
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recurrence, err := parseRecurrence(req.Recurrence)
	if err != nil {
		handleError(c, err)
		return
	}
	start, due, err := req.dates()
	if err != nil {
		handleError(c, err)
		return
	}

	task, err := h.svc.Create(c.Request.Context(), services.CreateTaskInput{
		ID:          req.ID,
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		StartDate:   start,
		DueDate:     due,
		Recurrence:  recurrence,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := h.svc.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *TaskHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	task, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Sync(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	lastSync, ok := querySince(c, "last_sync")
	if !ok {
		return
	}

	deltas, err := h.svc.GetDelta(c.Request.Context(), userID, lastSync)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes":   deltas,
		"timestamp": time.Now().UTC(),
	})
}

func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recurrence, err := parseRecurrence(req.Recurrence)
	if err != nil {
		handleError(c, err)
		return
	}
	start, due, err := req.dates()
	if err != nil {
		handleError(c, err)
		return
	}

	task, err := h.svc.Update(c.Request.Context(), services.UpdateTaskInput{
		ID:          c.Param("id"),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		StartDate:   start,
		DueDate:     due,
		Recurrence:  recurrence,
		Version:     req.Version,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Complete(c *gin.Context) {
	h.setCompleted(c, true)
}

func (h *TaskHandler) Reopen(c *gin.Context) {
	h.setCompleted(c, false)
}

func (h *TaskHandler) setCompleted(c *gin.Context, completed bool) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	task, newly, err := h.svc.SetCompleted(c.Request.Context(), c.Param("id"), userID, completed)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskCompletionResponse{Task: task, NewlyCompleted: newly})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
