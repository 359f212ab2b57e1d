package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

type HabitHandler struct {
	svc *services.HabitService
}

func NewHabitHandler(svc *services.HabitService) *HabitHandler {
	return &HabitHandler{
		svc: svc,
	}
}

type createHabitRequest struct {
	ID           string                 `json:"id" binding:"omitempty,uuid"`
	Title        string                 `json:"title" binding:"required"`
	Description  string                 `json:"description"`
	Color        string                 `json:"color"`
	Icon         string                 `json:"icon"`
	Type         string                 `json:"type"`
	ReminderTime string                 `json:"reminder_time"`
	Unit         string                 `json:"unit"`
	TargetValue  int                    `json:"target_value" binding:"min=0"`
	Recurrence   *domain.RecurrenceSpec `json:"recurrence"`
	StartDate    string                 `json:"start_date"`
	EndDate      string                 `json:"end_date"`
}

type updateHabitRequest struct {
	Title        *string                `json:"title"`
	Description  *string                `json:"description"`
	Color        *string                `json:"color"`
	Icon         *string                `json:"icon"`
	Type         *string                `json:"type"`
	ReminderTime *string                `json:"reminder_time"`
	Unit         *string                `json:"unit"`
	TargetValue  *int                   `json:"target_value" binding:"omitempty,min=0"`
	Recurrence   *domain.RecurrenceSpec `json:"recurrence"`
	StartDate    string                 `json:"start_date"`
	EndDate      string                 `json:"end_date"`
	Version      int                    `json:"version" binding:"min=0"`
}

type reorderRequest struct {
	Position *int `json:"position" binding:"required"`
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.POST("", h.Create)
		habits.GET("", h.List)
		habits.GET("/sync", h.Sync)
		habits.GET("/:id", h.Get)
		habits.PUT("/:id", h.Update)
		habits.PATCH("/:id/position", h.Reorder)
		habits.POST("/:id/archive", h.Archive)
		habits.POST("/:id/restore", h.Restore)
		habits.DELETE("/:id", h.Delete)
	}
}

// Create godoc
// @Summary      Create a habit
// @Tags         habits
// @Accept       json
// @Produce      json
// @Param        habit  body      createHabitRequest  true  "Habit"
// @Success      201    {object}  domain.Habit
// @Failure      400    {object}  map[string]string
// @Security     BearerAuth
// @Router       /habits [post]
func (h *HabitHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recurrence, err := parseRecurrence(req.Recurrence)
	if err != nil {
		handleError(c, err)
		return
	}
	start, err := domain.ParseOptionalDate("start_date", req.StartDate)
	if err != nil {
		handleError(c, err)
		return
	}
	end, err := domain.ParseOptionalDate("end_date", req.EndDate)
	if err != nil {
		handleError(c, err)
		return
	}

	habit, err := h.svc.Create(c.Request.Context(), services.CreateHabitInput{
		ID:           req.ID,
		UserID:       userID,
		Title:        req.Title,
		Description:  req.Description,
		Color:        req.Color,
		Icon:         req.Icon,
		Type:         req.Type,
		ReminderTime: req.ReminderTime,
		Unit:         req.Unit,
		TargetValue:  req.TargetValue,
		Recurrence:   recurrence,
		StartDate:    start,
		EndDate:      end,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, habit)
}

func (h *HabitHandler) List(c *gin.Context) {
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

func (h *HabitHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	habit, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

// Sync godoc
// @Summary      Habits changed since the last sync
// @Tags         habits
// @Produce      json
// @Param        last_sync  query  string  false  "RFC3339 timestamp"
// @Security     BearerAuth
// @Router       /habits/sync [get]
func (h *HabitHandler) Sync(c *gin.Context) {
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

func (h *HabitHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req updateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recurrence, err := parseRecurrence(req.Recurrence)
	if err != nil {
		handleError(c, err)
		return
	}
	start, err := domain.ParseOptionalDate("start_date", req.StartDate)
	if err != nil {
		handleError(c, err)
		return
	}
	end, err := domain.ParseOptionalDate("end_date", req.EndDate)
	if err != nil {
		handleError(c, err)
		return
	}

	habit, err := h.svc.Update(c.Request.Context(), services.UpdateHabitInput{
		ID:           c.Param("id"),
		UserID:       userID,
		Title:        req.Title,
		Description:  req.Description,
		Color:        req.Color,
		Icon:         req.Icon,
		Type:         req.Type,
		ReminderTime: req.ReminderTime,
		Unit:         req.Unit,
		TargetValue:  req.TargetValue,
		Recurrence:   recurrence,
		StartDate:    start,
		EndDate:      end,
		Version:      req.Version,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Reorder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	habit, err := h.svc.Reorder(c.Request.Context(), c.Param("id"), userID, *req.Position)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Archive(c *gin.Context) {
	h.setArchived(c, true)
}

func (h *HabitHandler) Restore(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *HabitHandler) setArchived(c *gin.Context, archived bool) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	habit, err := h.svc.SetArchived(c.Request.Context(), c.Param("id"), userID, archived)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Delete(c *gin.Context) {
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
