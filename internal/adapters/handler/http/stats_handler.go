package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

const maxStatsRangeDays = 366

type StatsHandler struct {
	svc   *services.StatsService
	clock services.Clock
}

// NewStatsHandler builds the handler. clock supplies the default dates of
// query parameters; nil means the wall clock.
func NewStatsHandler(svc *services.StatsService, clock services.Clock) *StatsHandler {
	return &StatsHandler{svc: svc, clock: clock}
}

func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats/weekly", h.GetWeeklyStats)
	r.GET("/stats/progress", h.ListProgress)
	r.GET("/habits/:id/progress", h.GetHabitProgress)
}

// GetWeeklyStats godoc
// @Summary      Completion rates over a date range
// @Tags         stats
// @Produce      json
// @Param        start_date  query     string  false  "YYYY-MM-DD, defaults to end_date - 6"
// @Param        end_date    query     string  false  "YYYY-MM-DD, defaults to today"
// @Success      200         {object}  domain.WeeklyStats
// @Security     BearerAuth
// @Router       /stats/weekly [get]
func (h *StatsHandler) GetWeeklyStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	endDate, err := queryDate(c, "end_date", today(h.clock))
	if err != nil {
		handleError(c, err)
		return
	}
	startDate, err := queryDate(c, "start_date", endDate.AddDays(-6))
	if err != nil {
		handleError(c, err)
		return
	}

	if startDate.After(endDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date cannot be after end_date"})
		return
	}
	if endDate.DaysSince(startDate) > maxStatsRangeDays {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date range too large, max 1 year allowed"})
		return
	}

	stats, err := h.svc.GetWeeklyStats(c.Request.Context(), domain.StatsInput{
		UserID:    userID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) ListProgress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	progress, err := h.svc.ListProgress(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *StatsHandler) GetHabitProgress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	progress, err := h.svc.GetHabitProgress(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
