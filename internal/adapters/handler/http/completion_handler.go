package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

// defaultHistoryDays is how far back a history listing reaches when the
// caller gives no range.
const defaultHistoryDays = 30

type CompletionHandler struct {
	svc   *services.CompletionService
	clock services.Clock
}

// NewCompletionHandler builds the handler. clock supplies the default dates of
// query parameters; nil means the wall clock.
func NewCompletionHandler(svc *services.CompletionService, clock services.Clock) *CompletionHandler {
	return &CompletionHandler{svc: svc, clock: clock}
}

type toggleRequest struct {
	Date      string   `json:"date" binding:"required"`
	Completed *bool    `json:"completed"`
	Value     *float64 `json:"value" binding:"omitempty,min=0"`
	Notes     *string  `json:"notes" binding:"omitempty,max=500"`
}

func (h *CompletionHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/habits/:id/completions", h.Toggle)
	router.GET("/habits/:id/completions", h.ListByHabit)
	router.GET("/completions/sync", h.Sync)
}

// Toggle godoc
// @Summary      Record a habit's outcome for a date
// @Description  Without "completed" the stored state of the date is flipped.
// @Tags         completions
// @Accept       json
// @Produce      json
// @Param        id    path      string         true  "Habit ID"
// @Param        body  body      toggleRequest  true  "Completion"
// @Success      200   {object}  services.ToggleResult
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Security     BearerAuth
// @Router       /habits/{id}/completions [post]
func (h *CompletionHandler) Toggle(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	date, err := domain.ParseDateField("date", req.Date)
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := h.svc.Toggle(c.Request.Context(), services.ToggleInput{
		HabitID:   c.Param("id"),
		UserID:    userID,
		Date:      date,
		Completed: req.Completed,
		Value:     req.Value,
		Notes:     req.Notes,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *CompletionHandler) ListByHabit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	to, err := queryDate(c, "to", today(h.clock))
	if err != nil {
		handleError(c, err)
		return
	}
	from, err := queryDate(c, "from", to.AddDays(-defaultHistoryDays))
	if err != nil {
		handleError(c, err)
		return
	}
	if from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from cannot be after to"})
		return
	}

	list, err := h.svc.ListByHabitID(c.Request.Context(), c.Param("id"), userID, from, to)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *CompletionHandler) Sync(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	since, ok := querySince(c, "since")
	if !ok {
		return
	}

	changes, err := h.svc.GetDelta(c.Request.Context(), userID, since)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes":   changes,
		"timestamp": time.Now().UTC(),
	})
}
