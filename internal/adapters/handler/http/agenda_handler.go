package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

type AgendaHandler struct {
	svc   *services.AgendaService
	clock services.Clock
}

// NewAgendaHandler builds the handler. clock supplies the default dates of
// query parameters; nil means the wall clock.
func NewAgendaHandler(svc *services.AgendaService, clock services.Clock) *AgendaHandler {
	return &AgendaHandler{svc: svc, clock: clock}
}

func (h *AgendaHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/agenda", h.ForDate)
	router.GET("/agenda/range", h.ForRange)
}

// ForDate godoc
// @Summary      Habits and tasks scheduled for one day
// @Tags         agenda
// @Produce      json
// @Param        date  query     string  false  "YYYY-MM-DD, defaults to today (UTC)"
// @Success      200   {object}  services.AgendaDay
// @Security     BearerAuth
// @Router       /agenda [get]
func (h *AgendaHandler) ForDate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	date, err := queryDate(c, "date", today(h.clock))
	if err != nil {
		handleError(c, err)
		return
	}

	day, err := h.svc.ForDate(c.Request.Context(), userID, date)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, day)
}

func (h *AgendaHandler) ForRange(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	from, err := queryDate(c, "from", today(h.clock))
	if err != nil {
		handleError(c, err)
		return
	}
	to, err := queryDate(c, "to", from.AddDays(6))
	if err != nil {
		handleError(c, err)
		return
	}

	days, err := h.svc.ForRange(c.Request.Context(), userID, from, to)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, days)
}
