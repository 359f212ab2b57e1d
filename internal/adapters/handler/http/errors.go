package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

var errInvalidRecurrence = errors.New("invalid recurrence")

var badRequestErrors = []error{
	errInvalidRecurrence,
	domain.ErrRecurrenceMissingType,
	domain.ErrInvalidPattern,
	domain.ErrHabitTitleEmpty,
	domain.ErrHabitTitleTooLong,
	domain.ErrHabitDescTooLong,
	domain.ErrInvalidColor,
	domain.ErrInvalidTarget,
	domain.ErrInvalidHabitType,
	domain.ErrInvalidReminder,
	domain.ErrHabitRecurrence,
	domain.ErrHabitEndDate,
	domain.ErrTaskTitleEmpty,
	domain.ErrTaskTitleTooLong,
	domain.ErrTaskDescTooLong,
	domain.ErrTaskRecurrenceKind,
	domain.ErrTaskDueBeforeStart,
	domain.ErrInvalidPriority,
	domain.ErrCompletionHabitID,
	domain.ErrCompletionDate,
	domain.ErrCompletionNegativeVal,
	domain.ErrInvalidEmail,
	domain.ErrPasswordTooShort,
	services.ErrAgendaRange,
}

func isBadRequest(err error) bool {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// handleError maps service errors onto status codes. Anything it does not
// recognise is logged and hidden behind a 500.
func handleError(c *gin.Context, err error) {
	var parseErr *domain.ParseError

	switch {
	case errors.As(err, &parseErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": parseErr.Error()})

	case isBadRequest(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})

	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized access"})

	case errors.Is(err, domain.ErrHabitNotFound),
		errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrCompletionNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})

	case errors.Is(err, domain.ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})

	case errors.Is(err, domain.ErrHabitArchived):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrHabitConflict),
		errors.Is(err, domain.ErrTaskConflict),
		errors.Is(err, domain.ErrCompletionConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "version conflict",
			"message": "data has been modified elsewhere, please sync",
		})

	default:
		log.Printf("[ERROR] Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
