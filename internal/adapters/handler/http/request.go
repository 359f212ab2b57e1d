package http

import (
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/comitanigiacomo/kanso-progress/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

// recurrenceValidate checks the `validate` tags of domain.RecurrenceSpec.
// gin's own validator only reads `binding` tags.
var recurrenceValidate = validator.New()

// parseRecurrence validates and decodes an optional recurrence payload. A nil
// spec yields a nil Recurrence.
func parseRecurrence(spec *domain.RecurrenceSpec) (domain.Recurrence, error) {
	if spec == nil {
		return nil, nil
	}
	if err := recurrenceValidate.Struct(spec); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRecurrence, err)
	}
	return spec.ToRecurrence()
}

// currentUser reads the authenticated user id. It writes a 401 and returns
// false when the request carries none.
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return userID, true
}

// queryDate parses a YYYY-MM-DD query parameter, falling back when absent.
func queryDate(c *gin.Context, name string, fallback civil.Date) (civil.Date, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return domain.ParseDateField(name, raw)
}

// querySince parses the RFC3339 cursor used by the sync endpoints. An empty
// value means the beginning of time.
func querySince(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s format, use RFC3339", name)})
		return time.Time{}, false
	}
	return since, true
}

// today is the default date of date query parameters, taken from the
// handler's clock in UTC.
func today(clock services.Clock) civil.Date {
	if clock == nil {
		return domain.DateOf(time.Now())
	}
	return domain.DateOf(clock())
}
