package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/kanso-progress/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-progress/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-progress/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/engine"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

// fixedNow is the server clock of every handler test: 2024-03-10, a Sunday.
var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

type testAPI struct {
	router      *gin.Engine
	habits      *repository.InMemoryHabitRepository
	tasks       *repository.InMemoryTaskRepository
	completions *repository.InMemoryCompletionRepository
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := func() time.Time { return fixedNow }

	habitRepo := repository.NewInMemoryHabitRepository()
	taskRepo := repository.NewInMemoryTaskRepository()
	completionRepo := repository.NewInMemoryCompletionRepository()

	habitSvc := services.NewHabitService(habitRepo, clock)
	taskSvc := services.NewTaskService(taskRepo, clock)
	completionSvc := services.NewCompletionService(completionRepo, habitRepo, nil, 30, clock)
	agendaSvc := services.NewAgendaService(habitRepo, taskRepo, completionRepo, engine.DefaultAgendaPolicy())
	statsSvc := services.NewStatsService(habitRepo, completionRepo, nil, 30, clock)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set(middleware.ContextUserIDKey, userID)
		}
		c.Next()
	})

	api := r.Group("/api/v1")
	adapterHTTP.NewHabitHandler(habitSvc).RegisterRoutes(api)
	adapterHTTP.NewTaskHandler(taskSvc).RegisterRoutes(api)
	adapterHTTP.NewCompletionHandler(completionSvc, clock).RegisterRoutes(api)
	adapterHTTP.NewAgendaHandler(agendaSvc, clock).RegisterRoutes(api)
	adapterHTTP.NewStatsHandler(statsSvc, clock).RegisterRoutes(api)

	return &testAPI{
		router:      r,
		habits:      habitRepo,
		tasks:       taskRepo,
		completions: completionRepo,
	}
}

func (a *testAPI) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *testAPI) createHabit(t *testing.T, userID string, body any) *domain.Habit {
	t.Helper()
	w := a.do(t, http.MethodPost, "/habits", userID, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	h := decode[domain.Habit](t, w)
	return &h
}
