package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"canvass-data/internal/repository"
	"canvass-data/internal/service"
	"canvass-data/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type noopLottery struct{}

func (noopLottery) SendCode(context.Context, string, string, bool) service.NotifyResult {
	return service.NotifyResult{OK: true}
}

func newTestRouter(t *testing.T) (*Router, *repository.MemoryCanvassRepository, *service.SessionStore) {
	t.Helper()
	logger := zap.NewNop()
	agents := repository.NewMemoryAgentsRepository()
	canvass := repository.NewMemoryCanvassRepository(agents)
	brigade := repository.NewMemoryBrigadeRepository()
	membership := service.NewMembershipService(agents, brigade, "admin", "secret", logger)
	reports := service.NewReportService(agents, canvass, logger)
	sessions := service.NewSessionStore(store.NewMemoryKV(), time.Hour)
	engine := service.NewSurveyService(
		sessions, agents, canvass, membership,
		service.NewFlyerAllocator(canvass), noopLottery{}, reports, logger,
	)

	router := NewRouter(logger)
	router.RegisterEventRoutes(NewEventHandler(engine, logger))
	router.RegisterAdminRoutes(NewAdminHandler(canvass, reports, membership, sessions, logger))
	router.RegisterHealthRoutes()
	return router, canvass, sessions
}

func TestHealthz(t *testing.T) {
	router, _, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestEventEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bot/api/v1/events", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	body := strings.NewReader(`{"chat_id":100,"name":"Тест","username":"tester","text":"/start"}`)
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bot/api/v1/events", body))
	require.Equal(t, http.StatusOK, rec.Code)

	var env Result[*service.Reply]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, ResultSuccess, env.Code)
	require.NotNil(t, env.Result)
	assert.NotEmpty(t, env.Result.Messages)
	assert.NotEmpty(t, env.Result.Options, "main menu keyboard")
}

func TestEventEndpointRejectsBadPayload(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bot/api/v1/events", strings.NewReader(`{"text":"hi"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "chat_id is required")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bot/api/v1/events", strings.NewReader(`{not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminEndpointsAuth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for _, path := range []string{
		"/admin/api/v1/stats",
		"/admin/api/v1/sessions",
		"/admin/api/v1/export/xlsx",
		"/admin/api/v1/export/csv",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		rec = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.SetBasicAuth("admin", "wrong")
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestAdminStatsAndExport(t *testing.T) {
	router, canvass, _ := newTestRouter(t)

	ctx := context.Background()
	visit, err := canvass.CreateVisit(ctx, "a1", "")
	require.NoError(t, err)
	_, err = canvass.CreateContact(ctx, visit.VisitID, "a1", "Петров Сидор Иванович", "+79991234567")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/api/v1/stats?days=7", nil)
	req.SetBasicAuth("admin", "secret")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var env Result[[]statsRow]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Result, 1)
	assert.Equal(t, "a1", env.Result[0].AgentID)
	assert.Equal(t, 1, env.Result[0].Total)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/api/v1/export/csv", nil)
	req.SetBasicAuth("admin", "secret")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "export_all_")
	assert.Contains(t, rec.Body.String(), "Петров Сидор Иванович")

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/api/v1/export/xlsx?days=30", nil)
	req.SetBasicAuth("admin", "secret")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "export_30d_")
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestAdminSessionsEndpoint(t *testing.T) {
	router, _, sessions := newTestRouter(t)
	ctx := context.Background()

	require.NoError(t, sessions.Save(ctx, 200, &service.Session{Step: service.StepFullName}))
	require.NoError(t, sessions.Save(ctx, 100, &service.Session{Step: service.StepDoorPhoto}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/api/v1/sessions", nil)
	req.SetBasicAuth("admin", "secret")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var env Result[[]service.ActiveSession]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Result, 2)
	assert.Equal(t, int64(100), env.Result[0].ChatID, "sorted by chat id")
	assert.Equal(t, service.StepDoorPhoto, env.Result[0].Step)
	assert.Equal(t, int64(200), env.Result[1].ChatID)

	require.NoError(t, sessions.Clear(ctx, 100))
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/api/v1/sessions", nil)
	req.SetBasicAuth("admin", "secret")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Result, 1)
	assert.Equal(t, int64(200), env.Result[0].ChatID)
}
