package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pratik-mahalle/soar/internal/api/handlers"
	"github.com/pratik-mahalle/soar/internal/auth"
	"github.com/pratik-mahalle/soar/internal/config"
	"github.com/pratik-mahalle/soar/internal/domain/playbook"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/services"
	"github.com/pratik-mahalle/soar/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, secret string) http.Handler {
	t.Helper()
	catalog, err := playbook.Default()
	require.NoError(t, err)

	log := logger.Nop()
	incidents := testutil.NewMockIncidentRepository()
	dash := services.NewDashboardService(testutil.NewMockMetricsRepository(), 0, log)
	orch := services.NewOrchestrator(services.OrchestratorOptions{
		Catalog:   catalog,
		Scheduler: services.NewScheduler(services.NewSimulatedExecutor(0), 4, log),
		Intel:     services.NewIntelService(services.DefaultIntelSources(0), 0, 0, log),
		Isolation: services.NewIsolationService(services.NewSimulatedIsolator(0), log),
		Incidents: incidents,
		Dashboard: dash,
		Logger:    log,
	})

	cfg := &config.Config{
		Server: config.ServerConfig{AllowedOrigin: "http://localhost:5173", RateLimit: 1000, RateBurst: 1000},
		Auth:   config.AuthConfig{JWTSecret: secret},
	}
	return New(cfg, log, &Handlers{
		Health:    handlers.NewHealthHandler(testutil.NewEmptyDB(t), log),
		Incident:  handlers.NewIncidentHandler(orch, services.NewIncidentService(incidents, log), log),
		Playbook:  handlers.NewPlaybookHandler(orch, log),
		Isolation: handlers.NewIsolationHandler(orch, log),
		Dashboard: handlers.NewDashboardHandler(dash, log),
	})
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(t, "")

	tests := []struct {
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{method: http.MethodGet, path: "/healthz", expectedStatus: http.StatusOK},
		{method: http.MethodGet, path: "/readyz", expectedStatus: http.StatusOK},
		{method: http.MethodGet, path: "/metrics", expectedStatus: http.StatusOK},
		{method: http.MethodGet, path: "/api/v1/playbooks", expectedStatus: http.StatusOK},
		{method: http.MethodGet, path: "/api/v1/playbooks/iot_botnet_response", expectedStatus: http.StatusOK},
		{method: http.MethodGet, path: "/api/v1/incidents", expectedStatus: http.StatusOK},
		{method: http.MethodGet, path: "/api/v1/incidents/stats", expectedStatus: http.StatusOK},
		{method: http.MethodGet, path: "/api/v1/incidents/INC-0-00000000", expectedStatus: http.StatusNotFound},
		{method: http.MethodGet, path: "/api/v1/dashboard", expectedStatus: http.StatusOK},
		{method: http.MethodPost, path: "/api/v1/incidents", body: `{"severity":"HIGH","indicators":{"event":"iot_botnet"}}`, expectedStatus: http.StatusOK},
		{method: http.MethodPost, path: "/api/v1/playbooks/score", body: `{"severity":"HIGH"}`, expectedStatus: http.StatusOK},
		{method: http.MethodPost, path: "/api/v1/isolation/strategy", body: `{"affected_assets":["hmi-01"]}`, expectedStatus: http.StatusOK},
		{method: http.MethodGet, path: "/api/v1/unknown", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestRouter_AuthOnMutatingRoutes(t *testing.T) {
	const secret = "router-secret"
	r := newTestRouter(t, secret)
	token, err := auth.MintToken("soc", "operator", secret, time.Hour)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/playbooks", nil))
	assert.Equal(t, http.StatusOK, rr.Code, "reads stay public")

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/playbooks/score", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/playbooks/score", bytes.NewBufferString(`{}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}
