package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/domain/playbook"
	"github.com/pratik-mahalle/soar/internal/pkg/errors"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/services"
	"github.com/pratik-mahalle/soar/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type handlerFixture struct {
	orch      *services.Orchestrator
	incidents *testutil.MockIncidentRepository
	metrics   *testutil.MockMetricsRepository
	dashboard *services.DashboardService
	log       *logger.Logger
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	catalog, err := playbook.Default()
	require.NoError(t, err)

	log := logger.New(logger.Config{Level: "error", Format: "json"})
	f := &handlerFixture{
		incidents: testutil.NewMockIncidentRepository(),
		metrics:   testutil.NewMockMetricsRepository(),
		log:       log,
	}
	f.dashboard = services.NewDashboardService(f.metrics, 0, log)
	f.orch = services.NewOrchestrator(services.OrchestratorOptions{
		Catalog:   catalog,
		Planner:   playbook.NewPlanner(0),
		Scheduler: services.NewScheduler(services.NewSimulatedExecutor(0), 4, log),
		Intel:     services.NewIntelService(services.DefaultIntelSources(0), 0, 0, log),
		Isolation: services.NewIsolationService(services.NewSimulatedIsolator(0), log),
		Incidents: f.incidents,
		Dashboard: f.dashboard,
		Logger:    log,
	})
	return f
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env), rr.Body.String())
	return env
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func postJSON(t *testing.T, path string, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestIncidentHandler_Submit(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedState  incident.Status
		expectedCode   string
	}{
		{
			name: "matched incident completes",
			body: map[string]interface{}{
				"severity":        "CRITICAL",
				"source_system":   "SCADA-Monitor",
				"affected_assets": []string{"sensor-01"},
				"indicators":      map[string]interface{}{"alert_type": "malware_detected", "source_ip": "10.0.0.1"},
			},
			expectedStatus: http.StatusOK,
			expectedState:  incident.StatusCompleted,
		},
		{
			name: "unmatched incident is reported as failed",
			body: map[string]interface{}{
				"severity":   "LOW",
				"indicators": map[string]interface{}{"note": "benign"},
			},
			expectedStatus: http.StatusOK,
			expectedState:  incident.StatusFailed,
		},
		{
			name:           "invalid severity",
			body:           map[string]interface{}{"severity": "URGENT"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   errors.ErrCodeBadRequest,
		},
		{
			name:           "malformed body",
			body:           "not an object",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   errors.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)
			handler := NewIncidentHandler(f.orch, services.NewIncidentService(f.incidents, f.log), f.log)

			rr := httptest.NewRecorder()
			handler.Submit(rr, postJSON(t, "/api/v1/incidents", tt.body))

			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
			env := decodeEnvelope(t, rr)

			if tt.expectedCode != "" {
				assert.False(t, env.Success)
				assert.Equal(t, tt.expectedCode, env.Error.Code)
				assert.Empty(t, f.incidents.Records)
				return
			}

			var result services.IncidentResult
			require.NoError(t, json.Unmarshal(env.Data, &result))
			assert.Equal(t, tt.expectedState, result.Status)
			assert.Contains(t, f.incidents.Records, result.IncidentID)
		})
	}
}

func TestIncidentHandler_ListAndGet(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewIncidentHandler(f.orch, services.NewIncidentService(f.incidents, f.log), f.log)

	now := time.Now().UTC()
	for i, rec := range []*incident.Record{
		{IncidentID: "INC-1-aaaaaaaa", Severity: incident.SeverityCritical, Status: incident.StatusCompleted},
		{IncidentID: "INC-2-bbbbbbbb", Severity: incident.SeverityLow, Status: incident.StatusFailed, ErrorKind: errors.ErrCodeNoPlaybookMatched},
		{IncidentID: "INC-3-cccccccc", Severity: incident.SeverityCritical, Status: incident.StatusFailed},
	} {
		rec.Timestamp = now
		rec.CreatedAt = now.Add(time.Duration(i) * time.Second)
		require.NoError(t, f.incidents.Create(context.Background(), rec))
	}

	listTests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedCount  int
	}{
		{name: "all", expectedStatus: http.StatusOK, expectedCount: 3},
		{name: "by severity", query: "?severity=critical", expectedStatus: http.StatusOK, expectedCount: 2},
		{name: "by status", query: "?status=FAILED", expectedStatus: http.StatusOK, expectedCount: 2},
		{name: "paged", query: "?page=2&page_size=2", expectedStatus: http.StatusOK, expectedCount: 1},
		{name: "bad severity", query: "?severity=urgent", expectedStatus: http.StatusBadRequest},
		{name: "bad status", query: "?status=OPEN", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range listTests {
		t.Run("list "+tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/incidents"+tt.query, nil))

			require.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
			if tt.expectedStatus != http.StatusOK {
				return
			}
			env := decodeEnvelope(t, rr)
			var page struct {
				Data       []map[string]interface{} `json:"data"`
				TotalItems int64                    `json:"total_items"`
			}
			require.NoError(t, json.Unmarshal(env.Data, &page))
			assert.Len(t, page.Data, tt.expectedCount)
		})
	}

	getTests := []struct {
		name           string
		id             string
		expectedStatus int
	}{
		{name: "existing", id: "INC-2-bbbbbbbb", expectedStatus: http.StatusOK},
		{name: "missing", id: "INC-9-00000000", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range getTests {
		t.Run("get "+tt.name, func(t *testing.T) {
			req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/incidents/"+tt.id, nil), "id", tt.id)
			rr := httptest.NewRecorder()
			handler.Get(rr, req)
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}

	t.Run("stats", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.Stats(rr, httptest.NewRequest(http.MethodGet, "/api/v1/incidents/stats", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.JSONEq(t, `{"total":3,"completed":1,"failed":2}`, string(env.Data))
	})
}

func TestPlaybookHandler(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewPlaybookHandler(f.orch, f.log)

	t.Run("list", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/playbooks", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var rows []struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &rows))
		require.Len(t, rows, 6)
		assert.Equal(t, "apt_campaign_response", rows[0].Name)
	})

	t.Run("get", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "name", "critical_malware_advanced")
		rr := httptest.NewRecorder()
		handler.Get(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"immediate_isolation"`)

		req = withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "name", "unknown")
		rr = httptest.NewRecorder()
		handler.Get(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("score", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.Score(rr, postJSON(t, "/api/v1/playbooks/score", map[string]interface{}{
			"severity":        "CRITICAL",
			"affected_assets": []string{"scada-01"},
			"indicators":      map[string]interface{}{"alert_type": "malware_detected"},
		}))
		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Selected string           `json:"selected"`
			Scores   []playbook.Score `json:"scores"`
		}
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &resp))
		assert.Equal(t, "critical_malware_advanced", resp.Selected)
		assert.Len(t, resp.Scores, 6)
		assert.Empty(t, f.incidents.Records, "preview must not persist")
	})
}

func TestIsolationHandler_Strategy(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewIsolationHandler(f.orch, f.log)

	rr := httptest.NewRecorder()
	handler.Strategy(rr, postJSON(t, "/api/v1/isolation/strategy", map[string]interface{}{
		"affected_assets": []string{"sensor-01", "pump-02"},
		"indicators":      map[string]interface{}{"source_ip": "10.0.0.1"},
	}))
	require.Equal(t, http.StatusOK, rr.Code)

	env := decodeEnvelope(t, rr)
	assert.JSONEq(t, `{
		"strategy": {"network": ["10.0.0.1"], "system": ["sensor-01", "pump-02"], "iot_device": ["sensor-01"]},
		"methods": ["network", "system", "iot_device"]
	}`, string(env.Data))
}

func TestDashboardHandler_Get(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewDashboardHandler(f.dashboard, f.log)

	rr := httptest.NewRecorder()
	handler.Get(rr, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var snap struct {
		Incidents struct {
			Total int64 `json:"total"`
		} `json:"incidents"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &snap))
	assert.Equal(t, int64(0), snap.Incidents.Total)
	assert.Equal(t, "OPERATIONAL", snap.Status)

	f.metrics.LoadError = assert.AnError
	broken := NewDashboardHandler(services.NewDashboardService(f.metrics, 0, f.log), f.log)
	rr = httptest.NewRecorder()
	broken.Get(rr, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHealthHandler(t *testing.T) {
	db := testutil.NewEmptyDB(t)
	handler := NewHealthHandler(db, logger.Nop())

	rr := httptest.NewRecorder()
	handler.Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	require.NoError(t, db.Close())
	rr = httptest.NewRecorder()
	handler.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"code":"SERVICE_UNAVAILABLE"`)
}
