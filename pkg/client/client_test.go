package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", Token: "tok"})
}

func writeEnvelope(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestIncidentService_Submit(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/incidents", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req IncidentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "CRITICAL", req.Severity)

		writeEnvelope(w, http.StatusOK, `{"success":true,"data":{
			"incident_id":"INC-1-abcdef12","status":"COMPLETED","mttr_minutes":0.5,
			"playbook_result":{"playbook":"critical_malware_advanced","actions_log":[{"step":1,"action":"immediate_isolation","status":"completed"}]}
		}}`)
	})

	res, err := c.Incidents().Submit(context.Background(), &IncidentRequest{Severity: "CRITICAL"})
	require.NoError(t, err)
	assert.Equal(t, "INC-1-abcdef12", res.IncidentID)
	require.NotNil(t, res.PlaybookResult)
	assert.Equal(t, "critical_malware_advanced", res.PlaybookResult.Playbook)
	assert.Len(t, res.PlaybookResult.ActionsLog, 1)
}

func TestIncidentService_List(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "FAILED", r.URL.Query().Get("status"))
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":{
			"data":[{"incident_id":"INC-2-00000000","status":"FAILED","error_kind":"NO_PLAYBOOK_MATCHED"}],
			"page":2,"page_size":20,"total_items":21,"total_pages":2
		}}`)
	})

	page, err := c.Incidents().List(context.Background(), &IncidentListOptions{
		ListOptions: ListOptions{Page: 2},
		Status:      "FAILED",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(21), page.TotalItems)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "NO_PLAYBOOK_MATCHED", page.Data[0].ErrorKind)
}

func TestClient_APIError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		code     string
		notFound bool
	}{
		{
			name:     "enveloped not found",
			status:   http.StatusNotFound,
			body:     `{"success":false,"error":{"code":"NOT_FOUND","message":"Incident not found"}}`,
			code:     "NOT_FOUND",
			notFound: true,
		},
		{
			name:   "plain text error",
			status: http.StatusBadGateway,
			body:   "upstream down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, tt.status, tt.body)
			})

			_, err := c.Incidents().Get(context.Background(), "INC-404")
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.notFound, apiErr.IsNotFound())
		})
	}
}

func TestPlaybookService(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/playbooks":
			writeEnvelope(w, http.StatusOK, `{"success":true,"data":[{"name":"apt_campaign_response","action_count":4}]}`)
		case "/api/v1/playbooks/apt_campaign_response":
			writeEnvelope(w, http.StatusOK, `{"success":true,"data":{"name":"apt_campaign_response","actions":[{"step":1,"action":"network_segmentation_emergency","timeout_seconds":20}]}}`)
		case "/api/v1/playbooks/score":
			writeEnvelope(w, http.StatusOK, `{"success":true,"data":{"severity":"HIGH","selected":"iot_botnet_response","scores":[{"playbook":"iot_botnet_response","score":0.7}]}}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	list, err := c.Playbooks().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 4, list[0].ActionCount)

	p, err := c.Playbooks().Get(ctx, "apt_campaign_response")
	require.NoError(t, err)
	assert.Equal(t, 20.0, p.Actions[0].TimeoutSeconds)

	score, err := c.Playbooks().Score(ctx, &IncidentRequest{Severity: "HIGH"})
	require.NoError(t, err)
	assert.Equal(t, "iot_botnet_response", score.Selected)
}

func TestClient_HealthAndDashboard(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			writeEnvelope(w, http.StatusOK, `{"success":true,"data":{"status":"ok"}}`)
		case "/api/v1/dashboard":
			writeEnvelope(w, http.StatusOK, `{"success":true,"data":{"incidents":{"total":4,"success_rate":75},"status":"OPERATIONAL"}}`)
		}
	})
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	d, err := c.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), d.Incidents.Total)
	assert.Equal(t, 75.0, d.Incidents.SuccessRate)
	assert.Equal(t, "OPERATIONAL", d.Status)
}
