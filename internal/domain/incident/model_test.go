package incident

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{in: "CRITICAL", want: SeverityCritical},
		{in: "high", want: SeverityHigh},
		{in: " Low ", want: SeverityLow},
		{in: "", want: SeverityMedium},
		{in: "urgent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeverity(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndicators_String(t *testing.T) {
	ind := Indicators{
		"source_ip":   "10.0.0.1",
		"alert_type":  "malware_detected",
		"file_hashes": []string{"abc"},
	}

	got := ind.String()
	assert.Equal(t, "{alert_type: malware_detected, file_hashes: [abc], source_ip: 10.0.0.1}", got)
	assert.Equal(t, got, ind.String(), "rendering must be deterministic")
}

func TestIndicators_Lookup(t *testing.T) {
	ind := Indicators{"source_ip": "10.0.0.1", "empty": "", "nil": nil, "port": 443}

	v, ok := ind.Lookup("source_ip")
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.1", v)

	v, ok = ind.Lookup("port")
	assert.True(t, ok)
	assert.Equal(t, "443", v)

	_, ok = ind.Lookup("empty")
	assert.False(t, ok)
	_, ok = ind.Lookup("nil")
	assert.False(t, ok)
	assert.False(t, ind.Has("missing"))
}

func TestIndicators_Value(t *testing.T) {
	ind := Indicators{"source_ip": "10.0.0.1", "empty": "", "nil": nil, "port": 443}

	tests := []struct {
		key     string
		want    string
		present bool
	}{
		{"source_ip", "10.0.0.1", true},
		{"port", "443", true},
		{"empty", "", true},
		{"nil", "", true},
		{"missing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v, ok := ind.Value(tt.key)
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestNew(t *testing.T) {
	now := time.Unix(1700000000, 0)
	req := NewIncident{
		Severity:       "critical",
		AffectedAssets: []string{"scada-01"},
		Indicators:     map[string]interface{}{"malware": "x"},
	}

	inc, err := New(req, now)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(inc.ID, "INC-1700000000-"))
	assert.Equal(t, SeverityCritical, inc.Severity)
	assert.Equal(t, DefaultSourceSystem, inc.SourceSystem)
	assert.True(t, inc.AutomatedResponse)

	// the incident owns copies of the payload
	req.AffectedAssets[0] = "mutated"
	req.Indicators["malware"] = "mutated"
	assert.Equal(t, "scada-01", inc.AffectedAssets[0])
	assert.Equal(t, "x", inc.Indicators["malware"])

	_, err = New(NewIncident{Severity: "bogus"}, now)
	assert.Error(t, err)
}

func TestIncident_WithEnrichment(t *testing.T) {
	inc, err := New(NewIncident{Severity: "HIGH"}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, inc.ConfidenceScore())

	enriched := inc.WithEnrichment(&Enrichment{ConfidenceScore: 0.8})
	assert.Nil(t, inc.Enrichment)
	assert.Equal(t, 0.8, enriched.ConfidenceScore())
	assert.Equal(t, inc.ID, enriched.ID)
}
