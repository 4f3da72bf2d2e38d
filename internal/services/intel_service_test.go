package services

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	name  string
	err   error
	calls int32
}

func (s *countingSource) Name() string { return s.name }

func (s *countingSource) Lookup(ctx context.Context, _ incident.Indicators) (map[string]interface{}, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return map[string]interface{}{"source": s.name}, nil
}

func TestIntelService_Confidence(t *testing.T) {
	tests := []struct {
		name       string
		indicators map[string]interface{}
		failANSSI  bool
		failMISP   bool
		want       float64
		vtStatus   incident.SourceStatus
	}{
		{
			name:       "all sources with file hash",
			indicators: map[string]interface{}{"file_hash": "abc123"},
			want:       1.0,
			vtStatus:   incident.SourceStatusOK,
		},
		{
			name:       "virustotal skipped without file hash",
			indicators: map[string]interface{}{"source_ip": "10.0.0.1"},
			want:       0.8,
			vtStatus:   incident.SourceStatusSkipped,
		},
		{
			name:       "one feed failing",
			indicators: map[string]interface{}{"source_ip": "10.0.0.2"},
			failMISP:   true,
			want:       0.4,
			vtStatus:   incident.SourceStatusSkipped,
		},
		{
			name:       "no source answered",
			indicators: map[string]interface{}{"source_ip": "10.0.0.3"},
			failANSSI:  true,
			failMISP:   true,
			want:       NoIntelConfidence,
			vtStatus:   incident.SourceStatusSkipped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anssi := &countingSource{name: SourceANSSI}
			misp := &countingSource{name: SourceMISP}
			vt := &countingSource{name: SourceVirusTotal}
			if tt.failANSSI {
				anssi.err = stderrors.New("feed down")
			}
			if tt.failMISP {
				misp.err = stderrors.New("feed down")
			}

			svc := NewIntelService([]WeightedSource{
				{Source: anssi, Weight: 0.4},
				{Source: misp, Weight: 0.4},
				{Source: vt, Weight: 0.2, RequiresIndicator: "file_hash"},
			}, 16, time.Hour, logger.Nop())

			inc := newTestIncident(t, "HIGH", nil, tt.indicators)
			enriched, err := svc.Enrich(context.Background(), inc)
			require.NoError(t, err)
			require.NotNil(t, enriched.Enrichment)

			assert.InDelta(t, tt.want, enriched.ConfidenceScore(), 1e-9)
			assert.Equal(t, tt.vtStatus, enriched.Enrichment.Sources[SourceVirusTotal].Status)
			assert.Len(t, enriched.Enrichment.Sources, 3)
			if tt.failMISP {
				assert.Equal(t, incident.SourceStatusError, enriched.Enrichment.Sources[SourceMISP].Status)
				assert.Equal(t, "feed down", enriched.Enrichment.Sources[SourceMISP].Error)
			}
			assert.Nil(t, inc.Enrichment, "original incident is not mutated")
		})
	}
}

func TestIntelService_Cache(t *testing.T) {
	anssi := &countingSource{name: SourceANSSI}
	svc := NewIntelService([]WeightedSource{{Source: anssi, Weight: 0.4}}, 16, time.Hour, logger.Nop())

	indicators := map[string]interface{}{"source_ip": "10.0.0.1"}
	for i := 0; i < 3; i++ {
		_, err := svc.Enrich(context.Background(), newTestIncident(t, "HIGH", nil, indicators))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&anssi.calls))

	_, err := svc.Enrich(context.Background(), newTestIncident(t, "HIGH", nil, map[string]interface{}{"source_ip": "10.0.0.9"}))
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&anssi.calls))
}

func TestIntelService_DefaultSources(t *testing.T) {
	svc := NewIntelService(DefaultIntelSources(0), 0, 0, logger.Nop())
	inc := newTestIncident(t, "CRITICAL", []string{"scada-01"}, map[string]interface{}{"file_hash": "d41d8cd9"})

	enriched, err := svc.Enrich(context.Background(), inc)
	require.NoError(t, err)
	assert.Equal(t, 1.0, enriched.ConfidenceScore())
	assert.Equal(t, "TLP:AMBER", enriched.Enrichment.Sources[SourceANSSI].Data["classification"])
	assert.Equal(t, "d41d8cd9", enriched.Enrichment.Sources[SourceVirusTotal].Data["file_hash"])
}

func TestIntelService_Cancelled(t *testing.T) {
	svc := NewIntelService(DefaultIntelSources(1), 0, 0, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Enrich(ctx, newTestIncident(t, "LOW", nil, nil))
	assert.ErrorIs(t, err, context.Canceled)
}
