package services

import (
	"context"
	"math"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Threat intel source names
const (
	SourceANSSI      = "anssi"
	SourceMISP       = "misp"
	SourceVirusTotal = "virustotal"
)

// NoIntelConfidence is the confidence assigned when no source answered
const NoIntelConfidence = 0.1

// Cache defaults
const (
	DefaultIntelCacheSize = 1024
	DefaultIntelCacheTTL  = time.Hour
)

// IntelSource looks up indicators in one threat intel feed
type IntelSource interface {
	Name() string
	Lookup(ctx context.Context, indicators incident.Indicators) (map[string]interface{}, error)
}

// WeightedSource is a source and its contribution to the confidence score
type WeightedSource struct {
	Source IntelSource
	Weight float64
	// RequiresIndicator skips the source unless this indicator is present
	RequiresIndicator string
}

// IntelService enriches incidents with threat intel
type IntelService struct {
	sources []WeightedSource
	cache   *expirable.LRU[string, *incident.Enrichment]
	logger  *logger.Logger
	now     func() time.Time
}

// NewIntelService creates an enricher over the given sources
func NewIntelService(sources []WeightedSource, cacheSize int, ttl time.Duration, log *logger.Logger) *IntelService {
	if cacheSize <= 0 {
		cacheSize = DefaultIntelCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultIntelCacheTTL
	}
	return &IntelService{
		sources: sources,
		cache:   expirable.NewLRU[string, *incident.Enrichment](cacheSize, nil, ttl),
		logger:  log.WithComponent("intel"),
		now:     time.Now,
	}
}

// DefaultIntelSources returns the built-in simulated feeds
func DefaultIntelSources(timeScale float64) []WeightedSource {
	return []WeightedSource{
		{Source: NewStaticSource(SourceANSSI, 500*time.Millisecond, timeScale, anssiResponse), Weight: 0.4},
		{Source: NewStaticSource(SourceMISP, 300*time.Millisecond, timeScale, mispResponse), Weight: 0.4},
		{
			Source:            NewStaticSource(SourceVirusTotal, 200*time.Millisecond, timeScale, virusTotalResponse),
			Weight:            0.2,
			RequiresIndicator: "file_hash",
		},
	}
}

// Enrich returns a copy of the incident carrying a threat intel record.
// Source failures are recorded on the record and never fail enrichment.
func (s *IntelService) Enrich(ctx context.Context, inc *incident.Incident) (*incident.Incident, error) {
	key := inc.Indicators.Fingerprint()
	if cached, ok := s.cache.Get(key); ok {
		metrics.RecordIntelCacheHit()
		s.logger.With("incident_id", inc.ID).Debug("Threat intel served from cache")
		return inc.WithEnrichment(cached), nil
	}

	results := make([]incident.SourceResult, len(s.sources))
	var g errgroup.Group
	for i, ws := range s.sources {
		i, ws := i, ws
		g.Go(func() error {
			results[i] = s.query(ctx, ws, inc.Indicators)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enrichment := &incident.Enrichment{
		Sources:    make(map[string]incident.SourceResult, len(results)),
		EnrichedAt: s.now(),
	}
	for _, r := range results {
		enrichment.Sources[r.Source] = r
	}
	enrichment.ConfidenceScore = Confidence(s.sources, enrichment.Sources)

	s.cache.Add(key, enrichment)

	s.logger.WithFields(map[string]interface{}{
		"incident_id":      inc.ID,
		"confidence_score": enrichment.ConfidenceScore,
	}).Info("Incident enriched")

	return inc.WithEnrichment(enrichment), nil
}

func (s *IntelService) query(ctx context.Context, ws WeightedSource, indicators incident.Indicators) incident.SourceResult {
	name := ws.Source.Name()
	if ws.RequiresIndicator != "" && !indicators.Has(ws.RequiresIndicator) {
		metrics.RecordIntelLookup(name, string(incident.SourceStatusSkipped))
		return incident.SourceResult{Source: name, Status: incident.SourceStatusSkipped}
	}

	data, err := ws.Source.Lookup(ctx, indicators)
	if err != nil {
		s.logger.WithError(err).With("source", name).Warn("Threat intel lookup failed")
		metrics.RecordIntelLookup(name, string(incident.SourceStatusError))
		return incident.SourceResult{Source: name, Status: incident.SourceStatusError, Error: err.Error()}
	}

	metrics.RecordIntelLookup(name, string(incident.SourceStatusOK))
	return incident.SourceResult{Source: name, Status: incident.SourceStatusOK, Data: data}
}

// Confidence sums the weights of sources that answered, capped at 1.
// With no answers it returns NoIntelConfidence.
func Confidence(sources []WeightedSource, results map[string]incident.SourceResult) float64 {
	score := 0.0
	for _, ws := range sources {
		if r, ok := results[ws.Source.Name()]; ok && r.Status == incident.SourceStatusOK {
			score += ws.Weight
		}
	}
	if score == 0 {
		return NoIntelConfidence
	}
	return math.Min(math.Round(score*1e6)/1e6, 1.0)
}

// StaticSource is a simulated feed returning canned data after a latency
type StaticSource struct {
	name      string
	latency   time.Duration
	timeScale float64
	respond   func(incident.Indicators) map[string]interface{}
}

// NewStaticSource creates a simulated feed
func NewStaticSource(name string, latency time.Duration, timeScale float64, respond func(incident.Indicators) map[string]interface{}) *StaticSource {
	return &StaticSource{name: name, latency: latency, timeScale: timeScale, respond: respond}
}

// Name returns the source name
func (s *StaticSource) Name() string {
	return s.name
}

// Lookup waits the scaled latency and returns the canned response
func (s *StaticSource) Lookup(ctx context.Context, indicators incident.Indicators) (map[string]interface{}, error) {
	if d := time.Duration(float64(s.latency) * s.timeScale); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.respond(indicators), nil
}

func anssiResponse(ind incident.Indicators) map[string]interface{} {
	return map[string]interface{}{
		"classification":    "TLP:AMBER",
		"threat_level":      "MEDIUM",
		"related_campaigns": []string{"APT-WaterTreatment-2024"},
		"iocs": map[string]interface{}{
			"ip_addresses": ind["ip_addresses"],
			"domains":      ind["domains"],
			"file_hashes":  ind["file_hashes"],
		},
		"recommendations": []string{
			"isolate affected systems",
			"review connection logs",
			"verify SCADA integrity",
		},
	}
}

func mispResponse(incident.Indicators) map[string]interface{} {
	return map[string]interface{}{
		"related_events": []map[string]interface{}{{
			"event_id":     "12345",
			"title":        "Industrial Infrastructure Targeting",
			"threat_level": "HIGH",
			"tags":         []string{"malware", "industrial", "water-treatment"},
		}},
		"attributes": map[string]interface{}{
			"malware_families":  []string{"StuxnetVariant", "TritonMalware"},
			"attack_techniques": []string{"T1190", "T1105", "T1562"},
			"target_sectors":    []string{"Water Treatment", "Critical Infrastructure"},
		},
	}
}

func virusTotalResponse(ind incident.Indicators) map[string]interface{} {
	hash, _ := ind.Lookup("file_hash")
	return map[string]interface{}{
		"file_hash":        hash,
		"detection_ratio":  "15/70",
		"malware_families": []string{"Trojan.Generic", "Backdoor.SCADA"},
		"behavior_analysis": map[string]interface{}{
			"network_communications": true,
			"file_modifications":     true,
			"registry_changes":       true,
		},
	}
}
