package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/dashboard"
	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/events"
	"github.com/pratik-mahalle/soar/internal/pkg/errors"
)

// MockIncidentRepository is a mock implementation of incident.Repository
type MockIncidentRepository struct {
	mu          sync.Mutex
	Records     map[string]*incident.Record
	CreateError error
	GetError    error
	ListError   error
	DeleteError error
}

func NewMockIncidentRepository() *MockIncidentRepository {
	return &MockIncidentRepository{
		Records: make(map[string]*incident.Record),
	}
}

func (m *MockIncidentRepository) Create(ctx context.Context, r *incident.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	m.Records[r.IncidentID] = r
	return nil
}

func (m *MockIncidentRepository) GetByID(ctx context.Context, id string) (*incident.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	r, ok := m.Records[id]
	if !ok {
		return nil, errors.NotFound("Incident")
	}
	return r, nil
}

func (m *MockIncidentRepository) List(ctx context.Context, filter incident.Filter, limit, offset int) ([]*incident.Record, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListError != nil {
		return nil, 0, m.ListError
	}

	var matched []*incident.Record
	for _, r := range m.Records {
		if filter.Severity != "" && r.Severity != filter.Severity {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.SourceSystem != "" && r.SourceSystem != filter.SourceSystem {
			continue
		}
		matched = append(matched, r)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].IncidentID > matched[j].IncidentID
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return []*incident.Record{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *MockIncidentRepository) CountByStatus(ctx context.Context) (map[incident.Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[incident.Status]int)
	for _, r := range m.Records {
		counts[r.Status]++
	}
	return counts, nil
}

func (m *MockIncidentRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteError != nil {
		return 0, m.DeleteError
	}
	var n int64
	for id, r := range m.Records {
		if r.CreatedAt.Before(cutoff) {
			delete(m.Records, id)
			n++
		}
	}
	return n, nil
}

// MockMetricsRepository is a mock implementation of dashboard.Repository
type MockMetricsRepository struct {
	mu        sync.Mutex
	Counters  dashboard.Counters
	Saves     int
	LoadError error
	SaveError error
}

func NewMockMetricsRepository() *MockMetricsRepository {
	return &MockMetricsRepository{}
}

func (m *MockMetricsRepository) Load(ctx context.Context) (dashboard.Counters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadError != nil {
		return dashboard.Counters{}, m.LoadError
	}
	return m.Counters, nil
}

func (m *MockMetricsRepository) Save(ctx context.Context, c dashboard.Counters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Counters = c
	m.Saves++
	return nil
}

// MockPublisher records published incident events
type MockPublisher struct {
	mu     sync.Mutex
	Events []events.IncidentProcessed
	Err    error
	Closed bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishIncident(ctx context.Context, evt events.IncidentProcessed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, evt)
	return nil
}

func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Published returns a copy of the recorded events
func (m *MockPublisher) Published() []events.IncidentProcessed {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.IncidentProcessed(nil), m.Events...)
}
