package services

import (
	"context"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
)

// IncidentService reads processed incident history
type IncidentService struct {
	repo   incident.Repository
	logger *logger.Logger
}

// NewIncidentService creates a new incident service
func NewIncidentService(repo incident.Repository, log *logger.Logger) *IncidentService {
	return &IncidentService{
		repo:   repo,
		logger: log,
	}
}

// GetByID retrieves a processed incident
func (s *IncidentService) GetByID(ctx context.Context, id string) (*incident.Record, error) {
	return s.repo.GetByID(ctx, id)
}

// List lists processed incidents, newest first
func (s *IncidentService) List(ctx context.Context, filter incident.Filter, limit, offset int) ([]*incident.Record, int64, error) {
	records, total, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to list incidents")
		return nil, 0, err
	}
	return records, total, nil
}

// CountByStatus counts processed incidents per status
func (s *IncidentService) CountByStatus(ctx context.Context) (map[incident.Status]int, error) {
	return s.repo.CountByStatus(ctx)
}
