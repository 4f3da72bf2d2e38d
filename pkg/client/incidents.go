package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// IncidentService handles incident API calls
type IncidentService struct {
	client *Client
}

// IncidentListOptions filters the incident list
type IncidentListOptions struct {
	ListOptions
	Severity     string
	Status       string
	SourceSystem string
}

// Submit processes an incident and returns the full response. Incidents no
// playbook matches come back with Status FAILED and no error.
func (s *IncidentService) Submit(ctx context.Context, req *IncidentRequest) (*IncidentResult, error) {
	var result IncidentResult
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/incidents", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// List retrieves stored incidents, newest first
func (s *IncidentService) List(ctx context.Context, opts *IncidentListOptions) (*Page[IncidentSummary], error) {
	query := url.Values{}

	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.Severity != "" {
			query.Set("severity", opts.Severity)
		}
		if opts.Status != "" {
			query.Set("status", opts.Status)
		}
		if opts.SourceSystem != "" {
			query.Set("source_system", opts.SourceSystem)
		}
	}

	path := "/api/v1/incidents"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Page[IncidentSummary]
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a stored incident by ID
func (s *IncidentService) Get(ctx context.Context, id string) (*Incident, error) {
	var inc Incident
	path := fmt.Sprintf("/api/v1/incidents/%s", url.PathEscape(id))
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

// Stats counts stored incidents per status
func (s *IncidentService) Stats(ctx context.Context) (*IncidentStats, error) {
	var stats IncidentStats
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/incidents/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// IsolationStrategy previews the isolation strategy for an incident
func (s *IncidentService) IsolationStrategy(ctx context.Context, req *IncidentRequest) (*IsolationStrategy, error) {
	var strategy IsolationStrategy
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/isolation/strategy", req, &strategy); err != nil {
		return nil, err
	}
	return &strategy, nil
}
