package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// PlaybookService handles playbook catalog API calls
type PlaybookService struct {
	client *Client
}

// List retrieves the catalog in name order
func (s *PlaybookService) List(ctx context.Context) ([]PlaybookSummary, error) {
	var playbooks []PlaybookSummary
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/playbooks", nil, &playbooks); err != nil {
		return nil, err
	}
	return playbooks, nil
}

// Get retrieves one playbook with its actions
func (s *PlaybookService) Get(ctx context.Context, name string) (*Playbook, error) {
	var p Playbook
	path := fmt.Sprintf("/api/v1/playbooks/%s", url.PathEscape(name))
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Score previews playbook selection for an incident without executing it
func (s *PlaybookService) Score(ctx context.Context, req *IncidentRequest) (*ScoreResult, error) {
	var result ScoreResult
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/playbooks/score", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
