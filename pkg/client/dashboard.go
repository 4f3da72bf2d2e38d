package client

import (
	"context"
	"net/http"
)

// Dashboard returns the running incident metrics
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/dashboard", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
