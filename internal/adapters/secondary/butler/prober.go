package butler

import (
	"context"
	"fmt"
	"net/http"

	"sia-service/internal/core/domain"
)

// Probe checks the remote repository root. Any 2xx answer counts as
// available; authentication is not needed for the root probe.
func (c *Client) Probe(ctx context.Context, collection *domain.Collection) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, collection.Repository, nil)
	if err != nil {
		return fmt.Errorf("create availability probe: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe remote butler: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("remote butler returned %s", resp.Status)
	}
	return nil
}
