package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxErrorBodyBytes limits how much of an error response body is kept for
// diagnostics.
const maxErrorBodyBytes = 512

// HTTPClient is the production Client implementation backed by net/http.
//
// Create requests are retried per the configured RetryPolicy; activation is
// a single best-effort call.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	retry   RetryPolicy
}

// NewHTTPClient creates a directory API client.
// baseURL is the API root without a trailing slash; timeout applies to each
// individual request, feeding the retry logic on expiry.
func NewHTTPClient(baseURL string, timeout time.Duration, retry RetryPolicy) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		retry:   retry,
	}
}

// CreateHospital posts one hospital record, retrying transient failures.
// Returns the identifier assigned by the directory on success.
func (c *HTTPClient) CreateHospital(ctx context.Context, h Hospital) (int64, error) {
	body, err := json.Marshal(h)
	if err != nil {
		return 0, fmt.Errorf("marshal hospital: %w", err)
	}

	var id int64
	err = c.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hospitals/", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("post hospital: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return newStatusError(resp)
		}

		var out struct {
			ID int64 `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode create response: %w", err)
		}
		id = out.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// ActivateBatch issues the activation call for a creation batch.
// 200 and 204 both count as activated. No retries: activation is
// best-effort and its failure is reported, not recovered.
func (c *HTTPClient) ActivateBatch(ctx context.Context, batchID string) error {
	url := fmt.Sprintf("%s/hospitals/batch/%s/activate", c.baseURL, batchID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, nil)
	if err != nil {
		return fmt.Errorf("build activate request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("activate batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return newStatusError(resp)
	}

	return nil
}

// newStatusError drains a truncated response body into a StatusError.
func newStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return &StatusError{
		Code: resp.StatusCode,
		Body: strings.TrimSpace(string(body)),
	}
}
