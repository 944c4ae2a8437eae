// Package directory provides the client for the external hospital-directory API.
//
// The API is consumed through two operations: creating a single hospital
// record and activating a creation batch. Everything else about the remote
// service is treated as a black box.
package directory

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Hospital is the creation payload sent to the directory API.
type Hospital struct {
	Name            string `json:"name"`
	Address         string `json:"address"`
	Phone           string `json:"phone,omitempty"`
	CreationBatchID string `json:"creation_batch_id,omitempty"`
}

// Client is the consumer-side interface to the hospital-directory API.
// Implementations must be safe for concurrent use.
type Client interface {
	// CreateHospital creates one hospital record and returns the
	// identifier assigned by the directory.
	CreateHospital(ctx context.Context, h Hospital) (int64, error)

	// ActivateBatch activates all hospitals created under the given batch.
	ActivateBatch(ctx context.Context, batchID string) error
}

// StatusError reports a non-2xx response from the directory API.
type StatusError struct {
	Code int    // HTTP status code
	Body string // truncated response body, for diagnostics
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("directory api returned status %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("directory api returned status %d", e.Code)
}

// IsTransient reports whether an error from the client is worth retrying.
// Transient failures are transport errors, timeouts, and 5xx responses.
// 4xx responses are permanent rejections and are never retried.
func IsTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	// http.Client wraps connection failures in *url.Error
	var ue *url.Error
	return errors.As(err, &ue)
}
