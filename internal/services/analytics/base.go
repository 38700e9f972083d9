package analytics

import (
	"context"
	"errors"
	"time"

	"SalesCast/pkg/config"
	xhttp "SalesCast/pkg/http"
)

var errEngineNotConfigured = errors.New("forecast service url not configured")

// HTTPServiceBase joins endpoint paths to the engine's base URL.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
}

// NewHTTPServiceBase builds a retrying client from the engine config. Options
// given later override the config.
func NewHTTPServiceBase(cfg config.EngineConfig, opts ...xhttp.ClientOption) *HTTPServiceBase {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	defaults := []xhttp.ClientOption{
		xhttp.WithTimeout(timeout),
		xhttp.WithRetry(cfg.Retries, 50*time.Millisecond),
	}
	return &HTTPServiceBase{
		baseURL: cfg.URL,
		client:  xhttp.NewClient(append(defaults, opts...)...),
	}
}

// PostJSON posts payload to path and decodes the answer into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload, dest any) error {
	if b.baseURL == "" {
		return errEngineNotConfigured
	}
	return b.client.PostJSON(ctx, b.baseURL+path, payload, dest)
}
