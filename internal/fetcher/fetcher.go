// Package fetcher downloads source datasets over HTTP with per-host rate
// limiting, per-fetch timeouts, and retry on transient failures. It is the
// byte-fetching collaborator; decoding lives with the datasets.
package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body. The caller
	// owns the body and must close it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}
