// Package fetcher downloads source payloads over HTTP and reads local
// tracker exports. All fetching is rate limited per host; the pipeline core
// never performs I/O itself.
package fetcher

import "context"

// Fetcher downloads a remote payload into memory. Implementations retry
// transient failures and respect per-host rate limits.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}
