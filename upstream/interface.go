package upstream

import (
	"context"
)

// TokenSource provides upstream access credentials. Implementations cache
// the session and re-authenticate on expiry or when forceRefresh is set.
type TokenSource interface {
	Session(ctx context.Context, forceRefresh bool) (*Session, error)
}

// Fetcher retrieves one SKU's current regional stock snapshot. Endpoint
// failures are reported inside the FetchResult, never as a panic or error.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, ref SkuRef) *FetchResult
}
