package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stocksentry/stocksentry/internal/config"
	"github.com/stocksentry/stocksentry/pkg/logger"
)

// Client fetches regional stock snapshots from the upstream inventory API.
// For a SKU with a known upstream product id the detail endpoint is tried
// first (single precise round trip); the primary and secondary list
// endpoints serve as fallbacks. Every attempt has an independent timeout and
// a small re-auth retry budget for 401/403 rejections.
type Client struct {
	http   *resty.Client
	tokens TokenSource
	cfg    config.UpstreamConfig
}

// NewClient creates a new upstream inventory client
func NewClient(cfg config.UpstreamConfig, tokens TokenSource) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.RequestTimeout()),
		tokens: tokens,
		cfg:    cfg,
	}
}

// FetchSnapshot fetches one SKU's current regional stock snapshot. It never
// returns an error for endpoint failures; when all attempts fail the result
// carries a composed reason string.
func (c *Client) FetchSnapshot(ctx context.Context, ref SkuRef) *FetchResult {
	var reasons []string

	if ref.UpstreamProductID != "" {
		snap, err := c.fetchDetail(ctx, ref)
		if err == nil {
			return &FetchResult{SkuCode: ref.SkuCode, Success: true, Snapshot: snap}
		}
		reasons = append(reasons, fmt.Sprintf("detail: %v", err))
	}

	attempts := []struct {
		source string
		path   string
	}{
		{"list-primary", c.cfg.ListPrimaryPath},
		{"list-secondary", c.cfg.ListSecondaryPath},
	}
	for _, attempt := range attempts {
		snap, err := c.fetchList(ctx, attempt.source, attempt.path, ref.SkuCode)
		if err == nil {
			return &FetchResult{SkuCode: ref.SkuCode, Success: true, Snapshot: snap}
		}
		reasons = append(reasons, fmt.Sprintf("%s: %v", attempt.source, err))
	}

	reason := strings.Join(reasons, "; ")
	logger.Log.Warn().Str("sku_code", ref.SkuCode).Str("reason", reason).Msg("all upstream attempts failed")
	return &FetchResult{SkuCode: ref.SkuCode, Success: false, Reason: reason}
}

// fetchDetail queries the detail endpoint by upstream product id
func (c *Client) fetchDetail(ctx context.Context, ref SkuRef) (*SkuSnapshot, error) {
	var out productPayload
	path := strings.TrimRight(c.cfg.DetailPath, "/") + "/" + ref.UpstreamProductID
	if _, err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	if out.SkuCode == "" {
		out.SkuCode = ref.SkuCode
	}
	return out.snapshot("detail", time.Now()), nil
}

// fetchList queries a list endpoint and requires an exact SKU code match
func (c *Client) fetchList(ctx context.Context, source, path, skuCode string) (*SkuSnapshot, error) {
	var out listResponse
	if _, err := c.get(ctx, path, map[string]string{"keyword": skuCode}, &out); err != nil {
		return nil, err
	}
	for i := range out.Items {
		if out.Items[i].SkuCode == skuCode {
			return out.Items[i].snapshot(source, time.Now()), nil
		}
	}
	return nil, ErrNoMatchingSku
}

// get performs one authenticated GET. A 401/403 response forces a session
// refresh and retries within the configured budget.
func (c *Client) get(ctx context.Context, path string, params map[string]string, out interface{}) (*resty.Response, error) {
	for attempt := 0; ; attempt++ {
		session, err := c.tokens.Session(ctx, attempt > 0)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetAuthToken(session.Token).
			SetResult(out).
			Get(path)

		if err != nil {
			wrapped := error(ErrEndpointUnavailable)
			if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
				wrapped = ErrTimeout
			}
			return nil, NewUpstreamError(path, 0, err.Error(), wrapped)
		}

		if IsAuthRejection(resp.StatusCode()) && attempt < c.cfg.RetryAttempts {
			logger.Log.Debug().Str("path", path).Int("status", resp.StatusCode()).Msg("credential rejected, refreshing session")
			continue
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, NewUpstreamError(path, resp.StatusCode(), "unexpected status", ErrEndpointUnavailable)
		}
		return resp, nil
	}
}
