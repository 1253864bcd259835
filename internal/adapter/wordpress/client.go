// Package wordpress fetches litigation records from the WordPress REST API.
package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/heartmarshall/litigation-mapper/internal/config"
	"github.com/heartmarshall/litigation-mapper/internal/domain"
	"github.com/heartmarshall/litigation-mapper/internal/source"
)

// totalPagesHeader carries the page count of a paginated collection.
const totalPagesHeader = "X-WP-TotalPages"

// maxParallelEndpoints bounds concurrent endpoint downloads of a snapshot.
const maxParallelEndpoints = 3

// Client fetches raw records from the WordPress REST API.
type Client struct {
	baseURL    string
	perPage    int
	maxRetries int
	backoff    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

// NewClient creates a Client from the wordpress configuration section.
func NewClient(cfg config.WordPressConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		perPage:    cfg.PerPage,
		maxRetries: cfg.MaxRetries,
		backoff:    500 * time.Millisecond,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1)),
		log:        logger.With(slog.String("adapter", "wordpress")),
	}
}

// FetchSnapshot downloads every endpoint of a full snapshot.
func (c *Client) FetchSnapshot(ctx context.Context) (source.RawSnapshot, error) {
	endpoints := source.Endpoints()
	results := make([][]json.RawMessage, len(endpoints))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelEndpoints)
	for i, endpoint := range endpoints {
		g.Go(func() error {
			items, err := c.FetchEndpoint(gctx, endpoint)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	raw := make(source.RawSnapshot, len(endpoints))
	for i, endpoint := range endpoints {
		raw[endpoint] = results[i]
	}
	return raw, nil
}

// FetchEndpoint downloads every page of a collection endpoint, newest id first.
func (c *Client) FetchEndpoint(ctx context.Context, endpoint string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	totalPages := 1

	for page := 1; page <= totalPages; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(c.perPage))
		q.Set("orderby", "id")
		q.Set("order", "desc")

		resp, err := c.get(ctx, endpoint+"?"+q.Encode())
		if err != nil {
			return nil, fmt.Errorf("wordpress: fetch %s page %d: %w", endpoint, page, err)
		}

		var items []json.RawMessage
		err = decodeBody(resp, &items)
		if err != nil {
			return nil, fmt.Errorf("wordpress: fetch %s page %d: %w", endpoint, page, err)
		}
		all = append(all, items...)

		if page == 1 {
			if n, err := strconv.Atoi(resp.Header.Get(totalPagesHeader)); err == nil && n > 0 {
				totalPages = n
			}
		}
	}

	c.log.InfoContext(ctx, "endpoint fetched",
		slog.String("endpoint", endpoint),
		slog.Int("pages", totalPages),
		slog.Int("records", len(all)),
	)
	if all == nil {
		all = []json.RawMessage{}
	}
	return all, nil
}

// FetchTerm fetches a single taxonomy term. A missing term returns
// domain.ErrNotFound.
func (c *Client) FetchTerm(ctx context.Context, taxonomy string, id int) (source.Term, error) {
	data, err := c.fetchOne(ctx, taxonomy, id)
	if err != nil {
		return source.Term{}, err
	}
	return source.DecodeTerm(taxonomy, data)
}

// FetchCase fetches a single case of the given kind.
func (c *Client) FetchCase(ctx context.Context, kind source.CaseKind, id int) (source.Case, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("wordpress: unknown case type %q: %w", kind, domain.ErrValidation)
	}
	data, err := c.fetchOne(ctx, kind.String(), id)
	if err != nil {
		return nil, err
	}
	return source.DecodeCase(kind, data)
}

func (c *Client) fetchOne(ctx context.Context, endpoint string, id int) (json.RawMessage, error) {
	resp, err := c.get(ctx, endpoint+"/"+strconv.Itoa(id))
	if err != nil {
		return nil, fmt.Errorf("wordpress: fetch %s/%d: %w", endpoint, id, err)
	}
	var data json.RawMessage
	if err := decodeBody(resp, &data); err != nil {
		return nil, fmt.Errorf("wordpress: fetch %s/%d: %w", endpoint, id, err)
	}
	return data, nil
}

// get issues a rate-limited GET, retrying network errors, 429 and 5xx with
// linear backoff. Non-retryable statuses are returned to the caller.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	reqURL := c.baseURL + "/" + path

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * c.backoff
			c.log.WarnContext(ctx, "wordpress retry",
				slog.String("url", reqURL),
				slog.Int("attempt", attempt),
				slog.String("reason", lastErr.Error()),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if retryable(resp.StatusCode) {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}

	return nil, fmt.Errorf("%w: giving up after %d attempts: %w", domain.ErrUpstream, c.maxRetries+1, lastErr)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// decodeBody closes resp and decodes its JSON body into v.
func decodeBody(resp *http.Response, v any) error {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: unexpected status %d", domain.ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
