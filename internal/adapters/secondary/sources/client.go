package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"model-trainer-service/internal/core/domain"
)

const maxListingRetries = 2

type clientConfig struct {
	baseURL         string
	userAgent       string
	headers         map[string]string
	budgetPerHour   int
	requestTimeout  time.Duration
	downloadTimeout time.Duration
}

// apiClient is the HTTP plumbing shared by all fetchers: a per-source
// rolling-hour request budget, bounded retries on transient listing
// failures, and short-deadline image downloads. The budget is enforced
// without blocking; an exhausted bucket surfaces as the typed rate-limited
// error so the coordinator can soft-skip the source for this run.
type apiClient struct {
	cfg      clientConfig
	http     *http.Client
	download *http.Client
	limiter  *rate.Limiter
}

func newAPIClient(cfg clientConfig) *apiClient {
	if cfg.requestTimeout == 0 {
		cfg.requestTimeout = 30 * time.Second
	}
	if cfg.downloadTimeout == 0 {
		cfg.downloadTimeout = 10 * time.Second
	}
	if cfg.budgetPerHour <= 0 {
		cfg.budgetPerHour = 60
	}
	return &apiClient{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.requestTimeout},
		download: &http.Client{Timeout: cfg.downloadTimeout},
		limiter:  rate.NewLimiter(rate.Every(time.Hour/time.Duration(cfg.budgetPerHour)), cfg.budgetPerHour),
	}
}

// getJSON performs one budgeted listing request and decodes the response.
func (c *apiClient) getJSON(ctx context.Context, path string, query url.Values, target interface{}) error {
	if !c.limiter.Allow() {
		return fmt.Errorf("%w: hourly budget spent", domain.ErrSourceRateLimited)
	}

	fullURL := strings.TrimSuffix(c.cfg.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= maxListingRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 250 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, err := c.doOnce(ctx, fullURL)
		if err == nil {
			if err := json.Unmarshal(body, target); err != nil {
				return fmt.Errorf("%w: decode response: %v", domain.ErrSourceUnavailable, err)
			}
			return nil
		}

		lastErr = err
		if !retryable(err) {
			return err
		}
	}
	return lastErr
}

func (c *apiClient) doOnce(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", c.cfg.userAgent)
	for k, v := range c.cfg.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrSourceUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: origin returned 429", domain.ErrSourceRateLimited)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}
	return body, nil
}

func retryable(err error) bool {
	if errors.Is(err, domain.ErrSourceRateLimited) {
		return false
	}
	// Transient transport and server-side failures are worth one more try.
	return errors.Is(err, domain.ErrSourceUnavailable)
}

// remoteImage pairs a download URL with the provenance its fetcher already
// translated from the origin's record.
type remoteImage struct {
	URL  string
	Item domain.SourceItem
}

// collect downloads candidates until limit usable images were gathered.
// Individual download or validation failures shrink the batch, nothing more.
func (c *apiClient) collect(ctx context.Context, source string, refs []remoteImage, limit int) []domain.SourceItem {
	items := make([]domain.SourceItem, 0, limit)
	for _, ref := range refs {
		if len(items) >= limit {
			break
		}
		if ctx.Err() != nil {
			break
		}
		payload, err := c.downloadImage(ctx, ref.URL)
		if err != nil {
			log.WithFields(log.Fields{"source": source, "url": ref.URL}).
				WithError(err).Debug("image download skipped")
			continue
		}
		if err := ValidateImage(payload); err != nil {
			log.WithFields(log.Fields{"source": source, "url": ref.URL}).Debug("image rejected")
			continue
		}
		item := ref.Item
		item.Payload = payload
		items = append(items, item)
	}
	return items
}

func (c *apiClient) downloadImage(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.userAgent)

	resp, err := c.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// pickQueries selects up to n queries for this run, shuffled so repeated
// runs rotate through the configured list.
func pickQueries(queries []string, n int) []string {
	if n <= 0 || len(queries) == 0 {
		return nil
	}
	idx := rand.Perm(len(queries))
	if n > len(idx) {
		n = len(idx)
	}
	picked := make([]string, 0, n)
	for _, i := range idx[:n] {
		picked = append(picked, queries[i])
	}
	return picked
}

// splitLimit spreads limit across n queries, front-loading the remainder.
func splitLimit(limit, n int) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = limit / n
	}
	for i := 0; i < limit%n; i++ {
		out[i]++
	}
	return out
}
