package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/WilliamsRotolo/autocaricamento/logger"
	crawlerrors "github.com/WilliamsRotolo/autocaricamento/pkg/errors"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// rateLimitStatuses are answered by the site when it throttles us
var rateLimitStatuses = []int{http.StatusTooManyRequests, 430}

// BuildURL merges params into the query string of target
func BuildURL(target string, params url.Values) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid target url %q: %w", target, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for key, values := range params {
			q.Del(key)
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// newLimiter returns a limiter allowing requestsPerSecond with no burst
func newLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}

// HTTPFetcher performs GET requests for listing pages with net/http
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// NewHTTPFetcher creates a fetcher with a per-request timeout and an upper
// bound on the request rate
func NewHTTPFetcher(userAgent string, timeout time.Duration, requestsPerSecond float64) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		limiter:   newLimiter(requestsPerSecond),
	}
}

// logFetch records one request at debug level
func logFetch(backend, fullURL string, status int, start time.Time, err error) {
	event := logger.ForFetcher().
		WithFields(logger.Fields{"backend": backend, "url": fullURL}).
		Debug()
	if err != nil {
		event = event.Err(err)
	}
	event.Int("status", status).
		Dur("elapsed", time.Since(start)).
		Msg("Page requested")
}

// limiterError keeps context errors as they are. Anything else means the
// next request slot lies past the context deadline.
func limiterError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return crawlerrors.NewNetwork("", "request slot unavailable before deadline", err)
}

// FetchPage sends a GET request for target with params, converts the body to
// UTF-8 (if needed) and returns it.
// Transport failures and non-2xx answers come back as retryable errors.
func (f *HTTPFetcher) FetchPage(ctx context.Context, target string, params url.Values) (string, error) {
	fullURL, err := BuildURL(target, params)
	if err != nil {
		return "", crawlerrors.NewValidation("", err.Error())
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", limiterError(ctx, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", crawlerrors.NewValidation("", fmt.Sprintf("failed to create request: %v", err))
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "it-IT,it;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		logFetch("http", fullURL, 0, start, err)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", crawlerrors.NewNetwork("", fmt.Sprintf("failed to fetch %s", fullURL), err)
	}
	defer resp.Body.Close()
	logFetch("http", fullURL, resp.StatusCode, start, nil)

	if slices.Contains(rateLimitStatuses, resp.StatusCode) {
		retryAfter, _ := time.ParseDuration(resp.Header.Get("Retry-After") + "s")
		e := crawlerrors.NewRateLimit("", retryAfter)
		e.StatusCode = resp.StatusCode
		return "", e
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", crawlerrors.NewStatus("", resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", crawlerrors.NewNetwork("", "failed to read response body", err)
	}

	body, err := toUTF8(bodyBytes, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", crawlerrors.NewParsing("", "failed to decode response body", err)
	}
	return body, nil
}

// toUTF8 determines the encoding from the Content-Type header and body
// content and converts the body when it is not already UTF-8
func toUTF8(body []byte, contentType string) (string, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return string(body), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(body))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}
