package helpers

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"time"

	crawlerrors "github.com/WilliamsRotolo/autocaricamento/pkg/errors"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

// CollyFetcher performs the same GET requests as HTTPFetcher through a colly
// collector. colly takes care of charset detection.
type CollyFetcher struct {
	collector *colly.Collector
	limiter   *rate.Limiter
}

// NewCollyFetcher creates a colly-backed fetcher
func NewCollyFetcher(userAgent string, timeout time.Duration, requestsPerSecond float64) *CollyFetcher {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeout)

	return &CollyFetcher{
		collector: c,
		limiter:   newLimiter(requestsPerSecond),
	}
}

// FetchPage visits target with params and returns the response body
func (f *CollyFetcher) FetchPage(ctx context.Context, target string, params url.Values) (string, error) {
	fullURL, err := BuildURL(target, params)
	if err != nil {
		return "", crawlerrors.NewValidation("", err.Error())
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", limiterError(ctx, err)
	}

	collector := f.collector.Clone()
	collector.Context = ctx

	var body []byte
	var status int

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "it-IT,it;q=0.9,en-US;q=0.8,en;q=0.7")
	})

	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	start := time.Now()
	visitErr := collector.Visit(fullURL)
	collector.Wait()
	logFetch("colly", fullURL, status, start, visitErr)

	if visitErr != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		switch {
		case slices.Contains(rateLimitStatuses, status):
			e := crawlerrors.NewRateLimit("", 0)
			e.StatusCode = status
			return "", e
		case status != 0:
			return "", crawlerrors.NewStatus("", status)
		default:
			return "", crawlerrors.NewNetwork("", fmt.Sprintf("failed to fetch %s", fullURL), visitErr)
		}
	}

	if status < 200 || status > 299 {
		return "", crawlerrors.NewStatus("", status)
	}
	return string(body), nil
}
