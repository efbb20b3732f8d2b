package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	crawlerrors "github.com/WilliamsRotolo/autocaricamento/pkg/errors"
	"github.com/WilliamsRotolo/autocaricamento/services/cache"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	mu    sync.Mutex
	cache map[string][]byte
	ttls  map[string]time.Duration
}

var _ cache.CacheService = (*MockCacheService)(nil)

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
		ttls:  make(map[string]time.Duration),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, &mockError{message: "cache miss"}
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
	m.ttls[key] = expiration
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	delete(m.ttls, key)
	return nil
}

type mockError struct {
	message string
}

func (e *mockError) Error() string {
	return e.message
}

// mockFetcher serves canned pages keyed by URL path and page number
type mockFetcher struct {
	mu sync.Mutex

	// pages[path][page] is the HTML served for that page
	pages map[string]map[int]string

	// failures[path][page] is how many times the page fails before it is served
	failures map[string]map[int]int

	// failErr is returned for failing pages; defaults to a 500 status error
	failErr error

	calls []fetchCall
}

type fetchCall struct {
	Path   string
	Page   int
	Params url.Values
}

var _ PageFetcher = (*mockFetcher)(nil)

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		pages:    make(map[string]map[int]string),
		failures: make(map[string]map[int]int),
	}
}

func (m *mockFetcher) addPage(path string, page int, html string) *mockFetcher {
	if m.pages[path] == nil {
		m.pages[path] = make(map[int]string)
	}
	m.pages[path][page] = html
	return m
}

func (m *mockFetcher) failPage(path string, page, times int) *mockFetcher {
	if m.failures[path] == nil {
		m.failures[path] = make(map[int]int)
	}
	m.failures[path][page] = times
	return m
}

func (m *mockFetcher) FetchPage(ctx context.Context, target string, params url.Values) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	page, _ := strconv.Atoi(params.Get("Page"))
	m.calls = append(m.calls, fetchCall{Path: u.Path, Page: page, Params: params})

	if remaining := m.failures[u.Path][page]; remaining != 0 {
		if remaining > 0 {
			m.failures[u.Path][page] = remaining - 1
		}
		if m.failErr != nil {
			return "", m.failErr
		}
		return "", crawlerrors.NewStatus(u.Path, 500)
	}

	html, ok := m.pages[u.Path][page]
	if !ok {
		return "<html><body></body></html>", nil
	}
	return html, nil
}

// pagesRequested lists the page numbers fetched for path, one entry per attempt
func (m *mockFetcher) pagesRequested(path string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pages []int
	for _, c := range m.calls {
		if c.Path == path {
			pages = append(pages, c.Page)
		}
	}
	return pages
}

// recordingThrottle returns immediately and remembers every wait
type recordingThrottle struct {
	mu    sync.Mutex
	waits []throttleWait
}

type throttleWait struct {
	Base   time.Duration
	Jitter time.Duration
}

var _ Throttle = (*recordingThrottle)(nil)

func (r *recordingThrottle) Wait(ctx context.Context, base, jitter time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, throttleWait{Base: base, Jitter: jitter})
	return ctx.Err()
}

// testCard describes one listing card of a synthetic page
type testCard struct {
	Href    string
	Label   string
	Year    string
	Brand   string
	Model   string
	Variant string
	Km      string
	Fuel    string
	Gear    string
	Price   string
	Images  []string
}

func (c testCard) html() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<a class="item" href="%s">`, c.Href)

	b.WriteString(`<div class="image">`)
	for _, img := range c.Images {
		b.WriteString(img)
	}
	b.WriteString(`</div>`)

	fmt.Fprintf(&b, `<div class="info"><span>%s</span><span>%s</span></div>`, c.Label, c.Year)

	b.WriteString(`<div class="section1"><div class="t1">`)
	if c.Brand != "" {
		fmt.Fprintf(&b, `<b>%s</b> `, c.Brand)
	}
	fmt.Fprintf(&b, `%s</div><div class="t2">%s</div></div>`, c.Model, c.Variant)

	b.WriteString(`<div class="section2">`)
	if c.Km != "" {
		fmt.Fprintf(&b, `<div class="t1"><b>Km</b> %s</div>`, c.Km)
	}
	if c.Fuel != "" {
		fmt.Fprintf(&b, `<div class="t2"><span>Alimentazione</span><span>%s</span></div>`, c.Fuel)
	}
	if c.Gear != "" {
		fmt.Fprintf(&b, `<div class="t2"><span>Cambio</span><span>%s</span></div>`, c.Gear)
	}
	b.WriteString(`</div>`)

	fmt.Fprintf(&b, `<div class="section3"><div class="prezzo">%s</div></div>`, c.Price)
	b.WriteString(`</a>`)
	return b.String()
}

// pageHTML renders cards followed by a pagination control linking pages
// 1..lastLinked; lastLinked 0 leaves the control out
func pageHTML(lastLinked int, cards ...testCard) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="lista">`)
	for _, c := range cards {
		b.WriteString(c.html())
	}
	b.WriteString(`</div>`)
	if lastLinked > 0 {
		b.WriteString(`<div class="paginazione">`)
		for p := 1; p <= lastLinked; p++ {
			fmt.Fprintf(&b, `<a class="cta_pageitem" href="/lista-veicoli/usato/?Page=%d&amp;NumeroVeicoli=100">%d</a>`, p, p)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// simpleCard returns a valid card for a unique slug
func simpleCard(slug string) testCard {
	return testCard{
		Href:    "/auto/" + slug,
		Label:   "Usato",
		Year:    "2020",
		Brand:   "FIAT",
		Model:   "Panda",
		Variant: "1.0 Hybrid City Life",
		Km:      "45.000",
		Fuel:    "Ibrida",
		Gear:    "Manuale",
		Price:   "€ 11.900",
		Images:  []string{`<img src="https://cdn.example.com/` + slug + `.jpg">`},
	}
}
