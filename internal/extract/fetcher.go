// Package extract fetches web pages and reduces them to plain text suitable
// for SEO analysis, along with a summary of the page's HTML structure.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/seoscout/seoscout/internal/seo"
)

// Sentinel errors for fetch failures. Extraction failures are permanent by
// policy (a 404 today is a 404 on retry), so callers never retry them.
var (
	ErrFetchFailed  = errors.New("content fetch failed")
	ErrFetchTimeout = errors.New("content fetch timeout")
)

// strippedTags are removed entirely before text extraction; their contents
// are boilerplate, not article body.
var strippedTags = "script, style, noscript, iframe, header, footer, nav"

// Page is the sanitized result of fetching a URL.
type Page struct {
	Text      string
	Structure seo.Structure
}

// Fetcher is the interface for obtaining page content.
type Fetcher interface {
	FetchContent(ctx context.Context, url string) (*Page, error)
}

// HTTPFetcher implements Fetcher over plain HTTP with goquery parsing.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates an HTTPFetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// FetchContent downloads the URL and returns its readable text and structure.
func (f *HTTPFetcher) FetchContent(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrFetchFailed, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing html: %v", ErrFetchFailed, err)
	}

	return ParseDocument(doc), nil
}

// ParseDocument reduces a parsed HTML document to a Page. Split out from
// FetchContent so tests can feed documents without a live server.
func ParseDocument(doc *goquery.Document) *Page {
	structure := seo.Structure{
		HasH1:          doc.Find("h1").Length() > 0,
		HasSubheadings: doc.Find("h2, h3").Length() > 0,
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok && strings.TrimSpace(desc) != "" {
		structure.HasMetaDescription = true
	}

	doc.Find(strippedTags).Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	// Collapse all whitespace runs so word counting is stable.
	text := strings.Join(strings.Fields(root.Text()), " ")

	return &Page{Text: text, Structure: structure}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrFetchTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrFetchTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrFetchFailed, err)
}

// Compile-time check that HTTPFetcher implements Fetcher.
var _ Fetcher = (*HTTPFetcher)(nil)
