// Package arxiv fetches paper metadata from the arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the arXiv export API query endpoint.
	DefaultBaseURL = "https://export.arxiv.org/api/query"

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults caps a fetch when the query does not set one.
	DefaultMaxResults = 100

	// DefaultPageSize is the number of entries requested per API call.
	DefaultPageSize = 100

	// DefaultRequestInterval spaces requests per the arXiv API terms of
	// use (no more than one request every three seconds).
	DefaultRequestInterval = 3 * time.Second
)

// Config configures the arXiv client.
type Config struct {
	// BaseURL is the query endpoint. Defaults to DefaultBaseURL.
	BaseURL string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// PageSize is the number of entries fetched per request.
	PageSize int

	// RequestInterval is the minimum spacing between requests.
	RequestInterval time.Duration
}

// Client fetches paper metadata from the arXiv Atom API, newest first.
type Client struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ driven.PaperSource = (*Client)(nil)

// NewClient creates an arXiv API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = DefaultRequestInterval
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		pageSize:   cfg.PageSize,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
	}
}

// Fetch returns up to q.MaxResults documents matching the query,
// sorted by submission date descending.
func (c *Client) Fetch(ctx context.Context, q domain.PaperQuery) ([]domain.Document, error) {
	searchQuery, err := buildSearchQuery(q)
	if err != nil {
		return nil, err
	}

	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	var docs []domain.Document
	for start := 0; start < maxResults; start += c.pageSize {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		count := min(c.pageSize, maxResults-start)
		feed, err := c.fetchPage(ctx, searchQuery, start, count)
		if err != nil {
			return nil, err
		}

		for _, entry := range feed.Entries {
			doc := entry.document()
			if doc.ID == "" {
				continue
			}
			docs = append(docs, doc)
		}

		// Short page: the archive has nothing further.
		if len(feed.Entries) < count {
			break
		}
	}

	return docs, nil
}

func (c *Client) fetchPage(ctx context.Context, searchQuery string, start, count int) (*atomFeed, error) {
	params := url.Values{}
	params.Set("search_query", searchQuery)
	params.Set("start", strconv.Itoa(start))
	params.Set("max_results", strconv.Itoa(count))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying arxiv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("querying arxiv: unexpected status %d", resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}
	return &feed, nil
}

// buildSearchQuery translates a PaperQuery into the arXiv search_query
// syntax, e.g. "cat:cs.CL AND all:dense retrieval".
func buildSearchQuery(q domain.PaperQuery) (string, error) {
	var parts []string
	if q.Category != "" {
		parts = append(parts, "cat:"+q.Category)
	}
	if q.Terms != "" {
		parts = append(parts, "all:"+q.Terms)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: query needs a category or search terms", domain.ErrInvalidArgument)
	}
	return strings.Join(parts, " AND "), nil
}
