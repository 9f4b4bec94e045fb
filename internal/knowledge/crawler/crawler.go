package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/config"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/customHttpClient"
	"github.com/kingcader/personal-assistant-ai-sub002/pkg/logger_i"
)

// PageResult is the outcome of fetching one page during a crawl. Failed
// fetches are recorded with Success=false so callers can report them.
type PageResult struct {
	URL         string
	Success     bool
	Title       string
	Description string
	Text        string
	WordCount   int
	Error       string
}

type Crawler struct {
	client    *http.Client
	userAgent string
	//minDelay floors whatever robots.txt asks for; tests shrink it
	minDelay time.Duration
	logger   *logger_i.Logger
}

func NewCrawler() *Crawler {
	return &Crawler{
		client:    customHttpClient.NewPooledClient(),
		userAgent: config.CrawlerUserAgent,
		minDelay:  config.MinCrawlDelay,
		logger:    logger_i.NewLogger("crawler"),
	}
}

type frontierEntry struct {
	url   string
	depth int
}

// Crawl walks startURL's site breadth first up to maxDepth link hops and
// maxPages successful pages. robots.txt is honored: a disallowed root stops
// the crawl before any page fetch, and Crawl-delay paces every request.
// Pages under the minimum word count are dropped from the results but their
// links are still followed.
func (c *Crawler) Crawl(ctx context.Context, startURL string, maxDepth int, maxPages int) ([]PageResult, error) {
	if maxDepth <= 0 {
		maxDepth = config.DefaultMaxDepth
	}
	if maxPages <= 0 {
		maxPages = config.DefaultMaxPages
	}
	if maxPages > config.HardMaxPages {
		maxPages = config.HardMaxPages
	}

	start, ok := canonicalURL(startURL)
	if !ok {
		return nil, fmt.Errorf("start url is not crawlable: %s", startURL)
	}

	group, delay := c.fetchRobots(ctx, start)
	if group != nil && !group.Test("/") {
		c.logger.Warn("site disallows crawling, stopping", "url", start)
		return nil, nil
	}
	if delay < c.minDelay {
		delay = c.minDelay
	}
	limiter := rate.NewLimiter(rate.Every(delay), 1)

	frontier := []frontierEntry{{url: start, depth: 0}}
	visited := map[string]bool{start: true}
	//fetched keys on the post-redirect canonical URL, so a page reached both
	//directly and through a redirect is visited once
	fetched := map[string]bool{}
	var results []PageResult

	for len(frontier) > 0 && len(results) < maxPages {
		entry := frontier[0]
		frontier = frontier[1:]

		if fetched[entry.url] {
			continue
		}
		if group != nil && !group.Test(pathOf(entry.url)) {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return results, err
		}

		body, contentType, finalURL, fetchErr := c.fetch(ctx, entry.url)
		if fetchErr != nil {
			c.logger.Warn("page fetch failed", "url", entry.url, "error", fetchErr)
			fetched[entry.url] = true
			results = append(results, PageResult{URL: entry.url, Error: fetchErr.Error()})
			continue
		}

		pageURL := entry.url
		if canon, ok := canonicalURL(finalURL); ok {
			pageURL = canon
		}
		if fetched[pageURL] {
			//a redirect landed on a page already taken
			continue
		}
		fetched[entry.url] = true
		fetched[pageURL] = true
		visited[pageURL] = true

		if !strings.Contains(contentType, "text/html") {
			results = append(results, PageResult{
				URL:   pageURL,
				Error: fmt.Sprintf("unsupported content type %q", contentType),
			})
			continue
		}

		extraction := ExtractText(body)

		if entry.depth < maxDepth {
			for _, link := range ExtractLinks(body, pageURL) {
				if visited[link] {
					continue
				}
				//frontier bound keeps a link-dense site from ballooning memory
				if len(frontier)+len(results) >= 2*maxPages {
					break
				}
				visited[link] = true
				frontier = append(frontier, frontierEntry{url: link, depth: entry.depth + 1})
			}
		}

		if !extraction.Success || extraction.WordCount < config.MinPageWordCount {
			c.logger.Debug("skipping thin page", "url", pageURL, "words", extraction.WordCount)
			continue
		}

		results = append(results, PageResult{
			URL:         pageURL,
			Success:     true,
			Title:       extraction.Title,
			Description: extraction.Description,
			Text:        extraction.Text,
			WordCount:   extraction.WordCount,
		})
	}

	c.logger.Info("crawl finished", "start", start, "pages", len(results))
	return results, nil
}

// FetchPage retrieves and extracts a single page, bypassing the frontier.
// Used when re-syncing an already-known web document.
func (c *Crawler) FetchPage(ctx context.Context, pageURL string) (PageResult, error) {
	canon, ok := canonicalURL(pageURL)
	if !ok {
		return PageResult{}, fmt.Errorf("url is not fetchable: %s", pageURL)
	}

	body, contentType, finalURL, err := c.fetch(ctx, canon)
	if err != nil {
		return PageResult{URL: canon, Error: err.Error()}, err
	}
	if resolved, ok := canonicalURL(finalURL); ok {
		canon = resolved
	}
	if !strings.Contains(contentType, "text/html") {
		err := fmt.Errorf("unsupported content type %q", contentType)
		return PageResult{URL: canon, Error: err.Error()}, err
	}

	extraction := ExtractText(body)
	return PageResult{
		URL:         canon,
		Success:     extraction.Success,
		Title:       extraction.Title,
		Description: extraction.Description,
		Text:        extraction.Text,
		WordCount:   extraction.WordCount,
	}, nil
}

// fetchRobots loads robots.txt for the start URL's origin. Network trouble
// or a non-200 response means no robots data: the crawl proceeds at the
// default delay. An explicit Disallow is the only thing that blocks it.
func (c *Crawler) fetchRobots(ctx context.Context, start string) (*robotstxt.Group, time.Duration) {
	robotsURL := originOf(start) + "/robots.txt"

	rctx, cancel := context.WithTimeout(ctx, config.RobotsFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(rctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, config.DefaultCrawlDelay
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("robots.txt unreachable, proceeding", "url", robotsURL)
		return nil, config.DefaultCrawlDelay
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, config.DefaultCrawlDelay
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, config.DefaultCrawlDelay
	}

	group := data.FindGroup(c.userAgent)
	delay := config.DefaultCrawlDelay
	if group != nil && group.CrawlDelay > delay {
		delay = group.CrawlDelay
	}
	return group, delay
}

// fetch retrieves one page. The returned URL is the one the response actually
// came from, which differs from pageURL when the server redirected.
func (c *Crawler) fetch(ctx context.Context, pageURL string) (body string, contentType string, finalURL string, err error) {
	fctx, cancel := context.WithTimeout(ctx, config.PageFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", "", err
	}
	defer resp.Body.Close()

	finalURL = pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", finalURL, fmt.Errorf("http status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", finalURL, err
	}
	return string(data), resp.Header.Get("Content-Type"), finalURL, nil
}

func originOf(rawURL string) string {
	if i := strings.Index(rawURL, "://"); i >= 0 {
		if j := strings.Index(rawURL[i+3:], "/"); j >= 0 {
			return rawURL[:i+3+j]
		}
	}
	return rawURL
}

func pathOf(rawURL string) string {
	if i := strings.Index(rawURL, "://"); i >= 0 {
		if j := strings.Index(rawURL[i+3:], "/"); j >= 0 {
			return rawURL[i+3+j:]
		}
	}
	return "/"
}
