package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/customHttpClient"
	"github.com/kingcader/personal-assistant-ai-sub002/pkg/logger_i"
)

func testCrawler() *Crawler {
	return &Crawler{
		client:    customHttpClient.NewPooledClient(),
		userAgent: "TestBot/1.0",
		minDelay:  time.Millisecond,
		logger:    logger_i.NewLogger("crawler-test"),
	}
}

// filler produces enough body text to clear the minimum word count.
func filler(label string) string {
	var sb strings.Builder
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&sb, "%s word%d ", label, i)
	}
	return sb.String()
}

func htmlPage(title string, body string) string {
	return fmt.Sprintf("<html><head><title>%s</title></head><body><main>%s</main></body></html>", title, body)
}

func TestCrawl_RobotsDisallowAllStopsBeforeAnyFetch(t *testing.T) {
	var pageFetches int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fmt.Fprint(w, "User-agent: *\nDisallow: /\n")
			return
		}
		atomic.AddInt64(&pageFetches, 1)
		fmt.Fprint(w, htmlPage("page", "<p>"+filler("p")+"</p>"))
	}))
	defer srv.Close()

	results, err := testCrawler().Crawl(context.Background(), srv.URL, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("disallowed site produced %d results; want 0", len(results))
	}
	if n := atomic.LoadInt64(&pageFetches); n != 0 {
		t.Errorf("crawler fetched %d pages from a disallowed site", n)
	}
}

func TestCrawl_RobotsUnavailableProceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, htmlPage("home", "<p>"+filler("home")+"</p>"))
	}))
	defer srv.Close()

	results, err := testCrawler().Crawl(context.Background(), srv.URL, 0, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected one successful page, got %+v", results)
	}
}

func TestCrawl_CycleVisitedOnce(t *testing.T) {
	fetchCounts := make(map[string]*int64)
	for _, p := range []string{"/", "/a", "/b"} {
		var n int64
		fetchCounts[p] = &n
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		if n, ok := fetchCounts[r.URL.Path]; ok {
			atomic.AddInt64(n, 1)
		}
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, htmlPage("root", `<a href="/a">a</a><p>`+filler("root")+"</p>"))
		case "/a":
			fmt.Fprint(w, htmlPage("a", `<a href="/b">b</a><p>`+filler("a")+"</p>"))
		case "/b":
			//link back to the start: the cycle must not refetch it
			fmt.Fprint(w, htmlPage("b", `<a href="/">home</a><a href="/a">a</a><p>`+filler("b")+"</p>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	results, err := testCrawler().Crawl(context.Background(), srv.URL, 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 pages, got %d: %+v", len(results), results)
	}
	for p, n := range fetchCounts {
		if got := atomic.LoadInt64(n); got != 1 {
			t.Errorf("page %s fetched %d times; want 1", p, got)
		}
	}
}

func TestCrawl_RedirectTargetVisitedOnce(t *testing.T) {
	var targetFetches int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			http.NotFound(w, r)
		case "/":
			fmt.Fprint(w, htmlPage("root", `<a href="/a">a</a><a href="/b">b</a><p>`+filler("root")+"</p>"))
		case "/a":
			//same destination as the direct /b link
			http.Redirect(w, r, "/b", http.StatusMovedPermanently)
		case "/b":
			atomic.AddInt64(&targetFetches, 1)
			fmt.Fprint(w, htmlPage("target", "<p>"+filler("target")+"</p>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	results, err := testCrawler().Crawl(context.Background(), srv.URL, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := atomic.LoadInt64(&targetFetches); n != 1 {
		t.Errorf("redirect target fetched %d times; want 1", n)
	}
	var targetResults int
	for _, r := range results {
		if strings.HasSuffix(r.URL, "/b") {
			targetResults++
		}
	}
	if targetResults != 1 {
		t.Errorf("redirect target recorded %d times in results; want 1: %+v", targetResults, results)
	}
	if len(results) != 2 {
		t.Errorf("expected root and target only, got %d results: %+v", len(results), results)
	}
}

func TestCrawl_ThinPageSkippedButLinksFollowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			http.NotFound(w, r)
		case "/":
			//well under the word floor, but links out to a real page
			fmt.Fprint(w, htmlPage("thin", `<a href="/full">more</a><p>almost nothing here</p>`))
		case "/full":
			fmt.Fprint(w, htmlPage("full", "<p>"+filler("full")+"</p>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	results, err := testCrawler().Crawl(context.Background(), srv.URL, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected only the full page, got %d results: %+v", len(results), results)
	}
	if !strings.HasSuffix(results[0].URL, "/full") || !results[0].Success {
		t.Errorf("unexpected surviving result: %+v", results[0])
	}
}

func TestCrawl_NonHTMLRecordedAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			http.NotFound(w, r)
		case "/":
			fmt.Fprint(w, htmlPage("root", `<a href="/feed">feed</a><p>`+filler("root")+"</p>"))
		case "/feed":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"items":[]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	results, err := testCrawler().Crawl(context.Background(), srv.URL, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(results), results)
	}
	var failure *PageResult
	for i := range results {
		if !results[i].Success {
			failure = &results[i]
		}
	}
	if failure == nil {
		t.Fatal("non-HTML response was not recorded as a failure")
	}
	if !strings.Contains(failure.Error, "content type") {
		t.Errorf("failure error %q does not mention content type", failure.Error)
	}
}

func TestCrawl_MaxPagesStopsTheWalk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		//every page links to two fresh pages: an unbounded tree
		n := strings.TrimPrefix(r.URL.Path, "/")
		body := fmt.Sprintf(`<a href="/%sa">x</a><a href="/%sb">y</a><p>%s</p>`, n, n, filler("pg"))
		fmt.Fprint(w, htmlPage("node", body))
	}))
	defer srv.Close()

	results, err := testCrawler().Crawl(context.Background(), srv.URL, 10, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Errorf("expected exactly 4 pages, got %d", len(results))
	}
}

func TestFetchPage_Single(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, htmlPage("solo", "<p>"+filler("solo")+"</p>"))
	}))
	defer srv.Close()

	result, err := testCrawler().FetchPage(context.Background(), srv.URL+"/page")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Title != "solo" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://Example.com/Docs/", "https://example.com/Docs", true},
		{"https://example.com/page#section", "https://example.com/page", true},
		{"https://example.com/", "https://example.com/", true},
		{"https://example.com/logo.png", "", false},
		{"https://example.com/account/settings", "", false},
		{"ftp://example.com/file", "", false},
		{"https://example.com/wp-admin/options.php", "", false},
	}
	for _, tt := range tests {
		got, ok := canonicalURL(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("canonicalURL(%q) = (%q, %v); want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractText_StructuredFragments(t *testing.T) {
	html := `<html><head><title>Guide</title>
<meta name="description" content="A test page"></head>
<body>
<nav>skip this nav</nav>
<div class="cookie-banner">accept cookies</div>
<main>
<h1>Guide</h1>
<p>First paragraph with enough words to matter in the output stream.</p>
<h2>Steps</h2>
<ul><li>step one</li><li>step two</li></ul>
<blockquote>quoted wisdom</blockquote>
<pre>code block</pre>
</main>
<footer>skip the footer too</footer>
</body></html>`

	ex := ExtractText(html)
	if !ex.Success {
		t.Fatal("extraction failed")
	}
	if ex.Title != "Guide" || ex.Description != "A test page" {
		t.Errorf("title/description = %q / %q", ex.Title, ex.Description)
	}
	for _, want := range []string{"# Guide", "## Steps", "• step one", "> quoted wisdom", "```\ncode block\n```"} {
		if !strings.Contains(ex.Text, want) {
			t.Errorf("output missing fragment %q:\n%s", want, ex.Text)
		}
	}
	for _, banned := range []string{"skip this nav", "accept cookies", "skip the footer"} {
		if strings.Contains(ex.Text, banned) {
			t.Errorf("output contains stripped content %q", banned)
		}
	}
}

func TestExtractText_FlatFallback(t *testing.T) {
	//no semantic tags at all: an old table-layout page
	html := `<html><body><table><tr><td>left   column
	text</td><td>right column text</td></tr></table></body></html>`

	ex := ExtractText(html)
	if !ex.Success {
		t.Fatal("extraction failed")
	}
	if strings.Contains(ex.Text, "\n") {
		t.Errorf("flat fallback should collapse whitespace, got %q", ex.Text)
	}
	if !strings.Contains(ex.Text, "left column text") {
		t.Errorf("flat fallback lost content: %q", ex.Text)
	}
}

func TestExtractLinks(t *testing.T) {
	html := `<html><body>
<a href="/docs/intro">intro</a>
<a href="/docs/intro/">intro again</a>
<a href="https://other.example.org/x">external</a>
<a href="#anchor">anchor</a>
<a href="mailto:hi@example.com">mail</a>
<a href="/login">login</a>
<a href="/assets/logo.svg">logo</a>
</body></html>`

	links := ExtractLinks(html, "https://example.com/docs")
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %v", links)
	}
	if links[0] != "https://example.com/docs/intro" {
		t.Errorf("link = %q", links[0])
	}
}
