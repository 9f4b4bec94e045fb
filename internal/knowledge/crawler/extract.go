package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extraction is the cleaned-up text view of one HTML page.
type Extraction struct {
	Success     bool
	Text        string
	Title       string
	Description string
	WordCount   int
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// page chrome, machinery, and consent noise that never carries content
const strippedSelectors = "script, style, noscript, template, iframe, svg, " +
	"nav, header, footer, form, aside, " +
	"[aria-hidden='true'], [hidden], " +
	"[style*='display:none'], [style*='display: none'], " +
	"[style*='visibility:hidden'], [style*='visibility: hidden'], " +
	"[class*='cookie'], [id*='cookie'], [class*='consent'], " +
	"[class*='advert'], [id*='advert'], [class*='banner'], [class*='popup']"

// semantic containers tried in order before falling back to body
var contentSelectors = []string{
	"main", "article", "[role='main']",
	"#content", ".content", "#main", ".main-content",
	".post-content", ".entry-content", ".article-body",
}

// ExtractText pulls structured text out of raw HTML. Headings keep their
// hierarchy as markdown-style prefixes, list items and quotes get their own
// markers, and pages without semantic markup fall back to flattened text so
// we never return near-empty output for old-school sites.
func ExtractText(html string) Extraction {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extraction{}
	}

	title := collapseWhitespace(doc.Find("title").First().Text())
	description := collapseWhitespace(doc.Find("meta[name='description']").AttrOr("content", ""))

	doc.Find(strippedSelectors).Remove()

	container := doc.Find("body")
	for _, sel := range contentSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			container = found.First()
			break
		}
	}

	fragments := structuredFragments(container)
	if len(fragments) < 3 {
		//pages without semantic tags: flatten everything instead
		if flat := collapseWhitespace(container.Text()); flat != "" {
			fragments = []string{flat}
		} else {
			fragments = nil
		}
	}
	fragments = dedupe(fragments)

	text := strings.Join(fragments, "\n\n")
	wordCount := len(strings.Fields(text))

	return Extraction{
		Success:     text != "",
		Text:        text,
		Title:       title,
		Description: description,
		WordCount:   wordCount,
	}
}

func structuredFragments(container *goquery.Selection) []string {
	var fragments []string
	container.Find("h1, h2, h3, h4, h5, h6, p, li, blockquote, pre").
		Each(func(_ int, s *goquery.Selection) {
			//skip nodes already rendered through their block parent
			if s.ParentsFiltered("blockquote, li, pre").Length() > 0 {
				return
			}

			name := goquery.NodeName(s)
			text := collapseWhitespace(s.Text())
			if text == "" {
				return
			}

			switch name {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				level := int(name[1] - '0')
				fragments = append(fragments, strings.Repeat("#", level)+" "+text)
			case "li":
				fragments = append(fragments, "• "+text)
			case "blockquote":
				fragments = append(fragments, "> "+text)
			case "pre":
				fragments = append(fragments, fmt.Sprintf("```\n%s\n```", strings.TrimSpace(s.Text())))
			default:
				fragments = append(fragments, text)
			}
		})
	return fragments
}

// ExtractLinks returns canonicalized same-origin links found in the page.
// Fragments, mail/tel/javascript pseudo-links, static assets and auth flows
// are all filtered out.
func ExtractLinks(html string, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		lower := strings.ToLower(href)
		if strings.HasPrefix(lower, "mailto:") ||
			strings.HasPrefix(lower, "tel:") ||
			strings.HasPrefix(lower, "javascript:") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if !sameOrigin(base, resolved) {
			return
		}

		canon, ok := canonicalURL(resolved.String())
		if !ok || seen[canon] {
			return
		}
		seen[canon] = true
		links = append(links, canon)
	})
	return links
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func dedupe(fragments []string) []string {
	seen := make(map[string]bool, len(fragments))
	out := fragments[:0]
	for _, f := range fragments {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
