package parser

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"vnnews/internal/logger"
	"vnnews/internal/metrics"
)

// cafefArticleHref matches CafeF article URLs (slug ending in a numeric
// id plus .chn).
var cafefArticleHref = regexp.MustCompile(`\d+\.chn$`)

// CafeFParser crawls a CafeF listing page, discovers article URLs inside
// the main listing region only (navigation links are full of .chn links
// too), then fetches and extracts each article page individually with a
// bounded worker count. A failed listing fetch yields an empty result; a
// failed article fetch skips that article.
type CafeFParser struct {
	fetch   *fetcher
	zone    *time.Location
	workers int
}

func (p *CafeFParser) Parse(ctx context.Context, listingURL string, fctx FeedContext) ([]RawItem, error) {
	doc, err := p.fetch.document(ctx, listingURL)
	if err != nil {
		logger.Warn("listing fetch failed", "source", fctx.Source, "url", listingURL, "error", err)
		metrics.Global.IncrementFetchErrors()
		return nil, nil
	}

	links := p.discoverArticleLinks(doc, listingURL)
	if len(links) == 0 {
		logger.Debug("no article links found", "source", fctx.Source, "url", listingURL)
		return nil, nil
	}

	// Fan out per-article fetches; one broken article must not cancel
	// its siblings.
	type indexed struct {
		idx  int
		item RawItem
		ok   bool
	}

	jobs := make(chan int)
	results := make([]indexed, len(links))
	var wg sync.WaitGroup

	workers := p.workers
	if workers > len(links) {
		workers = len(links)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				item, ok := p.extractArticle(ctx, links[i], fctx)
				results[i] = indexed{idx: i, item: item, ok: ok}
			}
		}()
	}
	for i := range links {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	items := make([]RawItem, 0, len(links))
	for _, r := range results {
		if r.ok {
			items = append(items, r.item)
		}
	}
	return items, nil
}

// discoverArticleLinks collects article URLs from the listing region,
// deduplicated and resolved against the listing URL.
func (p *CafeFParser) discoverArticleLinks(doc *goquery.Document, listingURL string) []string {
	base, err := url.Parse(listingURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find(".listchungkhoannew a, .tlitem h3 a, .top_noibat h2 a").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		href = strings.TrimSpace(href)
		if !cafefArticleHref.MatchString(href) {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, abs)
	})

	return links
}

// extractArticle fetches one article page and pulls out title, sapo
// summary, publication time and image.
func (p *CafeFParser) extractArticle(ctx context.Context, articleURL string, fctx FeedContext) (RawItem, bool) {
	doc, err := p.fetch.document(ctx, articleURL)
	if err != nil {
		logger.Warn("article fetch failed", "source", fctx.Source, "url", articleURL, "error", err)
		metrics.Global.IncrementFetchErrors()
		return RawItem{}, false
	}

	title := strings.TrimSpace(doc.Find("h1.title, h1").First().Text())
	if title == "" {
		logger.Debug("article without title", "url", articleURL)
		metrics.Global.IncrementEntriesSkipped()
		return RawItem{}, false
	}

	summary := cleanHTMLText(sapoHTML(doc))
	summary = truncateSummary(stripByline(summary))

	published := p.articleTime(doc)

	image := ogImage(doc)

	return RawItem{
		GUID:      articleURL,
		Link:      articleURL,
		Title:     title,
		Summary:   summary,
		Image:     image,
		Published: published,
	}, true
}

func sapoHTML(doc *goquery.Document) string {
	for _, sel := range []string{"h2.sapo", ".sapo", `meta[property="og:description"]`} {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if sel == `meta[property="og:description"]` {
			if content, ok := s.Attr("content"); ok && strings.TrimSpace(content) != "" {
				return content
			}
			continue
		}
		if html, err := s.Html(); err == nil && strings.TrimSpace(html) != "" {
			return html
		}
	}
	return ""
}

// articleTime reads the publication instant from the page: the
// article:published_time meta first, then the visible date span, which is
// written in site-local time without a zone marker. Falls back to "now".
func (p *CafeFParser) articleTime(doc *goquery.Document) time.Time {
	if content, ok := doc.Find(`meta[property="article:published_time"]`).First().Attr("content"); ok {
		if t, ok := parseSiteTime(content, p.zone); ok {
			return t
		}
	}
	for _, sel := range []string{"span.pdate", ".date-publish", "time"} {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if attr, ok := s.Attr("datetime"); ok {
			if t, ok := parseSiteTime(attr, p.zone); ok {
				return t
			}
		}
		if t, ok := parseSiteTime(strings.TrimSpace(s.Text()), p.zone); ok {
			return t
		}
	}
	return time.Now().UTC()
}
