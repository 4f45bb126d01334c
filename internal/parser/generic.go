package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"vnnews/internal/logger"
	"vnnews/internal/metrics"
)

// GenericFeedParser is the default parser for standard RSS/Atom feeds.
type GenericFeedParser struct {
	fetch *fetcher
	zone  *time.Location
}

func (p *GenericFeedParser) Parse(ctx context.Context, url string, fctx FeedContext) ([]RawItem, error) {
	feed, err := p.fetchFeed(ctx, url)
	if err != nil {
		return nil, err
	}

	items := make([]RawItem, 0, len(feed.Items))
	for _, e := range feed.Items {
		title := strings.TrimSpace(e.Title)
		if title == "" {
			logger.Debug("skipping entry without title", "source", fctx.Source, "link", e.Link)
			metrics.Global.IncrementEntriesSkipped()
			continue
		}

		descHTML := firstNonEmpty(e.Description, e.Content)
		summary := truncateSummary(cleanHTMLText(descHTML))

		image := mediaImage(e)
		if image == "" {
			image = firstImageSrc(descHTML)
		}

		items = append(items, RawItem{
			GUID:      strings.TrimSpace(firstNonEmpty(e.GUID, e.Link)),
			Link:      strings.TrimSpace(e.Link),
			Title:     title,
			Summary:   summary,
			Image:     image,
			Published: resolveTimestamp(e, p.zone),
		})
	}
	return items, nil
}

func (p *GenericFeedParser) fetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	body, err := p.fetch.get(ctx, url)
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return feed, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
