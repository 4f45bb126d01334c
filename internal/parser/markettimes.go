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

// MarketTimesParser handles OneCMS feeds that ship full HTML in
// <content:encoded> next to a plain <description>. Summaries prefer the
// short description, with a leading byline segment stripped; images are
// looked up in the richer content field first.
type MarketTimesParser struct {
	fetch *fetcher
	zone  *time.Location
}

func (p *MarketTimesParser) Parse(ctx context.Context, url string, fctx FeedContext) ([]RawItem, error) {
	body, err := p.fetch.get(ctx, url)
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]RawItem, 0, len(feed.Items))
	for _, e := range feed.Items {
		title := strings.TrimSpace(e.Title)
		if title == "" {
			logger.Debug("skipping entry without title", "source", fctx.Source, "link", e.Link)
			metrics.Global.IncrementEntriesSkipped()
			continue
		}

		descHTML := e.Description
		contentHTML := e.Content

		summary := cleanHTMLText(descHTML)
		if summary == "" {
			summary = cleanHTMLText(contentHTML)
		}
		summary = truncateSummary(stripByline(summary))

		image := mediaImage(e)
		if image == "" {
			image = firstImageSrc(contentHTML)
		}
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
