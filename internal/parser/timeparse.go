package parser

import (
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
)

// resolveTimestamp picks a publication instant for a feed entry through a
// layered fallback: textual date fields in priority order, then the
// structured pre-parsed times, then "now". Offsetless values are assumed
// to be in the site zone. The result is always UTC.
func resolveTimestamp(item *gofeed.Item, zone *time.Location) time.Time {
	for _, v := range []string{item.Published, item.Updated} {
		if v == "" {
			continue
		}
		if t, err := dateparse.ParseIn(v, zone); err == nil {
			return t.UTC()
		}
	}
	for _, t := range []*time.Time{item.PublishedParsed, item.UpdatedParsed} {
		if t != nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// parseSiteTime parses a site-local date string from an article page,
// assuming the site zone when no marker is present.
func parseSiteTime(s string, zone *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, zone)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
