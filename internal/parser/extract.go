package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// summaryMaxRunes is the truncation point for item summaries.
const summaryMaxRunes = 300

// cleanHTMLText removes markup from a snippet and collapses whitespace.
func cleanHTMLText(html string) string {
	if html == "" {
		return ""
	}
	text := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		text = doc.Text()
	}
	// Residual CDATA close markers survive some feeds' double escaping.
	text = strings.ReplaceAll(text, "]]>", "")
	return strings.Join(strings.Fields(text), " ")
}

// truncateSummary caps a summary at summaryMaxRunes, appending an
// ellipsis when it was cut.
func truncateSummary(s string) string {
	runes := []rune(s)
	if len(runes) <= summaryMaxRunes {
		return s
	}
	return strings.TrimSpace(string(runes[:summaryMaxRunes])) + "…"
}

// stripByline drops a short leading "Source - " or byline segment that
// some sites prepend to the real summary text.
func stripByline(s string) string {
	const maxBylineLen = 80
	for _, sep := range []string{" - ", " – ", " | "} {
		if idx := strings.Index(s, sep); idx > 0 && idx < maxBylineLen {
			rest := strings.TrimSpace(s[idx+len(sep):])
			if rest != "" {
				return rest
			}
		}
	}
	return s
}

// firstImageSrc returns the src of the first <img> in an HTML snippet.
func firstImageSrc(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return strings.TrimSpace(src)
}

// mediaImage returns an explicit media attachment URL from a feed entry:
// media:content / media:thumbnail, then the item image, then an image
// enclosure.
func mediaImage(item *gofeed.Item) string {
	for _, key := range []string{"content", "thumbnail"} {
		if media, ok := item.Extensions["media"]; ok {
			for _, e := range media[key] {
				if url := strings.TrimSpace(e.Attrs["url"]); url != "" {
					return url
				}
			}
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		return strings.TrimSpace(item.Image.URL)
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return strings.TrimSpace(enc.URL)
		}
	}
	return ""
}

// ogImage returns the Open Graph image of an HTML document.
func ogImage(doc *goquery.Document) string {
	content, _ := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	return strings.TrimSpace(content)
}
