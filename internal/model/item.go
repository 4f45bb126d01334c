package model

import "time"

// PublishedLayout is the on-disk timestamp format. The offset style
// (+00:00, not Z) keeps fingerprints and sort order byte-compatible with
// partitions written by earlier versions of the crawler.
const PublishedLayout = "2006-01-02T15:04:05-07:00"

// SourceRef points at one source's copy of a clustered story.
type SourceRef struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// Item is the persisted unit of the news store. ID is a deterministic
// fingerprint and never changes once assigned. Sources, ClusterCount and
// AISummary are populated by the clustering pass only.
type Item struct {
	ID        string      `json:"item_id"`
	Source    string      `json:"source"`
	Title     string      `json:"title"`
	Summary   string      `json:"summary,omitempty"`
	Link      string      `json:"link"`
	GUID      string      `json:"guid"`
	Image     string      `json:"image,omitempty"`
	Published string      `json:"published"`
	Sources   []SourceRef `json:"sources,omitempty"`

	ClusterCount int    `json:"cluster_count,omitempty"`
	AISummary    string `json:"ai_summary,omitempty"`
}

// PublishedTime parses the persisted timestamp. Zero time on malformed
// input; callers sort by the raw string so this is informational only.
func (i Item) PublishedTime() time.Time {
	t, err := time.Parse(PublishedLayout, i.Published)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatPublished renders a publication instant in the persisted layout,
// always in UTC.
func FormatPublished(t time.Time) string {
	return t.UTC().Format(PublishedLayout)
}
