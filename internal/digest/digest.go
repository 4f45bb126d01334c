package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"vnnews/internal/logger"
	"vnnews/internal/openrouter"
	"vnnews/internal/store"
)

// headlinesPerDay caps how many top stories per partition feed the
// digest prompt.
const headlinesPerDay = 15

// Generator produces the structured digest for a set of headlines.
type Generator interface {
	GenerateDigest(ctx context.Context, headlines []openrouter.Headline) (*openrouter.Digest, error)
}

// Build generates the structured daily digest from today's and
// yesterday's clustered partitions and writes digest.json plus the
// dated digest-MM-DD-YYYY.json alongside them.
func Build(ctx context.Context, st *store.Store, gen Generator, loc *time.Location) error {
	now := time.Now().In(loc)
	today := now.Format(store.DateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(store.DateLayout)

	var headlines []openrouter.Headline
	for _, date := range []string{today, yesterday} {
		items := st.Load(date)
		if len(items) == 0 {
			continue
		}
		sorted := store.SortItems(items)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ClusterCount > sorted[j].ClusterCount
		})
		for i, it := range sorted {
			if i >= headlinesPerDay {
				break
			}
			headlines = append(headlines, openrouter.Headline{
				Title:  it.Title,
				Source: it.Source,
				Link:   it.Link,
			})
		}
	}

	if len(headlines) == 0 {
		logger.Info("no headlines for digest, skipping")
		return nil
	}

	d, err := gen.GenerateDigest(ctx, headlines)
	if err != nil {
		return fmt.Errorf("digest generation failed: %w", err)
	}
	d.Date = today
	d.Updated = time.Now().In(loc).Format(time.RFC3339)

	data, err := encodeCompact(d)
	if err != nil {
		return err
	}
	for _, name := range []string{"digest.json", "digest-" + today + ".json"} {
		if err := os.WriteFile(filepath.Join(st.Dir(), name), data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	logger.Info("digest generated", "date", today, "events", len(d.Timeline))
	return nil
}

func encodeCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
