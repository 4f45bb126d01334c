package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"vnnews/internal/logger"
	"vnnews/internal/model"
	"vnnews/internal/store"
)

// Manifest lists the known partition dates and digest identifiers,
// newest first. It is fully derived from the files present and can be
// rebuilt at any time.
type Manifest struct {
	Dates   []string `json:"dates"`
	Digests []string `json:"digests"`
}

// Latest is the pointer file for the most recent partition.
type Latest struct {
	GeneratedAt string       `json:"generated_at"`
	Date        string       `json:"date"`
	Items       []model.Item `json:"items"`
}

// Build scans the output directory and rewrites index.json. Filenames
// that do not parse as dates are silently excluded. Returns the number
// of partition dates indexed.
func Build(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read output dir: %w", err)
	}

	var dates, digests []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		stem := strings.TrimSuffix(name, ".json")
		if d, ok := strings.CutPrefix(stem, "digest-"); ok {
			if validDate(d) {
				digests = append(digests, d)
			}
			continue
		}
		if validDate(stem) {
			dates = append(dates, stem)
		}
	}

	sortDatesDesc(dates)
	sortDatesDesc(digests)

	manifest := Manifest{Dates: dates, Digests: digests}
	if manifest.Dates == nil {
		manifest.Dates = []string{}
	}
	if manifest.Digests == nil {
		manifest.Digests = []string{}
	}

	data, err := encodeCompact(manifest)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(filepath.Join(dir, "index.json"), data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write index: %w", err)
	}

	logger.Info("index built", "dates", len(dates), "digests", len(digests))
	return len(dates), nil
}

// WriteLatest materializes latest.json: the newest partition's items,
// published descending, tagged with a generation timestamp.
func WriteLatest(st *store.Store) error {
	dates := st.Dates()
	if len(dates) == 0 {
		logger.Info("no partitions, skipping latest pointer")
		return nil
	}

	newest := dates[0]
	items := store.SortItems(st.Load(newest))

	latest := Latest{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Date:        newest,
		Items:       items,
	}
	if latest.Items == nil {
		latest.Items = []model.Item{}
	}

	data, err := encodeCompact(latest)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(st.Dir(), "latest.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write latest pointer: %w", err)
	}
	return nil
}

func validDate(s string) bool {
	_, err := time.Parse(store.DateLayout, s)
	return err == nil
}

func sortDatesDesc(dates []string) {
	sort.Slice(dates, func(i, j int) bool {
		ti, _ := time.Parse(store.DateLayout, dates[i])
		tj, _ := time.Parse(store.DateLayout, dates[j])
		return ti.After(tj)
	})
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
