package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"vnnews/internal/logger"
	"vnnews/internal/model"
)

// DateLayout is the partition filename format (month-day-year, matching
// the historical on-disk naming).
const DateLayout = "01-02-2006"

// Store is the date-partitioned news store: one JSON file per local
// calendar date, mapping item_id to the persisted item. Writers to the
// same partition serialize on a per-partition mutex; different partitions
// proceed independently.
type Store struct {
	dir string
	loc *time.Location

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(dir string, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		dir:   dir,
		loc:   loc,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *Store) Dir() string { return s.dir }

// DateKey returns the partition key for a publication instant: the date
// in the store's local zone.
func (s *Store) DateKey(t time.Time) string {
	return t.In(s.loc).Format(DateLayout)
}

// Path returns the partition file path for a date key.
func (s *Store) Path(date string) string {
	return filepath.Join(s.dir, date+".json")
}

// Load reads one partition. A missing or unparsable file is an empty
// partition, never an error.
func (s *Store) Load(date string) map[string]model.Item {
	items := make(map[string]model.Item)

	data, err := os.ReadFile(s.Path(date))
	if err != nil {
		return items
	}
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Warn("unreadable partition, treating as empty", "date", date, "error", err)
		return make(map[string]model.Item)
	}
	return items
}

// Save writes one partition: a compact UTF-8 JSON object keyed by
// item_id, entries ordered by published descending. Saving the same
// logical content twice produces byte-identical output. The file is
// written to a temp path and renamed into place.
func (s *Store) Save(date string, items map[string]model.Item) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	data, err := Encode(items)
	if err != nil {
		return err
	}

	path := s.Path(date)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write partition: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace partition: %w", err)
	}
	return nil
}

// Update runs fn under the partition's lock with the current contents
// and saves the result. This is the load-merge-save cycle; holding the
// lock for the whole cycle prevents lost updates between concurrent
// writers of the same partition.
func (s *Store) Update(date string, fn func(items map[string]model.Item) error) error {
	lock := s.partitionLock(date)
	lock.Lock()
	defer lock.Unlock()

	items := s.Load(date)
	if err := fn(items); err != nil {
		return err
	}
	return s.Save(date, items)
}

// Dates lists the partition dates present on disk, newest first. Files
// whose names do not parse as dates (index.json, digest files, strays)
// are excluded.
func (s *Store) Dates() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}

	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		stem := strings.TrimSuffix(name, ".json")
		if _, err := time.Parse(DateLayout, stem); err != nil {
			continue
		}
		dates = append(dates, stem)
	}

	sort.Slice(dates, func(i, j int) bool {
		ti, _ := time.Parse(DateLayout, dates[i])
		tj, _ := time.Parse(DateLayout, dates[j])
		return ti.After(tj)
	})
	return dates
}

func (s *Store) partitionLock(date string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[date]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[date] = lock
	}
	return lock
}

// SortItems orders partition items by published descending, with item_id
// as a stable tie-break. This is both the on-disk entry order and the
// order the clustering pass walks.
func SortItems(items map[string]model.Item) []model.Item {
	sorted := make([]model.Item, 0, len(items))
	for _, it := range items {
		sorted = append(sorted, it)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Published != sorted[j].Published {
			return sorted[i].Published > sorted[j].Published
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// Encode renders a partition deterministically: object keys in
// published-descending order, compact separators, non-ASCII and HTML
// characters preserved as-is.
func Encode(items map[string]model.Item) ([]byte, error) {
	sorted := SortItems(items)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, it := range sorted {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(it.ID)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := encodeCompact(it)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
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
