package news

import (
	"context"
	"sync"
	"time"

	"vnnews/internal/config"
	"vnnews/internal/logger"
	"vnnews/internal/metrics"
	"vnnews/internal/model"
	"vnnews/internal/parser"
	"vnnews/internal/store"
)

// Counts summarizes one ingestion run.
type Counts struct {
	Added   int
	Updated int
	Skipped int
	Total   int // entries now present in the touched partitions
}

// Crawler runs the ingestion pipeline: fetch every configured (source,
// url) unit in parallel, batch the normalized items per local-date
// partition, then merge each batch into the store once.
type Crawler struct {
	reg     *parser.Registry
	store   *store.Store
	workers int
}

func NewCrawler(reg *parser.Registry, st *store.Store, workers int) *Crawler {
	if workers < 1 {
		workers = 1
	}
	return &Crawler{reg: reg, store: st, workers: workers}
}

type fetchJob struct {
	source config.Source
	url    string
}

// Run ingests all sources. Per-source fetch failures are logged and
// skipped; the run only fails on storage errors.
func (c *Crawler) Run(ctx context.Context, sources []config.Source, force bool) (Counts, error) {
	startTime := time.Now()
	defer func() {
		metrics.Global.RecordProcessingTime(time.Since(startTime))
		metrics.Global.SetLastRun()
	}()

	var jobs []fetchJob
	for _, src := range sources {
		for _, url := range src.URLs {
			jobs = append(jobs, fetchJob{source: src, url: url})
		}
	}

	batches := c.fetchAll(ctx, jobs)

	var counts Counts
	for date, batch := range batches {
		added, updated, skipped, total, err := c.merge(date, batch, force)
		if err != nil {
			return counts, err
		}
		counts.Added += added
		counts.Updated += updated
		counts.Skipped += skipped
		counts.Total += total
	}

	metrics.Global.AddAdded(counts.Added)
	metrics.Global.AddUpdated(counts.Updated)
	metrics.Global.AddDuplicates(counts.Skipped)

	return counts, nil
}

// fetchAll fans the fetch jobs out over a bounded worker set and groups
// the resulting items by target partition date.
func (c *Crawler) fetchAll(ctx context.Context, jobs []fetchJob) map[string][]model.Item {
	jobCh := make(chan fetchJob)
	var wg sync.WaitGroup
	var mu sync.Mutex
	batches := make(map[string][]model.Item)

	workers := c.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				items := c.fetchOne(ctx, job)
				if len(items) == 0 {
					continue
				}
				mu.Lock()
				for _, it := range items {
					date := c.store.DateKey(it.PublishedTime())
					batches[date] = append(batches[date], it)
				}
				mu.Unlock()
			}
		}()
	}
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()

	return batches
}

func (c *Crawler) fetchOne(ctx context.Context, job fetchJob) []model.Item {
	p := c.reg.Get(job.source.Type)
	raw, err := p.Parse(ctx, job.url, parser.FeedContext{
		Source:     job.source.Name,
		SourceType: job.source.Type,
	})
	if err != nil {
		logger.Error("source fetch failed", "source", job.source.Name, "url", job.url, "error", err)
		metrics.Global.IncrementFetchErrors()
		return nil
	}
	logger.Info("fetched source", "source", job.source.Name, "url", job.url, "items", len(raw))
	metrics.Global.AddProcessed(len(raw))

	items := make([]model.Item, 0, len(raw))
	for _, r := range raw {
		items = append(items, toItem(r, job.source.Name))
	}
	return items
}

// toItem assigns identity and freezes a raw entry into its persisted
// shape. The guid field falls back to the link when the feed had none.
func toItem(r parser.RawItem, source string) model.Item {
	guid := r.GUID
	if guid == "" {
		guid = r.Link
	}
	return model.Item{
		ID:        Fingerprint(r.GUID, r.Link, source, r.Title, r.Published),
		Source:    source,
		Title:     r.Title,
		Summary:   r.Summary,
		Link:      r.Link,
		GUID:      guid,
		Image:     r.Image,
		Published: model.FormatPublished(r.Published),
	}
}

// merge applies one partition's batch under the partition lock. Seen
// items are skipped, or overwritten when force is set.
func (c *Crawler) merge(date string, batch []model.Item, force bool) (added, updated, skipped, total int, err error) {
	err = c.store.Update(date, func(items map[string]model.Item) error {
		for _, it := range batch {
			if _, seen := items[it.ID]; seen {
				if !force {
					skipped++
					continue
				}
				items[it.ID] = it
				updated++
				continue
			}
			items[it.ID] = it
			added++
		}
		total = len(items)
		return nil
	})
	if err != nil {
		return 0, 0, 0, 0, err
	}
	logger.Info("merged partition", "date", date, "added", added, "updated", updated, "skipped", skipped, "total", total)
	return added, updated, skipped, total, nil
}
