package cluster

import (
	"context"

	"vnnews/internal/logger"
	"vnnews/internal/model"
	"vnnews/internal/store"
)

// DefaultThreshold is the cosine similarity above which two titles are
// considered the same story.
const DefaultThreshold = 0.75

// Summarizer synthesizes a cross-source summary for a multi-source
// cluster. Its failure is never fatal to the pass.
type Summarizer interface {
	SummarizeCluster(ctx context.Context, masterTitle string, members []model.Item) (string, error)
}

// Engine groups near-duplicate stories within one partition by title
// similarity and collapses each group into its master item.
type Engine struct {
	threshold  float64
	summarizer Summarizer
}

// NewEngine creates a clustering engine. summarizer may be nil to
// disable synthesized summaries.
func NewEngine(threshold float64, summarizer Summarizer) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{threshold: threshold, summarizer: summarizer}
}

// Run clusters each of the given partitions in place. The pass rewrites
// a partition with master items only.
func (e *Engine) Run(ctx context.Context, st *store.Store, dates []string) error {
	for _, date := range dates {
		err := st.Update(date, func(items map[string]model.Item) error {
			masters := e.clusterPartition(ctx, store.SortItems(items))
			for id := range items {
				delete(items, id)
			}
			for _, m := range masters {
				items[m.ID] = m
			}
			return nil
		})
		if err != nil {
			return err
		}
		logger.Info("clustered partition", "date", date)
	}
	return nil
}

// clusterPartition runs greedy seed clustering over items in partition
// order. Each not-yet-assigned item seeds a cluster and absorbs every
// later unassigned item whose similarity to the seed (not to the growing
// cluster) exceeds the threshold. Transitivity is deliberately not
// enforced; downstream output depends on this exact grouping.
func (e *Engine) clusterPartition(ctx context.Context, items []model.Item) []model.Item {
	if len(items) == 0 {
		return nil
	}
	if len(items) < 2 {
		it := items[0]
		it.ClusterCount = 1
		return []model.Item{it}
	}

	titles := make([]string, len(items))
	for i, it := range items {
		titles[i] = it.Title
	}
	vectors := vectorize(titles)

	assigned := make([]bool, len(items))
	var masters []model.Item

	for i := range items {
		if assigned[i] {
			continue
		}
		cluster := []int{i}
		assigned[i] = true
		for j := i + 1; j < len(items); j++ {
			if !assigned[j] && cosine(vectors[i], vectors[j]) > e.threshold {
				cluster = append(cluster, j)
				assigned[j] = true
			}
		}
		masters = append(masters, e.buildMaster(ctx, items, cluster))
	}
	return masters
}

// buildMaster elects the seed as master, attaches every member's source
// reference and, for multi-source clusters, a synthesized summary.
func (e *Engine) buildMaster(ctx context.Context, items []model.Item, cluster []int) model.Item {
	master := items[cluster[0]]

	members := make([]model.Item, 0, len(cluster))
	sources := make([]model.SourceRef, 0, len(cluster))
	for _, idx := range cluster {
		it := items[idx]
		members = append(members, it)
		sources = append(sources, model.SourceRef{Name: it.Source, Link: it.Link})
	}
	master.Sources = sources
	master.ClusterCount = len(sources)

	if master.ClusterCount > 1 && e.summarizer != nil {
		summary, err := e.summarizer.SummarizeCluster(ctx, master.Title, members)
		if err != nil {
			logger.Warn("cluster summary failed", "title", master.Title, "error", err)
		} else if summary != "" {
			master.AISummary = summary
		}
	}
	return master
}
