package cluster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vnnews/internal/model"
	"vnnews/internal/store"
)

func clusterItem(id, title, published string) model.Item {
	return model.Item{
		ID:        id,
		Source:    "Vietstock",
		Title:     title,
		Link:      "https://example.com/" + id,
		GUID:      "https://example.com/" + id,
		Published: published,
	}
}

type stubSummarizer struct {
	summary string
	err     error
	calls   int
}

func (s *stubSummarizer) SummarizeCluster(_ context.Context, _ string, _ []model.Item) (string, error) {
	s.calls++
	return s.summary, s.err
}

func TestClusterPartition_SingleItem(t *testing.T) {
	e := NewEngine(0, nil)
	masters := e.clusterPartition(context.Background(), []model.Item{
		clusterItem("aaa", "Giá vàng tăng mạnh", "2024-01-02T03:00:00+00:00"),
	})

	require.Len(t, masters, 1)
	assert.Equal(t, 1, masters[0].ClusterCount)
	assert.Empty(t, masters[0].Sources)
}

func TestClusterPartition_IdenticalTitlesMerge(t *testing.T) {
	e := NewEngine(0, nil)
	masters := e.clusterPartition(context.Background(), []model.Item{
		clusterItem("aaa", "Giá vàng SJC tăng mạnh", "2024-01-02T05:00:00+00:00"),
		clusterItem("bbb", "Giá vàng SJC tăng mạnh", "2024-01-02T03:00:00+00:00"),
		clusterItem("ccc", "Chứng khoán giảm điểm phiên chiều", "2024-01-02T01:00:00+00:00"),
	})

	require.Len(t, masters, 2)

	// The newest member seeds the cluster and becomes its master.
	assert.Equal(t, "aaa", masters[0].ID)
	assert.Equal(t, 2, masters[0].ClusterCount)
	require.Len(t, masters[0].Sources, 2)
	assert.Equal(t, "https://example.com/aaa", masters[0].Sources[0].Link)
	assert.Equal(t, "https://example.com/bbb", masters[0].Sources[1].Link)

	assert.Equal(t, "ccc", masters[1].ID)
	assert.Equal(t, 1, masters[1].ClusterCount)
}

func TestClusterPartition_ThresholdIsStrict(t *testing.T) {
	// Two-token titles with one shared token keep every float sum at two
	// terms, so the engine recomputes exactly the same similarity.
	titles := []string{"vàng tăng", "vàng giảm"}
	v := vectorize(titles)
	sim := cosine(v[0], v[1])
	require.Greater(t, sim, 0.0)

	items := []model.Item{
		clusterItem("aaa", titles[0], "2024-01-02T05:00:00+00:00"),
		clusterItem("bbb", titles[1], "2024-01-02T03:00:00+00:00"),
	}

	// Exactly at the threshold: not merged.
	atThreshold := NewEngine(sim, nil).clusterPartition(context.Background(), items)
	assert.Len(t, atThreshold, 2)

	// Just below: merged.
	below := NewEngine(sim-1e-9, nil).clusterPartition(context.Background(), items)
	assert.Len(t, below, 1)
}

func TestClusterPartition_SeedAbsorbsWithoutTransitivity(t *testing.T) {
	// B and C are each similar to seed A but not to each other; both still
	// land in A's cluster because membership is tested against the seed.
	titles := []string{
		"alpha beta gamma delta",
		"alpha beta gamma epsilon",
		"alpha beta delta zeta",
	}
	v := vectorize(titles)
	const threshold = 0.5
	require.Greater(t, cosine(v[0], v[1]), threshold)
	require.Greater(t, cosine(v[0], v[2]), threshold)
	require.LessOrEqual(t, cosine(v[1], v[2]), threshold)

	masters := NewEngine(threshold, nil).clusterPartition(context.Background(), []model.Item{
		clusterItem("aaa", titles[0], "2024-01-02T05:00:00+00:00"),
		clusterItem("bbb", titles[1], "2024-01-02T04:00:00+00:00"),
		clusterItem("ccc", titles[2], "2024-01-02T03:00:00+00:00"),
	})

	require.Len(t, masters, 1)
	assert.Equal(t, 3, masters[0].ClusterCount)
}

func TestBuildMaster_SummarizesMultiSourceClusters(t *testing.T) {
	sum := &stubSummarizer{summary: "Tóm tắt tổng hợp."}
	e := NewEngine(0, sum)
	masters := e.clusterPartition(context.Background(), []model.Item{
		clusterItem("aaa", "Giá vàng SJC tăng mạnh", "2024-01-02T05:00:00+00:00"),
		clusterItem("bbb", "Giá vàng SJC tăng mạnh", "2024-01-02T03:00:00+00:00"),
		clusterItem("ccc", "Chứng khoán giảm điểm phiên chiều", "2024-01-02T01:00:00+00:00"),
	})

	require.Len(t, masters, 2)
	assert.Equal(t, "Tóm tắt tổng hợp.", masters[0].AISummary)
	assert.Empty(t, masters[1].AISummary, "singletons must not be summarized")
	assert.Equal(t, 1, sum.calls)
}

func TestBuildMaster_SummarizerFailureIsNotFatal(t *testing.T) {
	sum := &stubSummarizer{err: errors.New("quota exceeded")}
	e := NewEngine(0, sum)
	masters := e.clusterPartition(context.Background(), []model.Item{
		clusterItem("aaa", "Giá vàng SJC tăng mạnh", "2024-01-02T05:00:00+00:00"),
		clusterItem("bbb", "Giá vàng SJC tăng mạnh", "2024-01-02T03:00:00+00:00"),
	})

	require.Len(t, masters, 1)
	assert.Equal(t, 2, masters[0].ClusterCount)
	assert.Empty(t, masters[0].AISummary)
}

func TestRun_RewritesPartitionWithMasters(t *testing.T) {
	st := store.New(t.TempDir(), time.UTC)
	require.NoError(t, st.Save("01-02-2024", map[string]model.Item{
		"aaa": clusterItem("aaa", "Giá vàng SJC tăng mạnh", "2024-01-02T05:00:00+00:00"),
		"bbb": clusterItem("bbb", "Giá vàng SJC tăng mạnh", "2024-01-02T03:00:00+00:00"),
		"ccc": clusterItem("ccc", "Chứng khoán giảm điểm phiên chiều", "2024-01-02T01:00:00+00:00"),
	}))

	require.NoError(t, NewEngine(0, nil).Run(context.Background(), st, []string{"01-02-2024"}))

	items := st.Load("01-02-2024")
	require.Len(t, items, 2, "absorbed members must be removed from the partition")
	assert.Equal(t, 2, items["aaa"].ClusterCount)
	assert.Equal(t, 1, items["ccc"].ClusterCount)
	assert.NotContains(t, items, "bbb")
}
