package openrouter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vnnews/internal/model"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "", 0)
	assert.Error(t, err)
}

func TestNew_DefaultsModel(t *testing.T) {
	c, err := New("sk-or-test", "", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.model)

	c, err = New("sk-or-test", "deepseek/deepseek-chat", 0)
	require.NoError(t, err)
	assert.Equal(t, "deepseek/deepseek-chat", c.model)
}

func TestStripJSONFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"summary":"ok"}`, `{"summary":"ok"}`},
		{"fenced", "```json\n{\"summary\":\"ok\"}\n```", `{"summary":"ok"}`},
		{"fence without language", "```\n{\"summary\":\"ok\"}\n```", `{"summary":"ok"}`},
		{"surrounding whitespace", "  {\"summary\":\"ok\"}\n", `{"summary":"ok"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripJSONFence(tt.in))
		})
	}
}

func TestClusterPrompt_IncludesAllSources(t *testing.T) {
	prompt := clusterPrompt("Giá vàng tăng mạnh", []model.Item{
		{Title: "Giá vàng tăng mạnh", Summary: "Vàng SJC lên 80 triệu."},
		{Title: "Vàng SJC lập đỉnh mới", Summary: "Giá vàng miếng tăng 2%."},
	})

	assert.Contains(t, prompt, "Giá vàng tăng mạnh")
	assert.Contains(t, prompt, "Vàng SJC lên 80 triệu.")
	assert.Contains(t, prompt, "Vàng SJC lập đỉnh mới")
	assert.Contains(t, prompt, "tiếng Việt")
}

func TestDigestPrompt_ListsHeadlinesWithLinks(t *testing.T) {
	prompt := digestPrompt([]Headline{
		{Title: "VN-Index tăng 10 điểm", Source: "Vietstock", Link: "https://vietstock.vn/a"},
		{Title: "Giá dầu giảm", Source: "MarketTimes", Link: "https://markettimes.vn/b"},
	})

	assert.Contains(t, prompt, "VN-Index tăng 10 điểm")
	assert.Contains(t, prompt, "https://vietstock.vn/a")
	assert.Contains(t, prompt, "https://markettimes.vn/b")
	assert.Contains(t, prompt, `"timeline"`)
}

func TestSummarizeCluster_BudgetExhausted(t *testing.T) {
	c, err := New("sk-or-test", "", 1)
	require.NoError(t, err)
	require.True(t, c.limiter.Allow())

	_, err = c.SummarizeCluster(context.Background(), "Giá vàng tăng", []model.Item{
		{ID: "aaa", Title: "Giá vàng tăng"},
		{ID: "bbb", Title: "Vàng lập đỉnh"},
	})
	assert.ErrorContains(t, err, "budget")
}

func TestSummarizeCluster_ServedFromCache(t *testing.T) {
	c, err := New("sk-or-test", "", 1)
	require.NoError(t, err)

	key := c.cache.GenerateKey("cluster", "aaa", "bbb")
	c.cache.Set(key, "Tóm tắt đã lưu.", summaryCacheTTL)

	got, err := c.SummarizeCluster(context.Background(), "Giá vàng tăng", []model.Item{
		{ID: "aaa", Title: "Giá vàng tăng"},
		{ID: "bbb", Title: "Vàng lập đỉnh"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Tóm tắt đã lưu.", got)
	assert.Equal(t, 0, c.limiter.Used(), "cache hits must not consume budget")
	assert.Equal(t, 1, c.limiter.CacheHits())
}
