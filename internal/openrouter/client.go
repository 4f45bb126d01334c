package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"vnnews/internal/cache"
	"vnnews/internal/metrics"
	"vnnews/internal/model"
	"vnnews/internal/ratelimit"
)

const (
	// BaseURL is OpenRouter's OpenAI-compatible endpoint.
	BaseURL = "https://openrouter.ai/api/v1"

	DefaultModel = "xiaomi/mimo-v2-flash:free"

	summaryCacheTTL = 24 * time.Hour
)

var jsonFence = regexp.MustCompile("```json\\s*|\\s*```")

// Client talks to OpenRouter for cluster summaries and the daily digest.
// Responses are memoized so a re-run over the same partition does not
// re-spend the request budget.
type Client struct {
	api     *openai.Client
	model   string
	limiter *ratelimit.Limiter
	cache   *cache.Cache
}

// New builds a client. The model defaults to DefaultModel; maxRequests
// caps LLM calls per run (0 = unlimited).
func New(apiKey, model string, maxRequests int) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = BaseURL

	return &Client{
		api:     openai.NewClientWithConfig(clientConfig),
		model:   model,
		limiter: ratelimit.New(maxRequests),
		cache:   cache.New(),
	}, nil
}

// SummarizeCluster produces one synthesized Vietnamese summary for a
// group of same-story items from different sources.
func (c *Client) SummarizeCluster(ctx context.Context, masterTitle string, members []model.Item) (string, error) {
	keyParts := make([]string, 0, len(members)+1)
	keyParts = append(keyParts, "cluster")
	for _, m := range members {
		keyParts = append(keyParts, m.ID)
	}
	key := c.cache.GenerateKey(keyParts...)
	if cached, ok := c.cache.Get(key); ok {
		c.limiter.RecordCacheHit()
		return cached, nil
	}

	if !c.limiter.Allow() {
		return "", fmt.Errorf("LLM request budget exhausted")
	}

	summary, err := c.complete(ctx, clusterPrompt(masterTitle, members), false)
	if err != nil {
		return "", err
	}
	c.cache.Set(key, summary, summaryCacheTTL)
	return summary, nil
}

// Headline is one digest input row.
type Headline struct {
	Title  string
	Source string
	Link   string
}

// Digest is the structured daily digest produced by the model.
type Digest struct {
	Date     string          `json:"date"`
	Summary  string          `json:"summary"`
	Timeline []TimelineEntry `json:"timeline"`
	Updated  string          `json:"updated"`
}

type TimelineEntry struct {
	Time    string            `json:"time"`
	Title   string            `json:"title"`
	Content string            `json:"content"`
	Sources []model.SourceRef `json:"sources"`
}

// GenerateDigest asks the model for a timeline digest of the day's top
// headlines. The response is requested in JSON mode; stray markdown
// fences are stripped before decoding.
func (c *Client) GenerateDigest(ctx context.Context, headlines []Headline) (*Digest, error) {
	if len(headlines) == 0 {
		return nil, fmt.Errorf("no headlines to digest")
	}
	if !c.limiter.Allow() {
		return nil, fmt.Errorf("LLM request budget exhausted")
	}

	raw, err := c.complete(ctx, digestPrompt(headlines), true)
	if err != nil {
		return nil, err
	}

	var result struct {
		Summary  string          `json:"summary"`
		Timeline []TimelineEntry `json:"timeline"`
	}
	if err := json.Unmarshal([]byte(stripJSONFence(raw)), &result); err != nil {
		return nil, fmt.Errorf("failed to decode digest response: %w", err)
	}

	return &Digest{
		Summary:  result.Summary,
		Timeline: result.Timeline,
	}, nil
}

func (c *Client) complete(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	metrics.Global.IncrementLLMRequests()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenRouter API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenRouter")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func clusterPrompt(masterTitle string, members []model.Item) string {
	var ctxParts []string
	for _, it := range members {
		ctxParts = append(ctxParts, fmt.Sprintf("Title: %s\nSummary: %s", it.Title, it.Summary))
	}

	return fmt.Sprintf(`Bạn là một chuyên gia tin tức. Hãy viết một bản tóm tắt tổng hợp (synthesized summary) duy nhất cho nhóm tin tức cùng chủ đề dưới đây.
Tiêu đề chính: %s

Dữ liệu từ các nguồn:
%s

Yêu cầu:
1. Viết bằng tiếng Việt, súc tích (khoảng 3-4 câu).
2. Tập trung vào sự kiện chính và các con số/chi tiết quan trọng nhất từ tất cả nguồn.
3. Không lặp lại tên báo trong nội dung tóm tắt.
4. Văn phong báo chí hiện đại.
`, masterTitle, strings.Join(ctxParts, "---"))
}

func digestPrompt(headlines []Headline) string {
	var lines []string
	for _, h := range headlines {
		lines = append(lines, fmt.Sprintf("- %s (Nguồn: %s, Link: %s)", h.Title, h.Source, h.Link))
	}

	return fmt.Sprintf(`Bạn là một biên tập viên tin tức AI chuyên nghiệp. Hãy phân tích các tin tức sau và tạo một bản tin "Catch up" (Dòng thời gian sự kiện) dưới định dạng JSON.

Yêu cầu nội dung:
1. "summary": Một câu tóm tắt cực ngắn (khoảng 20 từ) bao quát toàn bộ ngày.
2. "timeline": Một danh sách gồm 4-6 sự kiện quan trọng nhất. Mỗi sự kiện có:
   - "time": Mốc thời gian hoặc thứ tự (VD: "Sáng nay", "10:00", "Tiêu điểm").
   - "title": Tiêu đề ngắn gọn của sự kiện.
   - "content": Nội dung chi tiết sự kiện (1-2 câu). MUST include key facts.
   - "sources": Một danh sách các đối tượng nguồn tin {"name": "Tên báo", "link": "đường dẫn"}.

Yêu cầu kỹ thuật:
- Ngôn ngữ: Tiếng Việt.
- Sử dụng chính xác đường dẫn (Link) từ dữ liệu đầu vào làm nguồn trích dẫn.
- Trả về DUY NHẤT định dạng JSON.

Danh sách tin tức thô:
%s

Trả về JSON schema:
{
  "summary": "...",
  "timeline": [
    {
      "time": "...",
      "title": "...",
      "content": "...",
      "sources": [{"name": "Tên báo", "link": "..."}]
    }
  ]
}
`, strings.Join(lines, "\n"))
}

// stripJSONFence removes a wrapping markdown code block from a model
// response.
func stripJSONFence(s string) string {
	return strings.TrimSpace(jsonFence.ReplaceAllString(s, ""))
}
