package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"vnnews/internal/retry"
)

const maxBodySize = 10 << 20 // 10 MiB

// fetcher is the shared HTTP layer for all parser variants: descriptive
// user-agent, bounded per-request timeout, retry on transient failure.
type fetcher struct {
	client    *http.Client
	userAgent string
	retryCfg  retry.Config
}

func newFetcher(o Options) *fetcher {
	attempts := o.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := o.RetryDelay
	if delay == 0 {
		delay = 2 * time.Second
	}
	return &fetcher{
		client: &http.Client{
			Timeout: o.RequestTimeout,
		},
		userAgent: o.UserAgent,
		retryCfg: retry.Config{
			MaxAttempts: attempts,
			Delay:       delay,
			Backoff:     true,
		},
	}
}

// get downloads a URL with retries and returns the body.
func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	err := retry.WithRetry(ctx, f.retryCfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if f.userAgent != "" {
			req.Header.Set("User-Agent", f.userAgent)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("error loading page: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP error: %d", resp.StatusCode)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// document downloads a URL and parses it as HTML.
func (f *fetcher) document(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	return doc, nil
}
