package parser

import (
	"context"
	"time"
)

// RawItem is one normalized entry produced by a parser. It is ephemeral;
// the ingestion pipeline assigns identity and persists it.
type RawItem struct {
	GUID      string
	Link      string
	Title     string
	Summary   string
	Image     string
	Published time.Time // always UTC
}

// FeedContext carries the source metadata a parser may need.
type FeedContext struct {
	Source     string
	SourceType string
}

// Parser produces normalized items from one source URL. A single
// malformed entry or unreachable article must not fail the whole call:
// such entries are logged and skipped. An unreachable listing page yields
// an empty result, a broken feed fetch an error the caller can log.
type Parser interface {
	Parse(ctx context.Context, url string, fctx FeedContext) ([]RawItem, error)
}
