package search

import (
	"context"

	"github.com/capazme/lexspace/internal/domain/norma"
	"github.com/capazme/lexspace/internal/usecase/annexswitch"
)

// ResultStream yields per-article results as the backend produces them.
type ResultStream interface {
	// Next returns io.EOF at end of stream. A recoverable line failure
	// wraps domain.ErrLineDecode or domain.ErrMissingNormaData and
	// leaves the stream readable.
	Next() (norma.Result, error)
	Close() error
}

// Backend is the upstream legal API surface the orchestrator needs.
type Backend interface {
	FetchAllData(ctx context.Context, p norma.SearchParams) ([]norma.Result, error)
	FetchArticleText(ctx context.Context, p norma.SearchParams) ([]norma.Result, error)
	StreamArticleText(ctx context.Context, p norma.SearchParams) (ResultStream, error)
	FetchNormaData(ctx context.Context, lookup norma.Lookup) ([]norma.Ref, error)
	FetchTree(ctx context.Context, urn string, withDetails, withMetadata bool) (norma.Document, error)
	ExportPDF(ctx context.Context, urn string) ([]byte, error)
}

// Detector runs the annex auto-switch check after a search completes.
type Detector interface {
	Register(ctx context.Context, params norma.SearchParams, tabIDs []string) annexswitch.Decision
}
