package aggregate

import (
	"context"

	"github.com/capazme/lexspace/internal/domain/norma"
)

// TabStore is the workspace surface the aggregator routes results into.
type TabStore interface {
	// CreateTab opens a new tab for a norm and returns its id.
	CreateTab(ctx context.Context, label string, n norma.Norma, versionDate string) (string, error)

	// UpsertArticle adds or replaces one article in an existing tab.
	UpsertArticle(ctx context.Context, tabID string, a norma.Article) error
}
