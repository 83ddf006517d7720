package annexswitch

import (
	"context"

	"github.com/capazme/lexspace/internal/domain/norma"
)

// AnnexLister fetches a document's annex inventory.
type AnnexLister interface {
	FetchAnnexes(ctx context.Context, n norma.Norma) ([]norma.Annex, error)
}

// SearchRunner re-issues a search with an annex qualifier.
type SearchRunner interface {
	Run(ctx context.Context, p norma.SearchParams) error
}

// TabJanitor removes tabs left behind by a redirected search.
type TabJanitor interface {
	RemoveTabs(ctx context.Context, ids []string) error
}
