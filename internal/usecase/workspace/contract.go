package workspace

import (
	"context"

	domws "github.com/capazme/lexspace/internal/domain/workspace"
)

// TabRepository persists workspace tabs.
type TabRepository interface {
	SaveTab(ctx context.Context, tab domws.Tab) error
	GetTab(ctx context.Context, id string) (domws.Tab, error)
	ListTabs(ctx context.Context) ([]domws.Tab, error)
	DeleteTab(ctx context.Context, id string) error
}

// QuickNormRepository persists pinned norm shortcuts.
type QuickNormRepository interface {
	SaveQuickNorm(ctx context.Context, qn domws.QuickNorm) error
	GetQuickNorm(ctx context.Context, id string) (domws.QuickNorm, error)
	ListQuickNorms(ctx context.Context) ([]domws.QuickNorm, error)
	DeleteQuickNorm(ctx context.Context, id string) error
}

// DossierRepository persists dossiers.
type DossierRepository interface {
	SaveDossier(ctx context.Context, d domws.Dossier) error
	GetDossier(ctx context.Context, id string) (domws.Dossier, error)
	ListDossiers(ctx context.Context) ([]domws.Dossier, error)
	DeleteDossier(ctx context.Context, id string) error
}

// Repository is the full workspace storage contract.
type Repository interface {
	TabRepository
	QuickNormRepository
	DossierRepository
}
