// Package workspace persists tabs, quick norms and dossiers as JSON
// values in the key-value store.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/capazme/lexspace/internal/db"
	"github.com/capazme/lexspace/internal/domain"
	domws "github.com/capazme/lexspace/internal/domain/workspace"
)

// store is the consumer interface for workspace persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the workspace usecase storage contracts.
type Repo struct {
	store  store
	prefix string
}

// New creates a workspace repository. prefix namespaces every key, e.g.
// "lexspace:".
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

func (r *Repo) tabKey(id string) string     { return r.prefix + "tab:" + id }
func (r *Repo) quickKey(id string) string   { return r.prefix + "quicknorm:" + id }
func (r *Repo) dossierKey(id string) string { return r.prefix + "dossier:" + id }

// SaveTab stores a tab, overwriting any previous state.
func (r *Repo) SaveTab(ctx context.Context, tab domws.Tab) error {
	data, err := marshalTab(tab)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.tabKey(tab.ID), data); err != nil {
		return fmt.Errorf("save tab %s: %w", tab.ID, err)
	}
	return nil
}

// GetTab loads one tab by id.
func (r *Repo) GetTab(ctx context.Context, id string) (domws.Tab, error) {
	data, err := r.store.Get(ctx, r.tabKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domws.Tab{}, fmt.Errorf("%w: %s", domain.ErrTabNotFound, id)
		}
		return domws.Tab{}, fmt.Errorf("get tab %s: %w", id, err)
	}
	return unmarshalTab(data)
}

// ListTabs loads every stored tab, newest first.
func (r *Repo) ListTabs(ctx context.Context) ([]domws.Tab, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"tab:*")
	if err != nil {
		return nil, fmt.Errorf("scan tabs: %w", err)
	}

	tabs := make([]domws.Tab, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue // deleted between scan and get
			}
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		tab, err := unmarshalTab(data)
		if err != nil {
			return nil, err
		}
		tabs = append(tabs, tab)
	}

	sort.Slice(tabs, func(i, j int) bool {
		return tabs[i].CreatedAt.After(tabs[j].CreatedAt)
	})
	return tabs, nil
}

// DeleteTab removes a tab. Deleting a missing tab is not an error.
func (r *Repo) DeleteTab(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.tabKey(id)); err != nil {
		return fmt.Errorf("delete tab %s: %w", id, err)
	}
	return nil
}

// SaveQuickNorm stores a pinned shortcut.
func (r *Repo) SaveQuickNorm(ctx context.Context, qn domws.QuickNorm) error {
	data, err := marshalQuickNorm(qn)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.quickKey(qn.ID), data); err != nil {
		return fmt.Errorf("save quick norm %s: %w", qn.ID, err)
	}
	return nil
}

// GetQuickNorm loads one quick norm by id.
func (r *Repo) GetQuickNorm(ctx context.Context, id string) (domws.QuickNorm, error) {
	data, err := r.store.Get(ctx, r.quickKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domws.QuickNorm{}, fmt.Errorf("%w: %s", domain.ErrQuickNormNotFound, id)
		}
		return domws.QuickNorm{}, fmt.Errorf("get quick norm %s: %w", id, err)
	}
	return unmarshalQuickNorm(data)
}

// ListQuickNorms loads every quick norm, pinned entries first, then by
// creation time.
func (r *Repo) ListQuickNorms(ctx context.Context) ([]domws.QuickNorm, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"quicknorm:*")
	if err != nil {
		return nil, fmt.Errorf("scan quick norms: %w", err)
	}

	norms := make([]domws.QuickNorm, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		qn, err := unmarshalQuickNorm(data)
		if err != nil {
			return nil, err
		}
		norms = append(norms, qn)
	}

	sort.Slice(norms, func(i, j int) bool {
		if norms[i].Pinned != norms[j].Pinned {
			return norms[i].Pinned
		}
		return norms[i].CreatedAt.Before(norms[j].CreatedAt)
	})
	return norms, nil
}

// DeleteQuickNorm removes a quick norm.
func (r *Repo) DeleteQuickNorm(ctx context.Context, id string) error {
	exists, err := r.store.Exists(ctx, r.quickKey(id))
	if err != nil {
		return fmt.Errorf("check quick norm %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrQuickNormNotFound, id)
	}
	if err := r.store.Del(ctx, r.quickKey(id)); err != nil {
		return fmt.Errorf("delete quick norm %s: %w", id, err)
	}
	return nil
}

// SaveDossier stores a dossier, overwriting any previous state.
func (r *Repo) SaveDossier(ctx context.Context, d domws.Dossier) error {
	data, err := marshalDossier(d)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.dossierKey(d.ID), data); err != nil {
		return fmt.Errorf("save dossier %s: %w", d.ID, err)
	}
	return nil
}

// GetDossier loads one dossier by id.
func (r *Repo) GetDossier(ctx context.Context, id string) (domws.Dossier, error) {
	data, err := r.store.Get(ctx, r.dossierKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domws.Dossier{}, fmt.Errorf("%w: %s", domain.ErrDossierNotFound, id)
		}
		return domws.Dossier{}, fmt.Errorf("get dossier %s: %w", id, err)
	}
	return unmarshalDossier(data)
}

// ListDossiers loads every dossier sorted by name.
func (r *Repo) ListDossiers(ctx context.Context) ([]domws.Dossier, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"dossier:*")
	if err != nil {
		return nil, fmt.Errorf("scan dossiers: %w", err)
	}

	dossiers := make([]domws.Dossier, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		d, err := unmarshalDossier(data)
		if err != nil {
			return nil, err
		}
		dossiers = append(dossiers, d)
	}

	sort.Slice(dossiers, func(i, j int) bool {
		return dossiers[i].Name < dossiers[j].Name
	})
	return dossiers, nil
}

// DeleteDossier removes a dossier.
func (r *Repo) DeleteDossier(ctx context.Context, id string) error {
	exists, err := r.store.Exists(ctx, r.dossierKey(id))
	if err != nil {
		return fmt.Errorf("check dossier %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrDossierNotFound, id)
	}
	if err := r.store.Del(ctx, r.dossierKey(id)); err != nil {
		return fmt.Errorf("delete dossier %s: %w", id, err)
	}
	return nil
}
