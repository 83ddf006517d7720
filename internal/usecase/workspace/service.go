// Package workspace manages the user's persistent research state: tabs
// of retrieved articles, pinned quick norms and dossiers.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/capazme/lexspace/internal/domain"
	"github.com/capazme/lexspace/internal/domain/norma"
	domws "github.com/capazme/lexspace/internal/domain/workspace"
)

// Service implements workspace operations over a repository. It also
// serves as the tab store for the result aggregator and the tab janitor
// for the annex switch detector.
type Service struct {
	repo  Repository
	now   func() time.Time
	newID func() string
}

// New creates a workspace service.
func New(repo Repository) *Service {
	return &Service{
		repo:  repo,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// CreateTab opens a tab for a norm, or reuses the existing tab with the
// same identity and temporal variant. Point-in-time results never land
// in a live tab and vice versa.
func (s *Service) CreateTab(ctx context.Context, label string, n norma.Norma, versionDate string) (string, error) {
	key := n.Key()
	if key == "" {
		return "", fmt.Errorf("%w: empty act type", domain.ErrMalformedNorma)
	}

	existing, err := s.repo.ListTabs(ctx)
	if err != nil {
		return "", fmt.Errorf("list tabs: %w", err)
	}
	for _, tab := range existing {
		if tab.NormaKey == key && tab.VersionDate == versionDate {
			return tab.ID, nil
		}
	}

	now := s.now()
	tab := domws.Tab{
		ID:          s.newID(),
		Label:       label,
		Norma:       n,
		NormaKey:    key,
		Historical:  versionDate != "",
		VersionDate: versionDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.SaveTab(ctx, tab); err != nil {
		return "", err
	}
	return tab.ID, nil
}

// UpsertArticle adds or replaces one article in a tab.
func (s *Service) UpsertArticle(ctx context.Context, tabID string, a norma.Article) error {
	tab, err := s.repo.GetTab(ctx, tabID)
	if err != nil {
		return err
	}
	tab.UpsertArticle(a)
	tab.UpdatedAt = s.now()
	return s.repo.SaveTab(ctx, tab)
}

// GetTab loads one tab.
func (s *Service) GetTab(ctx context.Context, id string) (domws.Tab, error) {
	return s.repo.GetTab(ctx, id)
}

// ListTabs returns all tabs, newest first.
func (s *Service) ListTabs(ctx context.Context) ([]domws.Tab, error) {
	return s.repo.ListTabs(ctx)
}

// RenameTab changes a tab's label.
func (s *Service) RenameTab(ctx context.Context, id, label string) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("%w: empty label", domain.ErrInvalidSearch)
	}
	tab, err := s.repo.GetTab(ctx, id)
	if err != nil {
		return err
	}
	tab.Label = label
	tab.UpdatedAt = s.now()
	return s.repo.SaveTab(ctx, tab)
}

// CloseTab removes a tab.
func (s *Service) CloseTab(ctx context.Context, id string) error {
	if _, err := s.repo.GetTab(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteTab(ctx, id)
}

// RemoveTabs removes tabs left behind by a redirected search. Missing
// tabs are ignored.
func (s *Service) RemoveTabs(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := s.repo.DeleteTab(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// AddQuickNorm pins a norm shortcut.
func (s *Service) AddQuickNorm(ctx context.Context, qn domws.QuickNorm) (domws.QuickNorm, error) {
	if strings.TrimSpace(qn.ActType) == "" {
		return domws.QuickNorm{}, fmt.Errorf("%w: act_type is required", domain.ErrInvalidSearch)
	}
	qn.ID = s.newID()
	qn.CreatedAt = s.now()
	if qn.Label == "" {
		n := norma.Norma{TipoAtto: qn.ActType, NumeroAtto: qn.ActNumber, Data: qn.Date}
		qn.Label = n.Label()
		if qn.Article != "" {
			qn.Label += " art. " + qn.Article
		}
	}
	if err := s.repo.SaveQuickNorm(ctx, qn); err != nil {
		return domws.QuickNorm{}, err
	}
	return qn, nil
}

// ListQuickNorms returns all quick norms, pinned first.
func (s *Service) ListQuickNorms(ctx context.Context) ([]domws.QuickNorm, error) {
	return s.repo.ListQuickNorms(ctx)
}

// TogglePin flips a quick norm's pinned flag.
func (s *Service) TogglePin(ctx context.Context, id string) (domws.QuickNorm, error) {
	qn, err := s.repo.GetQuickNorm(ctx, id)
	if err != nil {
		return domws.QuickNorm{}, err
	}
	qn.Pinned = !qn.Pinned
	if err := s.repo.SaveQuickNorm(ctx, qn); err != nil {
		return domws.QuickNorm{}, err
	}
	return qn, nil
}

// DeleteQuickNorm removes a quick norm.
func (s *Service) DeleteQuickNorm(ctx context.Context, id string) error {
	return s.repo.DeleteQuickNorm(ctx, id)
}

// CreateDossier creates an empty dossier.
func (s *Service) CreateDossier(ctx context.Context, name, description string) (domws.Dossier, error) {
	if strings.TrimSpace(name) == "" {
		return domws.Dossier{}, fmt.Errorf("%w: empty dossier name", domain.ErrInvalidSearch)
	}
	now := s.now()
	d := domws.Dossier{
		ID:          s.newID(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.SaveDossier(ctx, d); err != nil {
		return domws.Dossier{}, err
	}
	return d, nil
}

// AddToDossier appends a norm reference to a dossier. An entry with the
// same norm key and article is replaced.
func (s *Service) AddToDossier(ctx context.Context, dossierID string, entry domws.DossierEntry) (domws.Dossier, error) {
	d, err := s.repo.GetDossier(ctx, dossierID)
	if err != nil {
		return domws.Dossier{}, err
	}
	entry.AddedAt = s.now()

	replaced := false
	for i, e := range d.Entries {
		if e.NormaKey == entry.NormaKey && e.Article == entry.Article {
			d.Entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		d.Entries = append(d.Entries, entry)
	}
	d.UpdatedAt = s.now()

	if err := s.repo.SaveDossier(ctx, d); err != nil {
		return domws.Dossier{}, err
	}
	return d, nil
}

// RemoveFromDossier drops the entry matching normaKey and article.
func (s *Service) RemoveFromDossier(ctx context.Context, dossierID, normaKey, article string) (domws.Dossier, error) {
	d, err := s.repo.GetDossier(ctx, dossierID)
	if err != nil {
		return domws.Dossier{}, err
	}

	kept := d.Entries[:0]
	for _, e := range d.Entries {
		if e.NormaKey == normaKey && e.Article == article {
			continue
		}
		kept = append(kept, e)
	}
	d.Entries = kept
	d.UpdatedAt = s.now()

	if err := s.repo.SaveDossier(ctx, d); err != nil {
		return domws.Dossier{}, err
	}
	return d, nil
}

// GetDossier loads one dossier.
func (s *Service) GetDossier(ctx context.Context, id string) (domws.Dossier, error) {
	return s.repo.GetDossier(ctx, id)
}

// ListDossiers returns all dossiers by name.
func (s *Service) ListDossiers(ctx context.Context) ([]domws.Dossier, error) {
	return s.repo.ListDossiers(ctx)
}

// DeleteDossier removes a dossier.
func (s *Service) DeleteDossier(ctx context.Context, id string) error {
	return s.repo.DeleteDossier(ctx, id)
}

// Export wraps one slice of workspace state in a versioned envelope.
func (s *Service) Export(ctx context.Context, envType string) (domws.EnvironmentExport, error) {
	var data any
	var err error
	switch envType {
	case domws.EnvelopeWorkspace:
		data, err = s.repo.ListTabs(ctx)
	case domws.EnvelopeDossiers:
		data, err = s.repo.ListDossiers(ctx)
	case domws.EnvelopeQuickNorms:
		data, err = s.repo.ListQuickNorms(ctx)
	default:
		return domws.EnvironmentExport{}, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidEnvelope, envType)
	}
	if err != nil {
		return domws.EnvironmentExport{}, err
	}
	return domws.NewEnvelope(envType, data)
}

// Import restores workspace state from an export envelope. Imported
// items keep their ids and overwrite existing ones.
func (s *Service) Import(ctx context.Context, env domws.EnvironmentExport) error {
	if err := env.Validate(); err != nil {
		return err
	}

	switch env.Type {
	case domws.EnvelopeWorkspace:
		var tabs []domws.Tab
		if err := json.Unmarshal(env.Data, &tabs); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidEnvelope, err)
		}
		for _, tab := range tabs {
			if err := s.repo.SaveTab(ctx, tab); err != nil {
				return err
			}
		}
	case domws.EnvelopeDossiers:
		var dossiers []domws.Dossier
		if err := json.Unmarshal(env.Data, &dossiers); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidEnvelope, err)
		}
		for _, d := range dossiers {
			if err := s.repo.SaveDossier(ctx, d); err != nil {
				return err
			}
		}
	case domws.EnvelopeQuickNorms:
		var norms []domws.QuickNorm
		if err := json.Unmarshal(env.Data, &norms); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidEnvelope, err)
		}
		for _, qn := range norms {
			if err := s.repo.SaveQuickNorm(ctx, qn); err != nil {
				return err
			}
		}
	}
	return nil
}
