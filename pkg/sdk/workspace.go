package lexspace

import (
	"context"
	"time"

	domws "github.com/capazme/lexspace/internal/domain/workspace"
	workspaceuc "github.com/capazme/lexspace/internal/usecase/workspace"
)

// Tab is a workspace tab holding retrieved articles for one norm.
type Tab = domws.Tab

// QuickNorm is a pinned norm shortcut.
type QuickNorm = domws.QuickNorm

// Dossier is a named personal collection of norm references.
type Dossier = domws.Dossier

// DossierEntry is one saved reference inside a dossier.
type DossierEntry = domws.DossierEntry

// EnvironmentExport is a versioned export envelope.
type EnvironmentExport = domws.EnvironmentExport

// Envelope types accepted by Export and Import.
const (
	EnvelopeWorkspace  = domws.EnvelopeWorkspace
	EnvelopeDossiers   = domws.EnvelopeDossiers
	EnvelopeQuickNorms = domws.EnvelopeQuickNorms
)

// WorkspaceService manages tabs, quick norms and dossiers.
type WorkspaceService struct {
	svc *workspaceuc.Service
	obs *observer
}

// ListTabs returns all tabs, newest first.
func (w *WorkspaceService) ListTabs(ctx context.Context) (tabs []Tab, err error) {
	start := time.Now()
	defer func() { w.obs.observe("tabs_list", start, err) }()

	return w.svc.ListTabs(ctx)
}

// GetTab loads one tab with its articles.
func (w *WorkspaceService) GetTab(ctx context.Context, id string) (tab Tab, err error) {
	start := time.Now()
	defer func() { w.obs.observe("tabs_get", start, err) }()

	return w.svc.GetTab(ctx, id)
}

// RenameTab changes a tab's label.
func (w *WorkspaceService) RenameTab(ctx context.Context, id, label string) (err error) {
	start := time.Now()
	defer func() { w.obs.observe("tabs_rename", start, err) }()

	return w.svc.RenameTab(ctx, id, label)
}

// CloseTab removes a tab.
func (w *WorkspaceService) CloseTab(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { w.obs.observe("tabs_close", start, err) }()

	return w.svc.CloseTab(ctx, id)
}

// AddQuickNorm pins a norm shortcut. A label is generated from the
// citation when none is given.
func (w *WorkspaceService) AddQuickNorm(ctx context.Context, qn QuickNorm) (created QuickNorm, err error) {
	start := time.Now()
	defer func() { w.obs.observe("quicknorms_add", start, err) }()

	return w.svc.AddQuickNorm(ctx, qn)
}

// ListQuickNorms returns all quick norms, pinned first.
func (w *WorkspaceService) ListQuickNorms(ctx context.Context) (norms []QuickNorm, err error) {
	start := time.Now()
	defer func() { w.obs.observe("quicknorms_list", start, err) }()

	return w.svc.ListQuickNorms(ctx)
}

// TogglePin flips a quick norm's pinned flag.
func (w *WorkspaceService) TogglePin(ctx context.Context, id string) (qn QuickNorm, err error) {
	start := time.Now()
	defer func() { w.obs.observe("quicknorms_pin", start, err) }()

	return w.svc.TogglePin(ctx, id)
}

// DeleteQuickNorm removes a quick norm.
func (w *WorkspaceService) DeleteQuickNorm(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { w.obs.observe("quicknorms_delete", start, err) }()

	return w.svc.DeleteQuickNorm(ctx, id)
}

// CreateDossier creates an empty dossier.
func (w *WorkspaceService) CreateDossier(ctx context.Context, name, description string) (d Dossier, err error) {
	start := time.Now()
	defer func() { w.obs.observe("dossiers_create", start, err) }()

	return w.svc.CreateDossier(ctx, name, description)
}

// GetDossier loads one dossier.
func (w *WorkspaceService) GetDossier(ctx context.Context, id string) (d Dossier, err error) {
	start := time.Now()
	defer func() { w.obs.observe("dossiers_get", start, err) }()

	return w.svc.GetDossier(ctx, id)
}

// ListDossiers returns all dossiers by name.
func (w *WorkspaceService) ListDossiers(ctx context.Context) (dossiers []Dossier, err error) {
	start := time.Now()
	defer func() { w.obs.observe("dossiers_list", start, err) }()

	return w.svc.ListDossiers(ctx)
}

// DeleteDossier removes a dossier.
func (w *WorkspaceService) DeleteDossier(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { w.obs.observe("dossiers_delete", start, err) }()

	return w.svc.DeleteDossier(ctx, id)
}

// AddToDossier appends a norm reference to a dossier. An entry with
// the same norm key and article is replaced.
func (w *WorkspaceService) AddToDossier(ctx context.Context, dossierID string, entry DossierEntry) (d Dossier, err error) {
	start := time.Now()
	defer func() { w.obs.observe("dossiers_add_entry", start, err) }()

	return w.svc.AddToDossier(ctx, dossierID, entry)
}

// RemoveFromDossier drops the entry matching normaKey and article.
func (w *WorkspaceService) RemoveFromDossier(ctx context.Context, dossierID, normaKey, article string) (d Dossier, err error) {
	start := time.Now()
	defer func() { w.obs.observe("dossiers_remove_entry", start, err) }()

	return w.svc.RemoveFromDossier(ctx, dossierID, normaKey, article)
}

// Export wraps one slice of workspace state in a versioned envelope.
func (w *WorkspaceService) Export(ctx context.Context, envType string) (env EnvironmentExport, err error) {
	start := time.Now()
	defer func() { w.obs.observe("export", start, err) }()

	return w.svc.Export(ctx, envType)
}

// Import restores workspace state from an export envelope.
func (w *WorkspaceService) Import(ctx context.Context, env EnvironmentExport) (err error) {
	start := time.Now()
	defer func() { w.obs.observe("import", start, err) }()

	return w.svc.Import(ctx, env)
}
