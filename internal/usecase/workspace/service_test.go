package workspace

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/capazme/lexspace/internal/domain"
	"github.com/capazme/lexspace/internal/domain/norma"
	domws "github.com/capazme/lexspace/internal/domain/workspace"
)

// mockRepo is an in-memory workspace repository.
type mockRepo struct {
	tabs     map[string]domws.Tab
	quick    map[string]domws.QuickNorm
	dossiers map[string]domws.Dossier
	saveErr  error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		tabs:     make(map[string]domws.Tab),
		quick:    make(map[string]domws.QuickNorm),
		dossiers: make(map[string]domws.Dossier),
	}
}

func (m *mockRepo) SaveTab(_ context.Context, tab domws.Tab) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.tabs[tab.ID] = tab
	return nil
}

func (m *mockRepo) GetTab(_ context.Context, id string) (domws.Tab, error) {
	tab, ok := m.tabs[id]
	if !ok {
		return domws.Tab{}, fmt.Errorf("%w: %s", domain.ErrTabNotFound, id)
	}
	return tab, nil
}

func (m *mockRepo) ListTabs(_ context.Context) ([]domws.Tab, error) {
	out := make([]domws.Tab, 0, len(m.tabs))
	for _, tab := range m.tabs {
		out = append(out, tab)
	}
	return out, nil
}

func (m *mockRepo) DeleteTab(_ context.Context, id string) error {
	delete(m.tabs, id)
	return nil
}

func (m *mockRepo) SaveQuickNorm(_ context.Context, qn domws.QuickNorm) error {
	m.quick[qn.ID] = qn
	return nil
}

func (m *mockRepo) GetQuickNorm(_ context.Context, id string) (domws.QuickNorm, error) {
	qn, ok := m.quick[id]
	if !ok {
		return domws.QuickNorm{}, fmt.Errorf("%w: %s", domain.ErrQuickNormNotFound, id)
	}
	return qn, nil
}

func (m *mockRepo) ListQuickNorms(_ context.Context) ([]domws.QuickNorm, error) {
	out := make([]domws.QuickNorm, 0, len(m.quick))
	for _, qn := range m.quick {
		out = append(out, qn)
	}
	return out, nil
}

func (m *mockRepo) DeleteQuickNorm(_ context.Context, id string) error {
	if _, ok := m.quick[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrQuickNormNotFound, id)
	}
	delete(m.quick, id)
	return nil
}

func (m *mockRepo) SaveDossier(_ context.Context, d domws.Dossier) error {
	m.dossiers[d.ID] = d
	return nil
}

func (m *mockRepo) GetDossier(_ context.Context, id string) (domws.Dossier, error) {
	d, ok := m.dossiers[id]
	if !ok {
		return domws.Dossier{}, fmt.Errorf("%w: %s", domain.ErrDossierNotFound, id)
	}
	return d, nil
}

func (m *mockRepo) ListDossiers(_ context.Context) ([]domws.Dossier, error) {
	out := make([]domws.Dossier, 0, len(m.dossiers))
	for _, d := range m.dossiers {
		out = append(out, d)
	}
	return out, nil
}

func (m *mockRepo) DeleteDossier(_ context.Context, id string) error {
	if _, ok := m.dossiers[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrDossierNotFound, id)
	}
	delete(m.dossiers, id)
	return nil
}

func newTestService(repo *mockRepo) *Service {
	s := New(repo)
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	s.now = func() time.Time {
		return time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	}
	return s
}

var legge241 = norma.Norma{TipoAtto: "legge", NumeroAtto: "241", Data: "1990-08-07"}

func TestCreateTab_ReusesLiveTabForSameNorm(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.CreateTab(ctx, "Legge 241", legge241, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.CreateTab(ctx, "Legge 241", legge241, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first != second {
		t.Errorf("expected live tab reuse, got %s and %s", first, second)
	}
	if len(repo.tabs) != 1 {
		t.Errorf("expected 1 stored tab, got %d", len(repo.tabs))
	}
}

func TestCreateTab_HistoricalNeverMergesIntoLiveTab(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	live, err := svc.CreateTab(ctx, "Legge 241", legge241, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	historical, err := svc.CreateTab(ctx, "Legge 241 - Ver. 2020-01-01", legge241, "2020-01-01")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if live == historical {
		t.Fatal("historical results must not merge into the live tab")
	}
	if !repo.tabs[historical].Historical {
		t.Error("expected historical flag on the point-in-time tab")
	}
	if repo.tabs[live].Historical {
		t.Error("live tab must stay non-historical")
	}
}

func TestCreateTab_MalformedNorm(t *testing.T) {
	svc := newTestService(newMockRepo())

	_, err := svc.CreateTab(context.Background(), "x", norma.Norma{}, "")
	if !errors.Is(err, domain.ErrMalformedNorma) {
		t.Fatalf("expected ErrMalformedNorma, got %v", err)
	}
}

func TestUpsertArticle_ReplacesByNumber(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	id, _ := svc.CreateTab(ctx, "Legge 241", legge241, "")
	svc.UpsertArticle(ctx, id, norma.Article{Numero: "1", Testo: "vecchio"})
	svc.UpsertArticle(ctx, id, norma.Article{Numero: "2", Testo: "altro"})
	if err := svc.UpsertArticle(ctx, id, norma.Article{Numero: "1", Testo: "nuovo"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	tab := repo.tabs[id]
	if len(tab.Articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(tab.Articles))
	}
	if tab.Articles[0].Testo != "nuovo" {
		t.Errorf("expected latest text to win, got %q", tab.Articles[0].Testo)
	}
}

func TestRenameTab(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	id, _ := svc.CreateTab(ctx, "Legge 241", legge241, "")
	if err := svc.RenameTab(ctx, id, "Procedimento amministrativo"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if repo.tabs[id].Label != "Procedimento amministrativo" {
		t.Errorf("unexpected label %q", repo.tabs[id].Label)
	}

	if err := svc.RenameTab(ctx, id, "  "); !errors.Is(err, domain.ErrInvalidSearch) {
		t.Fatalf("expected ErrInvalidSearch for blank label, got %v", err)
	}
}

func TestCloseTab_Missing(t *testing.T) {
	svc := newTestService(newMockRepo())
	if err := svc.CloseTab(context.Background(), "nope"); !errors.Is(err, domain.ErrTabNotFound) {
		t.Fatalf("expected ErrTabNotFound, got %v", err)
	}
}

func TestRemoveTabs(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	a, _ := svc.CreateTab(ctx, "A", legge241, "")
	b, _ := svc.CreateTab(ctx, "B", legge241, "2020-01-01")

	if err := svc.RemoveTabs(ctx, []string{a, b, "already-gone"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(repo.tabs) != 0 {
		t.Errorf("expected empty tab set, got %d", len(repo.tabs))
	}
}

func TestAddQuickNorm_DefaultLabel(t *testing.T) {
	svc := newTestService(newMockRepo())

	qn, err := svc.AddQuickNorm(context.Background(), domws.QuickNorm{
		ActType: "legge", ActNumber: "241", Article: "7",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if qn.Label != "legge 241 art. 7" {
		t.Errorf("unexpected default label %q", qn.Label)
	}
	if qn.ID == "" || qn.CreatedAt.IsZero() {
		t.Error("expected generated id and timestamp")
	}

	_, err = svc.AddQuickNorm(context.Background(), domws.QuickNorm{Article: "7"})
	if !errors.Is(err, domain.ErrInvalidSearch) {
		t.Fatalf("expected ErrInvalidSearch without act type, got %v", err)
	}
}

func TestTogglePin(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	qn, _ := svc.AddQuickNorm(ctx, domws.QuickNorm{ActType: "costituzione", Article: "21"})

	toggled, err := svc.TogglePin(ctx, qn.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Pinned {
		t.Error("expected pinned after first toggle")
	}
	toggled, _ = svc.TogglePin(ctx, qn.ID)
	if toggled.Pinned {
		t.Error("expected unpinned after second toggle")
	}
}

func TestDossier_AddReplacesDuplicateEntry(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	d, err := svc.CreateDossier(ctx, "Ambiente", "normativa ambientale")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	key := legge241.Key()
	svc.AddToDossier(ctx, d.ID, domws.DossierEntry{NormaKey: key, Article: "1", Note: "prima"})
	got, err := svc.AddToDossier(ctx, d.ID, domws.DossierEntry{NormaKey: key, Article: "1", Note: "seconda"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got.Entries))
	}
	if got.Entries[0].Note != "seconda" {
		t.Errorf("expected latest note to win, got %q", got.Entries[0].Note)
	}

	got, err = svc.RemoveFromDossier(ctx, d.ID, key, "1")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(got.Entries) != 0 {
		t.Errorf("expected empty dossier, got %d entries", len(got.Entries))
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	id, _ := svc.CreateTab(ctx, "Legge 241", legge241, "")
	svc.UpsertArticle(ctx, id, norma.Article{Numero: "1", Testo: "testo"})

	env, err := svc.Export(ctx, domws.EnvelopeWorkspace)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if env.Type != domws.EnvelopeWorkspace || env.Version != domws.EnvelopeVersion {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	fresh := newMockRepo()
	svc2 := newTestService(fresh)
	if err := svc2.Import(ctx, env); err != nil {
		t.Fatalf("import: %v", err)
	}
	tab, err := svc2.GetTab(ctx, id)
	if err != nil {
		t.Fatalf("get after import: %v", err)
	}
	if len(tab.Articles) != 1 || tab.Articles[0].Testo != "testo" {
		t.Errorf("tab content lost in round trip: %+v", tab)
	}
}

func TestExport_UnknownType(t *testing.T) {
	svc := newTestService(newMockRepo())
	if _, err := svc.Export(context.Background(), "annotations"); !errors.Is(err, domain.ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
}

func TestImport_RejectsBadEnvelope(t *testing.T) {
	svc := newTestService(newMockRepo())

	err := svc.Import(context.Background(), domws.EnvironmentExport{
		Version: 99, Type: domws.EnvelopeWorkspace, Data: []byte("[]"),
	})
	if !errors.Is(err, domain.ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
}
