package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/capazme/lexspace/internal/domain"
	"github.com/capazme/lexspace/internal/domain/norma"
	"github.com/capazme/lexspace/internal/usecase/aggregate"
	"github.com/capazme/lexspace/internal/usecase/annexswitch"
)

type tabStore struct {
	tabs    map[string][]norma.Article
	created int
}

func newTabStore() *tabStore {
	return &tabStore{tabs: make(map[string][]norma.Article)}
}

func (s *tabStore) CreateTab(_ context.Context, _ string, _ norma.Norma, _ string) (string, error) {
	s.created++
	id := fmt.Sprintf("tab-%d", s.created)
	s.tabs[id] = nil
	return id, nil
}

func (s *tabStore) UpsertArticle(_ context.Context, tabID string, a norma.Article) error {
	s.tabs[tabID] = norma.UpsertArticle(s.tabs[tabID], a)
	return nil
}

type streamItem struct {
	res norma.Result
	err error
}

type fakeStream struct {
	items  []streamItem
	closed bool
}

func (f *fakeStream) Next() (norma.Result, error) {
	if len(f.items) == 0 {
		return norma.Result{}, io.EOF
	}
	item := f.items[0]
	f.items = f.items[1:]
	return item.res, item.err
}

func (f *fakeStream) Close() error {
	f.closed = true
	return nil
}

type mockBackend struct {
	results   []norma.Result
	fetchErr  error
	stream    *fakeStream
	streamErr error
	refs      []norma.Ref
	doc       norma.Document
	pdf       []byte
	fetched   []norma.SearchParams
}

func (m *mockBackend) FetchAllData(_ context.Context, p norma.SearchParams) ([]norma.Result, error) {
	m.fetched = append(m.fetched, p)
	return m.results, m.fetchErr
}

func (m *mockBackend) FetchArticleText(_ context.Context, p norma.SearchParams) ([]norma.Result, error) {
	m.fetched = append(m.fetched, p)
	return m.results, m.fetchErr
}

func (m *mockBackend) StreamArticleText(_ context.Context, p norma.SearchParams) (ResultStream, error) {
	m.fetched = append(m.fetched, p)
	if m.streamErr != nil {
		return nil, m.streamErr
	}
	return m.stream, nil
}

func (m *mockBackend) FetchNormaData(context.Context, norma.Lookup) ([]norma.Ref, error) {
	return m.refs, nil
}

func (m *mockBackend) FetchTree(context.Context, string, bool, bool) (norma.Document, error) {
	return m.doc, nil
}

func (m *mockBackend) ExportPDF(context.Context, string) ([]byte, error) {
	return m.pdf, nil
}

type mockDetector struct {
	decision annexswitch.Decision
	params   []norma.SearchParams
	tabIDs   [][]string
}

func (m *mockDetector) Register(_ context.Context, p norma.SearchParams, ids []string) annexswitch.Decision {
	m.params = append(m.params, p)
	m.tabIDs = append(m.tabIDs, ids)
	return m.decision
}

func mustResult(t *testing.T, tipo, numero, data, articolo, testo string) norma.Result {
	t.Helper()
	raw := fmt.Sprintf(
		`{"norma_data":{"tipo_atto":%q,"numero_atto":%q,"data":%q,"numero_articolo":%q},"article_text":%q}`,
		tipo, numero, data, articolo, testo,
	)
	res, err := norma.ParseResult([]byte(raw))
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}
	return res
}

func newTestService(backend *mockBackend, detector Detector) (*Service, *tabStore) {
	store := newTabStore()
	svc := New(backend, aggregate.New(store, nil), nil)
	if detector != nil {
		svc.SetDetector(detector)
	}
	return svc, store
}

func TestSearch_InvalidParams(t *testing.T) {
	backend := &mockBackend{}
	svc, _ := newTestService(backend, nil)

	_, err := svc.Search(context.Background(), norma.SearchParams{Article: "1"})
	if !errors.Is(err, domain.ErrInvalidSearch) {
		t.Fatalf("expected ErrInvalidSearch, got %v", err)
	}
	if len(backend.fetched) != 0 {
		t.Error("invalid params must not reach the backend")
	}
}

func TestSearch_GroupsByNorm(t *testing.T) {
	backend := &mockBackend{results: []norma.Result{
		mustResult(t, "legge", "241", "1990-08-07", "2", "b"),
		mustResult(t, "legge", "241", "1990-08-07", "1", "a"),
		mustResult(t, "legge", "689", "1981-11-24", "1", "c"),
	}}
	detector := &mockDetector{decision: annexswitch.Decision{Outcome: annexswitch.OutcomeNoAction}}
	svc, store := newTestService(backend, detector)

	resp, err := svc.Search(context.Background(), norma.SearchParams{ActType: "legge", Article: "1-2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 norm groups, got %d", len(resp.Results))
	}
	first := resp.Results[0]
	if first.Norma.NumeroAtto != "241" {
		t.Errorf("expected first-seen norm first, got %q", first.Norma.NumeroAtto)
	}
	if len(first.Articles) != 2 || first.Articles[0].Numero != "1" {
		t.Errorf("expected sorted articles, got %+v", first.Articles)
	}
	if first.TabID == "" {
		t.Error("expected a tab id on the group")
	}
	if store.created != 2 {
		t.Errorf("expected 2 tabs, got %d", store.created)
	}

	if len(detector.tabIDs) != 1 || len(detector.tabIDs[0]) != 2 {
		t.Errorf("expected detector registered with 2 tab ids, got %+v", detector.tabIDs)
	}
	if resp.AnnexSwitch == nil || resp.AnnexSwitch.Outcome != annexswitch.OutcomeNoAction {
		t.Errorf("expected no-action decision in response, got %+v", resp.AnnexSwitch)
	}
}

func TestSearch_SkippedDecisionIsOmitted(t *testing.T) {
	backend := &mockBackend{results: []norma.Result{
		mustResult(t, "legge", "241", "1990-08-07", "1", "a"),
	}}
	detector := &mockDetector{decision: annexswitch.Decision{Outcome: annexswitch.OutcomeSkipped}}
	svc, _ := newTestService(backend, detector)

	resp, err := svc.Search(context.Background(), norma.SearchParams{ActType: "legge", Article: "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AnnexSwitch != nil {
		t.Errorf("skipped decision must not appear in the response, got %+v", resp.AnnexSwitch)
	}
}

func TestSearch_BackendErrorPropagates(t *testing.T) {
	backend := &mockBackend{fetchErr: fmt.Errorf("boom: %w", domain.ErrBackendUnavailable)}
	svc, _ := newTestService(backend, nil)

	_, err := svc.Search(context.Background(), norma.SearchParams{ActType: "legge", Article: "1"})
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestSearchStream_EmitsResultsAndSummary(t *testing.T) {
	lineErr := fmt.Errorf("%w: bad line", domain.ErrLineDecode)
	backend := &mockBackend{stream: &fakeStream{items: []streamItem{
		{res: mustResult(t, "legge", "241", "1990-08-07", "1", "a")},
		{err: lineErr},
		{res: mustResult(t, "legge", "241", "1990-08-07", "2", "b")},
	}}}
	detector := &mockDetector{decision: annexswitch.Decision{Outcome: annexswitch.OutcomeNoAction}}
	svc, _ := newTestService(backend, detector)

	var events []Event
	err := svc.SearchStream(context.Background(), norma.SearchParams{ActType: "legge", Article: "1-2"}, func(e Event) error {
		events = append(events, e)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %+v", len(events), events)
	}
	if events[0].Type != "result" || events[0].Article.Numero != "1" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Type != "dropped" {
		t.Errorf("expected dropped event second, got %+v", events[1])
	}
	if events[2].Type != "result" || events[2].TabID != events[0].TabID {
		t.Errorf("expected same tab for same norm, got %+v", events[2])
	}
	done := events[3]
	if done.Type != "done" || done.Processed != 2 || done.Dropped != 1 {
		t.Errorf("unexpected done event: %+v", done)
	}
	if done.AnnexSwitch == nil {
		t.Error("expected annex switch decision in done event")
	}
	if !backend.stream.closed {
		t.Error("stream must be closed")
	}
}

func TestSearchStream_EmitErrorAborts(t *testing.T) {
	backend := &mockBackend{stream: &fakeStream{items: []streamItem{
		{res: mustResult(t, "legge", "241", "1990-08-07", "1", "a")},
		{res: mustResult(t, "legge", "241", "1990-08-07", "2", "b")},
	}}}
	svc, _ := newTestService(backend, nil)

	clientGone := errors.New("client gone")
	err := svc.SearchStream(context.Background(), norma.SearchParams{ActType: "legge", Article: "1-2"}, func(Event) error {
		return clientGone
	})
	if !errors.Is(err, clientGone) {
		t.Fatalf("expected emit error, got %v", err)
	}
	if !backend.stream.closed {
		t.Error("stream must be closed on abort")
	}
}

func TestRun_ReissuesSearch(t *testing.T) {
	backend := &mockBackend{results: []norma.Result{
		mustResult(t, "legge", "241", "1990-08-07", "5", "a"),
	}}
	svc, _ := newTestService(backend, nil)

	p := norma.SearchParams{ActType: "legge", Article: "5", Annex: "1"}
	if err := svc.Run(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backend.fetched) != 1 || backend.fetched[0].Annex != "1" {
		t.Errorf("expected annex-qualified fetch, got %+v", backend.fetched)
	}
}

func TestResolve_ValidatesLookup(t *testing.T) {
	svc, _ := newTestService(&mockBackend{}, nil)

	_, err := svc.Resolve(context.Background(), norma.Lookup{Article: "1"})
	if !errors.Is(err, domain.ErrInvalidSearch) {
		t.Fatalf("expected ErrInvalidSearch, got %v", err)
	}
}

func TestTree_RequiresURN(t *testing.T) {
	svc, _ := newTestService(&mockBackend{}, nil)

	_, err := svc.Tree(context.Background(), "", false, false)
	if !errors.Is(err, domain.ErrInvalidSearch) {
		t.Fatalf("expected ErrInvalidSearch, got %v", err)
	}
}

func TestExportPDF_RequiresURN(t *testing.T) {
	svc, _ := newTestService(&mockBackend{}, nil)

	_, err := svc.ExportPDF(context.Background(), "")
	if !errors.Is(err, domain.ErrInvalidSearch) {
		t.Fatalf("expected ErrInvalidSearch, got %v", err)
	}
}
