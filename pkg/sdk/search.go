package lexspace

import (
	"context"
	"time"

	"github.com/capazme/lexspace/internal/domain/norma"
	annexswitchuc "github.com/capazme/lexspace/internal/usecase/annexswitch"
	searchuc "github.com/capazme/lexspace/internal/usecase/search"
)

// Event is one unit of a streaming search: a routed result, a dropped
// line or the final summary.
type Event = searchuc.Event

// Response is the outcome of a batch search, grouped by norm.
type Response = searchuc.Response

// Decision is the annex switch detector's verdict for a search.
type Decision = annexswitchuc.Decision

// SearchService runs norm searches and annex switch confirmations.
type SearchService struct {
	svc      *searchuc.Service
	detector *annexswitchuc.Detector
	obs      *observer
}

// Run fetches every requested article in one backend call and routes
// the results into workspace tabs.
func (s *SearchService) Run(ctx context.Context, p norma.SearchParams) (resp Response, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search", start, err) }()

	return s.svc.Search(ctx, p)
}

// Stream fetches articles incrementally, invoking emit for every event
// as the backend produces lines. Recoverable line failures surface as
// dropped events; emit returning an error aborts the stream.
func (s *SearchService) Stream(ctx context.Context, p norma.SearchParams, emit func(Event) error) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("search_stream", start, err) }()

	return s.svc.SearchStream(ctx, p, emit)
}

// Resolve finds the canonical references (URN, Normattiva URL) for a
// norm citation.
func (s *SearchService) Resolve(ctx context.Context, lookup norma.Lookup) (refs []norma.Ref, err error) {
	start := time.Now()
	defer func() { s.obs.observe("resolve", start, err) }()

	return s.svc.Resolve(ctx, lookup)
}

// Tree fetches the article outline of an act by URN.
func (s *SearchService) Tree(ctx context.Context, urn string, withDetails, withMetadata bool) (doc norma.Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("tree", start, err) }()

	return s.svc.Tree(ctx, urn, withDetails, withMetadata)
}

// ExportPDF downloads the official PDF rendition of an act by URN.
func (s *SearchService) ExportPDF(ctx context.Context, urn string) (pdf []byte, err error) {
	start := time.Now()
	defer func() { s.obs.observe("export_pdf", start, err) }()

	return s.svc.ExportPDF(ctx, urn)
}

// ConfirmAnnexSwitch accepts a pending annex switch dialog and reruns
// the search against the annex.
func (s *SearchService) ConfirmAnnexSwitch(ctx context.Context, pendingID string) (d Decision, err error) {
	start := time.Now()
	defer func() { s.obs.observe("annex_confirm", start, err) }()

	return s.detector.Confirm(ctx, pendingID)
}

// CancelAnnexSwitch dismisses a pending annex switch dialog. The norm
// will not be prompted again this session.
func (s *SearchService) CancelAnnexSwitch(pendingID string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("annex_cancel", start, err) }()

	return s.detector.Cancel(pendingID)
}
