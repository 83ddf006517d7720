// Package aggregate routes per-article search results into workspace
// tabs, grouping them by norm identity.
package aggregate

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/capazme/lexspace/internal/domain"
	"github.com/capazme/lexspace/internal/domain/norma"
	"github.com/capazme/lexspace/internal/domain/workspace"
	"github.com/capazme/lexspace/internal/metrics"
)

// Aggregator owns the search generation counter. Starting a new search
// supersedes every session started before it; superseded sessions stop
// writing on their next result.
type Aggregator struct {
	tabs   TabStore
	logger *zap.Logger
	gen    atomic.Uint64
}

// New creates an aggregator over the given tab store.
func New(tabs TabStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{tabs: tabs, logger: logger}
}

// Session accumulates the results of one search. A session is owned by
// a single goroutine; cross-session interference is handled through the
// aggregator's generation counter alone.
type Session struct {
	agg    *Aggregator
	gen    uint64
	params norma.SearchParams

	// One search can fan out over several norms (the backend resolves
	// some citations to multiple acts), so tab targets are keyed by
	// norm identity rather than held in a single slot.
	targets map[string]string
	groups  map[string]*norma.Group
	order   []string
}

// StartSearch opens a new aggregation session and supersedes all
// previous ones.
func (a *Aggregator) StartSearch(params norma.SearchParams) *Session {
	return &Session{
		agg:     a,
		gen:     a.gen.Add(1),
		params:  params,
		targets: make(map[string]string),
		groups:  make(map[string]*norma.Group),
	}
}

// Superseded reports whether a newer search has started since this
// session was opened.
func (s *Session) Superseded() bool {
	return s.agg.gen.Load() != s.gen
}

// Process routes one search result into the workspace and returns the
// id of the tab it landed in. Unusable results are counted and dropped
// (empty tab id, nil error); the session keeps going. Returns
// domain.ErrStaleSearch once a newer search has superseded this one.
func (s *Session) Process(ctx context.Context, res norma.Result) (string, error) {
	if s.Superseded() {
		return "", domain.ErrStaleSearch
	}

	if res.Failed() {
		metrics.StreamLinesTotal.WithLabelValues("dropped").Inc()
		s.agg.logger.Debug("dropping failed result",
			zap.String("norma", res.Norma().Label()),
			zap.String("reason", res.FailureMessage()),
		)
		return "", nil
	}

	key := res.Norma().Key()
	if key == "" {
		metrics.StreamLinesTotal.WithLabelValues("dropped").Inc()
		s.agg.logger.Warn("dropping result with malformed norm identity")
		return "", nil
	}

	article := res.Article(s.params.VersionDate)

	tabID, ok := s.targets[key]
	if !ok {
		label := workspace.TabLabel(s.params.TabLabel, res.Norma(), s.params.VersionDate)
		id, err := s.agg.tabs.CreateTab(ctx, label, res.Norma(), s.params.VersionDate)
		if err != nil {
			return "", fmt.Errorf("create tab: %w", err)
		}
		tabID = id
		s.targets[key] = tabID
		s.order = append(s.order, key)
	}

	if err := s.agg.tabs.UpsertArticle(ctx, tabID, article); err != nil {
		return "", fmt.Errorf("upsert article: %w", err)
	}

	group, ok := s.groups[key]
	if !ok {
		group = norma.NewGroup(res.Norma(), s.params.VersionDate)
		s.groups[key] = group
	}
	group.Upsert(article)

	metrics.StreamLinesTotal.WithLabelValues("processed").Inc()
	return tabID, nil
}

// TabIDs returns the tabs touched by this session in first-seen order.
func (s *Session) TabIDs() []string {
	out := make([]string, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.targets[key])
	}
	return out
}

// TabID returns the tab created for a norm key during this session.
func (s *Session) TabID(normaKey string) (string, bool) {
	id, ok := s.targets[normaKey]
	return id, ok
}

// Groups returns the accumulated result groups in first-seen order.
func (s *Session) Groups() []*norma.Group {
	out := make([]*norma.Group, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.groups[key])
	}
	return out
}

// Articles returns the total number of distinct articles accumulated.
func (s *Session) Articles() int {
	n := 0
	for _, g := range s.groups {
		n += g.Len()
	}
	return n
}
