// Package annexswitch decides, after a search completes, whether the
// requested articles actually live in a named annex of the document
// rather than the main body, and redirects the search there.
package annexswitch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capazme/lexspace/internal/config"
	"github.com/capazme/lexspace/internal/domain"
	"github.com/capazme/lexspace/internal/domain/norma"
	"github.com/capazme/lexspace/internal/metrics"
)

// Outcome classifies the detector's verdict on one registered search.
type Outcome string

const (
	// OutcomeSkipped means the check never ran: detector disabled,
	// annex explicitly selected, or this norm already checked.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeNoAction means the check ran and found nothing to switch.
	OutcomeNoAction Outcome = "no_action"
	// OutcomeRedirected means the search was re-issued against the
	// detected annex.
	OutcomeRedirected Outcome = "redirected"
	// OutcomeConfirmPending means a candidate annex was found and the
	// client must confirm or cancel the switch.
	OutcomeConfirmPending Outcome = "confirm_pending"
)

// Decision is the detector's answer for one registered search.
type Decision struct {
	Outcome         Outcome      `json:"outcome"`
	Annex           *norma.Annex `json:"annex,omitempty"`
	PendingID       string       `json:"pending_id,omitempty"`
	ToastDurationMS int          `json:"toast_duration_ms,omitempty"`
}

type pendingSwitch struct {
	params norma.SearchParams
	annex  norma.Annex
	tabIDs []string
}

// Detector runs the annex auto-switch check. Each distinct search is
// checked at most once per process lifetime so re-registrations of the
// same search never re-prompt; a new search on the same norm with a
// different article spec or version date is checked again.
type Detector struct {
	cfg     config.AnnexSwitchConfig
	lister  AnnexLister
	runner  SearchRunner
	janitor TabJanitor
	logger  *zap.Logger

	mu      sync.Mutex
	checked map[string]struct{}
	pending map[string]pendingSwitch
}

// New creates a detector.
func New(cfg config.AnnexSwitchConfig, lister AnnexLister, runner SearchRunner, janitor TabJanitor, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		cfg:     cfg,
		lister:  lister,
		runner:  runner,
		janitor: janitor,
		logger:  logger,
		checked: make(map[string]struct{}),
		pending: make(map[string]pendingSwitch),
	}
}

// Register runs the auto-switch check for a completed search. tabIDs are
// the tabs the search created; they are removed when the search is
// redirected. Detection failures never surface as errors: the original
// result set always stands.
func (d *Detector) Register(ctx context.Context, params norma.SearchParams, tabIDs []string) Decision {
	decision := d.register(ctx, params, tabIDs)
	metrics.AnnexSwitchTotal.WithLabelValues(string(decision.Outcome)).Inc()
	return decision
}

func (d *Detector) register(ctx context.Context, params norma.SearchParams, tabIDs []string) Decision {
	if !d.cfg.EnabledOrDefault() {
		return Decision{Outcome: OutcomeSkipped}
	}
	// Manual annex selection always wins.
	if params.Annex != "" {
		return Decision{Outcome: OutcomeSkipped}
	}
	key := params.Identity()
	if key == "" {
		return Decision{Outcome: OutcomeSkipped}
	}

	d.mu.Lock()
	check := searchKey(params)
	if _, done := d.checked[check]; done {
		d.mu.Unlock()
		return Decision{Outcome: OutcomeSkipped}
	}
	// Marked before the fetch so a failing check is never retried.
	d.checked[check] = struct{}{}
	d.mu.Unlock()

	annexes, err := d.lister.FetchAnnexes(ctx, params.Norma())
	if err != nil {
		d.logger.Warn("annex metadata fetch failed, skipping auto-switch",
			zap.String("norma", key), zap.Error(err))
		return Decision{Outcome: OutcomeNoAction}
	}

	if len(annexes) < 2 {
		return Decision{Outcome: OutcomeNoAction}
	}
	mainText, ok := norma.MainText(annexes)
	if !ok {
		return Decision{Outcome: OutcomeNoAction}
	}

	requested, err := norma.ParseArticleSpec(params.Article)
	if err != nil {
		d.logger.Warn("unparseable article spec during auto-switch",
			zap.String("article", params.Article), zap.Error(err))
		return Decision{Outcome: OutcomeNoAction}
	}

	if mainText.ContainsAny(requested) && mainText.ArticleCount > d.cfg.MaxMainArticles {
		return Decision{Outcome: OutcomeNoAction}
	}

	target, found := d.findTarget(annexes, requested)
	if !found {
		return Decision{Outcome: OutcomeNoAction}
	}

	// A large main body is authoritative even when an annex matches.
	if mainText.ArticleCount > d.cfg.MaxMainArticles {
		return Decision{Outcome: OutcomeNoAction}
	}

	if d.cfg.AutoConfirm {
		if err := d.redirect(ctx, params, target, tabIDs); err != nil {
			d.logger.Warn("annex redirect failed",
				zap.String("norma", key), zap.Error(err))
			return Decision{Outcome: OutcomeNoAction}
		}
		d.logger.Info("search redirected to annex",
			zap.String("norma", key), zap.String("annex", target.Label))
		return Decision{
			Outcome:         OutcomeRedirected,
			Annex:           &target,
			ToastDurationMS: d.cfg.ToastDurationMS,
		}
	}

	id := uuid.NewString()
	d.mu.Lock()
	d.pending[id] = pendingSwitch{params: params, annex: target, tabIDs: tabIDs}
	d.mu.Unlock()

	return Decision{Outcome: OutcomeConfirmPending, Annex: &target, PendingID: id}
}

// searchKey identifies one registered search. The same norm requested
// with a different article spec or version date may resolve to a
// different annex and is a distinct check.
func searchKey(p norma.SearchParams) string {
	return p.Identity() + "|" + p.Article + "|" + p.VersionDate
}

// findTarget scans non-main annexes for the first one holding any of
// the requested articles. Annexes below the noise threshold are ignored.
func (d *Detector) findTarget(annexes []norma.Annex, requested []string) (norma.Annex, bool) {
	for _, a := range annexes {
		if a.IsMainText() || a.ArticleCount < d.cfg.MinAnnexArticles {
			continue
		}
		if a.ContainsAny(requested) {
			return a, true
		}
	}
	return norma.Annex{}, false
}

func (d *Detector) redirect(ctx context.Context, params norma.SearchParams, target norma.Annex, tabIDs []string) error {
	annexNumber := ""
	if target.Number != nil {
		annexNumber = *target.Number
	}
	// Old tabs go first: the redirected search may claim the same norm
	// identity and must not land in a tab that is about to be removed.
	if len(tabIDs) > 0 {
		if err := d.janitor.RemoveTabs(ctx, tabIDs); err != nil {
			d.logger.Warn("failed to remove superseded tabs", zap.Error(err))
		}
	}
	if err := d.runner.Run(ctx, params.WithAnnex(annexNumber)); err != nil {
		return fmt.Errorf("re-issue search: %w", err)
	}
	return nil
}

// Confirm executes a pending switch. Each pending id can be confirmed
// at most once.
func (d *Detector) Confirm(ctx context.Context, pendingID string) (Decision, error) {
	d.mu.Lock()
	p, ok := d.pending[pendingID]
	if ok {
		delete(d.pending, pendingID)
	}
	d.mu.Unlock()
	if !ok {
		return Decision{}, fmt.Errorf("%w: %s", domain.ErrNoPendingSwitch, pendingID)
	}

	if err := d.redirect(ctx, p.params, p.annex, p.tabIDs); err != nil {
		return Decision{}, err
	}
	metrics.AnnexSwitchTotal.WithLabelValues(string(OutcomeRedirected)).Inc()
	return Decision{
		Outcome:         OutcomeRedirected,
		Annex:           &p.annex,
		ToastDurationMS: d.cfg.ToastDurationMS,
	}, nil
}

// Cancel discards a pending switch. The search stays marked as checked
// so the dialog never reappears for it.
func (d *Detector) Cancel(pendingID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pending[pendingID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNoPendingSwitch, pendingID)
	}
	delete(d.pending, pendingID)
	return nil
}
