// Package search orchestrates norm searches: it drives the upstream
// backend, feeds results through the aggregator into workspace tabs and
// hands completed searches to the annex switch detector.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/capazme/lexspace/internal/domain"
	"github.com/capazme/lexspace/internal/domain/norma"
	"github.com/capazme/lexspace/internal/metrics"
	"github.com/capazme/lexspace/internal/usecase/aggregate"
	"github.com/capazme/lexspace/internal/usecase/annexswitch"
)

// NormaResult is one norm's share of a search response.
type NormaResult struct {
	TabID       string          `json:"tab_id"`
	Norma       norma.Norma     `json:"norma"`
	Historical  bool            `json:"historical,omitempty"`
	VersionDate string          `json:"version_date,omitempty"`
	Articles    []norma.Article `json:"articles"`
}

// Response is the outcome of a batch search.
type Response struct {
	Results     []NormaResult         `json:"results"`
	AnnexSwitch *annexswitch.Decision `json:"annex_switch,omitempty"`
}

// Event is one line of a streamed search response.
type Event struct {
	Type        string                `json:"type"` // result, dropped, done; the HTTP transport adds "error" on mid-stream aborts
	TabID       string                `json:"tab_id,omitempty"`
	Norma       *norma.Norma          `json:"norma,omitempty"`
	Article     *norma.Article        `json:"article,omitempty"`
	Error       string                `json:"error,omitempty"`
	Processed   int                   `json:"processed,omitempty"`
	Dropped     int                   `json:"dropped,omitempty"`
	AnnexSwitch *annexswitch.Decision `json:"annex_switch,omitempty"`
}

// Service orchestrates searches end to end.
type Service struct {
	backend  Backend
	agg      *aggregate.Aggregator
	detector Detector
	logger   *zap.Logger
}

// New creates a search service. The detector is attached afterwards via
// SetDetector because it needs this service as its search runner.
func New(backend Backend, agg *aggregate.Aggregator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, agg: agg, logger: logger}
}

// SetDetector attaches the annex switch detector.
func (s *Service) SetDetector(d Detector) { s.detector = d }

// Search runs a batch search: every requested article is fetched in one
// backend call, routed into workspace tabs and returned grouped by norm.
func (s *Service) Search(ctx context.Context, p norma.SearchParams) (Response, error) {
	if err := p.Validate(); err != nil {
		metrics.SearchesTotal.WithLabelValues("batch", "error").Inc()
		return Response{}, err
	}

	results, err := s.backend.FetchAllData(ctx, p)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("batch", "error").Inc()
		return Response{}, err
	}

	session := s.agg.StartSearch(p)
	for _, res := range results {
		if _, err := session.Process(ctx, res); err != nil {
			metrics.SearchesTotal.WithLabelValues("batch", "error").Inc()
			return Response{}, err
		}
	}

	resp := s.buildResponse(session)
	resp.AnnexSwitch = s.registerSwitch(ctx, p, session.TabIDs())

	metrics.SearchesTotal.WithLabelValues("batch", "ok").Inc()
	s.logger.Info("search completed",
		zap.String("norma", p.Identity()),
		zap.String("article", p.Article),
		zap.Int("articles", session.Articles()),
	)
	return resp, nil
}

// SearchStream runs a streaming search, emitting one event per
// processed or dropped line and a final done event. emit errors abort
// the search (the client went away).
func (s *Service) SearchStream(ctx context.Context, p norma.SearchParams, emit func(Event) error) error {
	if err := p.Validate(); err != nil {
		metrics.SearchesTotal.WithLabelValues("stream", "error").Inc()
		return err
	}

	stream, err := s.backend.StreamArticleText(ctx, p)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("stream", "error").Inc()
		return err
	}
	defer stream.Close()

	session := s.agg.StartSearch(p)
	processed, dropped := 0, 0

	for {
		res, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, domain.ErrLineDecode) || errors.Is(err, domain.ErrMissingNormaData) {
				dropped++
				metrics.StreamLinesTotal.WithLabelValues("dropped").Inc()
				s.logger.Warn("dropping undecodable stream line", zap.Error(err))
				if emitErr := emit(Event{Type: "dropped", Error: err.Error()}); emitErr != nil {
					return emitErr
				}
				continue
			}
			metrics.SearchesTotal.WithLabelValues("stream", "error").Inc()
			return fmt.Errorf("read result stream: %w", err)
		}

		tabID, err := session.Process(ctx, res)
		if err != nil {
			metrics.SearchesTotal.WithLabelValues("stream", "error").Inc()
			return err
		}
		if tabID == "" {
			dropped++
			if emitErr := emit(Event{Type: "dropped", Error: res.FailureMessage()}); emitErr != nil {
				return emitErr
			}
			continue
		}

		processed++
		n := res.Norma()
		article := res.Article(p.VersionDate)
		if emitErr := emit(Event{Type: "result", TabID: tabID, Norma: &n, Article: &article}); emitErr != nil {
			return emitErr
		}
	}

	decision := s.registerSwitch(ctx, p, session.TabIDs())

	metrics.SearchesTotal.WithLabelValues("stream", "ok").Inc()
	return emit(Event{Type: "done", Processed: processed, Dropped: dropped, AnnexSwitch: decision})
}

// Run re-issues a search on behalf of the annex switch detector. The
// redirected search carries an annex qualifier, so the detector skips
// it and no recursion occurs.
func (s *Service) Run(ctx context.Context, p norma.SearchParams) error {
	_, err := s.Search(ctx, p)
	return err
}

// Resolve turns a citation into resolved norm references.
func (s *Service) Resolve(ctx context.Context, lookup norma.Lookup) ([]norma.Ref, error) {
	if err := lookup.Validate(); err != nil {
		return nil, err
	}
	return s.backend.FetchNormaData(ctx, lookup)
}

// Tree fetches the structural tree of a document.
func (s *Service) Tree(ctx context.Context, urn string, withDetails, withMetadata bool) (norma.Document, error) {
	if urn == "" {
		return norma.Document{}, fmt.Errorf("%w: urn is required", domain.ErrInvalidSearch)
	}
	return s.backend.FetchTree(ctx, urn, withDetails, withMetadata)
}

// ExportPDF renders a document as PDF.
func (s *Service) ExportPDF(ctx context.Context, urn string) ([]byte, error) {
	if urn == "" {
		return nil, fmt.Errorf("%w: urn is required", domain.ErrInvalidSearch)
	}
	return s.backend.ExportPDF(ctx, urn)
}

func (s *Service) buildResponse(session *aggregate.Session) Response {
	groups := session.Groups()
	results := make([]NormaResult, 0, len(groups))
	for _, g := range groups {
		tabID, _ := session.TabID(g.Key())
		results = append(results, NormaResult{
			TabID:       tabID,
			Norma:       g.Norma(),
			Historical:  g.Historical(),
			VersionDate: g.VersionDate(),
			Articles:    g.Articles(),
		})
	}
	return Response{Results: results}
}

func (s *Service) registerSwitch(ctx context.Context, p norma.SearchParams, tabIDs []string) *annexswitch.Decision {
	if s.detector == nil {
		return nil
	}
	decision := s.detector.Register(ctx, p, tabIDs)
	if decision.Outcome == annexswitch.OutcomeSkipped {
		return nil
	}
	return &decision
}
