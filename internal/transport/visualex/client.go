// Package visualex is the HTTP client for the upstream legal-norms API
// (citation resolution, article retrieval, document trees, PDF export).
package visualex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/capazme/lexspace/internal/domain"
	"github.com/capazme/lexspace/internal/domain/norma"
	"github.com/capazme/lexspace/internal/metrics"
)

// Config holds the upstream API settings.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Logger            *zap.Logger
}

// Client talks to the upstream legal API. All endpoints are JSON over
// POST; requests are rate limited to stay polite with the public
// normattiva scrapers behind the backend.
type Client struct {
	baseURL string
	httpc   *http.Client
	streamc *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates an upstream API client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	// Streaming responses trickle in for as long as the upstream scrape
	// runs, so the overall timeout only applies up to the response
	// headers; a healthy stream may legitimately outlive it.
	streamTransport := http.DefaultTransport.(*http.Transport).Clone()
	streamTransport.ResponseHeaderTimeout = timeout

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		streamc: &http.Client{Transport: streamTransport},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// StatusError reports a non-2xx upstream response. It unwraps to
// domain.ErrBackendUnavailable so callers can treat any transport
// failure uniformly.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: upstream status %d: %s", e.Endpoint, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return domain.ErrBackendUnavailable }

// post issues a rate-limited JSON POST and returns the open response.
// The caller owns the body.
func (c *Client) post(ctx context.Context, endpoint string, body any) (*http.Response, error) {
	return c.postWith(ctx, c.httpc, endpoint, body)
}

func (c *Client) postWith(ctx context.Context, httpc *http.Client, endpoint string, body any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	label := strings.TrimPrefix(endpoint, "/")
	start := time.Now()

	resp, err := httpc.Do(req)

	metrics.BackendRequestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(label, "error").Inc()
		return nil, fmt.Errorf("%s: %w: %w", label, domain.ErrBackendUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.BackendRequestsTotal.WithLabelValues(label, "error").Inc()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &StatusError{Endpoint: label, Code: resp.StatusCode, Body: string(snippet)}
	}

	metrics.BackendRequestsTotal.WithLabelValues(label, "success").Inc()
	return resp, nil
}

// postDecode issues a POST and decodes the full JSON response into out.
func (c *Client) postDecode(ctx context.Context, endpoint string, body, out any) error {
	resp, err := c.post(ctx, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", strings.TrimPrefix(endpoint, "/"), err)
	}
	return nil
}

// FetchAllData retrieves all requested articles in one batch, including
// brocardi annotations.
func (c *Client) FetchAllData(ctx context.Context, p norma.SearchParams) ([]norma.Result, error) {
	p.ShowBrocardi = true
	return c.fetchBatch(ctx, "/fetch_all_data", p)
}

// FetchArticleText retrieves article texts without annotations.
func (c *Client) FetchArticleText(ctx context.Context, p norma.SearchParams) ([]norma.Result, error) {
	return c.fetchBatch(ctx, "/fetch_article_text", p)
}

func (c *Client) fetchBatch(ctx context.Context, endpoint string, p norma.SearchParams) ([]norma.Result, error) {
	var raw []json.RawMessage
	if err := c.postDecode(ctx, endpoint, p, &raw); err != nil {
		return nil, err
	}

	results := make([]norma.Result, 0, len(raw))
	for i, item := range raw {
		res, err := norma.ParseResult(item)
		if err != nil {
			// Semantic failure of one unit; the rest of the batch stands.
			c.logger.Warn("discarding unusable batch item",
				zap.String("endpoint", endpoint),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// FetchNormaData resolves a citation into norm references. The backend
// emits "urn" or "url" depending on the resolver path; both land in
// Ref.URN.
func (c *Client) FetchNormaData(ctx context.Context, lookup norma.Lookup) ([]norma.Ref, error) {
	var out struct {
		NormaData []struct {
			norma.Ref
			URL string `json:"url"`
		} `json:"norma_data"`
	}
	if err := c.postDecode(ctx, "/fetch_norma_data", lookup, &out); err != nil {
		return nil, err
	}

	refs := make([]norma.Ref, 0, len(out.NormaData))
	for _, nd := range out.NormaData {
		ref := nd.Ref
		if ref.URN == "" {
			ref.URN = nd.URL
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// FetchTree retrieves the document tree for a URN. withMetadata also
// requests the per-annex article inventory.
func (c *Client) FetchTree(ctx context.Context, urn string, withDetails, withMetadata bool) (norma.Document, error) {
	body := map[string]any{
		"urn":             urn,
		"link":            false,
		"details":         withDetails,
		"return_metadata": withMetadata,
	}
	var out struct {
		Articles json.RawMessage `json:"articles"`
		Count    int             `json:"count"`
		Metadata struct {
			Annexes []norma.Annex `json:"annexes"`
		} `json:"metadata"`
	}
	if err := c.postDecode(ctx, "/fetch_tree", body, &out); err != nil {
		return norma.Document{}, err
	}
	return norma.Document{Articles: out.Articles, Count: out.Count, Annexes: out.Metadata.Annexes}, nil
}

// FetchAnnexes returns the annex inventory of the document identified
// by the norm descriptor.
func (c *Client) FetchAnnexes(ctx context.Context, n norma.Norma) ([]norma.Annex, error) {
	doc, err := c.FetchTree(ctx, URN(n), false, true)
	if err != nil {
		return nil, err
	}
	return doc.Annexes, nil
}

// ExportPDF renders the document identified by urn as a PDF.
func (c *Client) ExportPDF(ctx context.Context, urn string) ([]byte, error) {
	resp, err := c.post(ctx, "/export_pdf", map[string]string{"urn": urn})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("export_pdf: read body: %w", err)
	}
	return data, nil
}

// HealthCheck verifies the upstream API answers at all. Any response
// below 500 counts as alive; only network failures and server errors
// mark the backend down.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return &StatusError{Endpoint: "health", Code: resp.StatusCode}
	}
	return nil
}

// URN builds the normalized urn:nir lookup string for a norm, e.g.
// "urn:nir:stato:legge:1990-08-07;241".
func URN(n norma.Norma) string {
	tipo := strings.ToLower(strings.TrimSpace(n.TipoAtto))
	tipo = strings.Join(strings.Fields(tipo), ".")

	var b strings.Builder
	b.WriteString("urn:nir:stato:")
	b.WriteString(tipo)
	if n.Data != "" {
		b.WriteString(":")
		b.WriteString(n.Data)
	}
	if n.NumeroAtto != "" {
		b.WriteString(";")
		b.WriteString(n.NumeroAtto)
	}
	return b.String()
}
