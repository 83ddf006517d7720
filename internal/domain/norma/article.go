package norma

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/capazme/lexspace/internal/domain"
)

// Brocardi carries the doctrinal annotations attached to an article:
// explanation, legal maxims ("massime") and cross-references.
type Brocardi struct {
	Position    string   `json:"position,omitempty"`
	Link        string   `json:"link,omitempty"`
	Brocardi    []string `json:"brocardi,omitempty"`
	Ratio       string   `json:"ratio,omitempty"`
	Spiegazione string   `json:"spiegazione,omitempty"`
	Massime     []string `json:"massime,omitempty"`
}

// VersionInfo marks an article as the outcome of a point-in-time query.
type VersionInfo struct {
	IsHistorical  bool   `json:"is_historical"`
	RequestedDate string `json:"requested_date"`
	EffectiveDate string `json:"effective_date,omitempty"`
}

// Article is one retrieved article, ready for a workspace tab.
type Article struct {
	Numero   string       `json:"numero_articolo"`
	Testo    string       `json:"article_text,omitempty"`
	Allegato string       `json:"allegato,omitempty"`
	Brocardi *Brocardi    `json:"brocardi_info,omitempty"`
	Version  *VersionInfo `json:"version_info,omitempty"`
}

// normaData is the wire shape of the backend's per-result metadata.
type normaData struct {
	Norma
	NumeroArticolo string `json:"numero_articolo"`
	Allegato       string `json:"allegato,omitempty"`
	DataVersione   string `json:"data_versione,omitempty"`
	URN            string `json:"urn,omitempty"`
}

// Result is one streamed or batched unit from the backend, validated at
// the boundary instead of trusting field presence downstream.
type Result struct {
	norma    Norma
	article  Article
	errField string
}

// ParseResult decodes and validates one backend result object.
// A JSON-level failure is returned as a recoverable line-decode error;
// missing or malformed metadata is reported by Validate.
func ParseResult(raw []byte) (Result, error) {
	var wire struct {
		NormaData    *normaData `json:"norma_data"`
		ArticleText  string     `json:"article_text"`
		BrocardiInfo *Brocardi  `json:"brocardi_info"`
		Error        string     `json:"error"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrLineDecode, err)
	}
	r := Result{errField: wire.Error}
	if wire.NormaData != nil {
		r.norma = wire.NormaData.Norma
		r.article = Article{
			Numero:   wire.NormaData.NumeroArticolo,
			Testo:    wire.ArticleText,
			Allegato: wire.NormaData.Allegato,
			Brocardi: wire.BrocardiInfo,
		}
		if wire.NormaData.DataVersione != "" {
			r.article.Version = &VersionInfo{EffectiveDate: wire.NormaData.DataVersione}
		}
	} else {
		r.norma = Norma{}
	}
	if wire.NormaData == nil {
		return r, domain.ErrMissingNormaData
	}
	return r, nil
}

// NewResult builds a result from already-decoded parts. Used by batch
// endpoints where the envelope arrives as a JSON array.
func NewResult(n Norma, a Article, errField string) Result {
	return Result{norma: n, article: a, errField: errField}
}

// Norma returns the act descriptor of the result.
func (r Result) Norma() Norma { return r.norma }

// Failed reports whether the backend marked this unit as failed.
// Failed results are dropped; the article simply never appears.
func (r Result) Failed() bool { return r.errField != "" }

// FailureMessage returns the backend error string, if any.
func (r Result) FailureMessage() string { return r.errField }

// Article materializes the article, stamping version info when the
// search requested a point-in-time version. The effective date falls
// back to the norm date when the backend omitted data_versione.
func (r Result) Article(requestedDate string) Article {
	a := r.article
	if requestedDate != "" {
		effective := ""
		if a.Version != nil {
			effective = a.Version.EffectiveDate
		}
		if effective == "" {
			effective = r.norma.Data
		}
		a.Version = &VersionInfo{
			IsHistorical:  true,
			RequestedDate: requestedDate,
			EffectiveDate: effective,
		}
	}
	return a
}

// UpsertArticle inserts a into arts keyed by the article number: an
// existing entry with the same number is replaced in place, otherwise a
// is appended and the slice re-sorted ascending by ArticleSortValue.
func UpsertArticle(arts []Article, a Article) []Article {
	for i := range arts {
		if strings.EqualFold(arts[i].Numero, a.Numero) {
			arts[i] = a
			return arts
		}
	}
	arts = append(arts, a)
	sort.SliceStable(arts, func(i, j int) bool {
		return ArticleSortValue(arts[i].Numero) < ArticleSortValue(arts[j].Numero)
	})
	return arts
}
