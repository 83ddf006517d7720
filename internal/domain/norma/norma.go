// Package norma models Italian legal norms: act identity, requested
// articles, streamed article results and annex metadata.
package norma

import (
	"fmt"
	"strings"

	"github.com/capazme/lexspace/internal/domain"
)

// Version selects the temporal variant of a norm.
type Version string

const (
	// VersionVigente is the text currently in force.
	VersionVigente Version = "vigente"
	// VersionOriginale is the text as originally enacted.
	VersionOriginale Version = "originale"
)

// Valid reports whether v is a recognized version selector.
func (v Version) Valid() bool {
	return v == VersionVigente || v == VersionOriginale
}

// Norma identifies one legal act by type, number and date.
type Norma struct {
	TipoAtto   string `json:"tipo_atto"`
	NumeroAtto string `json:"numero_atto,omitempty"`
	Data       string `json:"data,omitempty"`
}

// Key derives the grouping identity for the norm. Two results with equal
// keys belong to the same document. Returns "" for a malformed norm
// (empty act type after sanitization).
func (n Norma) Key() string {
	tipo := sanitize(n.TipoAtto)
	if tipo == "" {
		return ""
	}
	return tipo + "--" + sanitize(n.NumeroAtto) + "--" + sanitize(n.Data)
}

// Label renders the norm for tab titles: "Legge 241".
func (n Norma) Label() string {
	if n.NumeroAtto == "" {
		return n.TipoAtto
	}
	return n.TipoAtto + " " + n.NumeroAtto
}

// sanitize lowercases, collapses whitespace runs to single hyphens and
// strips every remaining character outside [a-z0-9_-].
func sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n':
			if !inSpace {
				b.WriteByte('-')
				inSpace = true
			}
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
			inSpace = false
		default:
			inSpace = false
		}
	}
	return b.String()
}

// SearchParams identifies one logical search against the legal backend.
// Immutable per request.
type SearchParams struct {
	ActType      string  `json:"act_type"`
	ActNumber    string  `json:"act_number,omitempty"`
	Date         string  `json:"date,omitempty"`
	Article      string  `json:"article"`
	Version      Version `json:"version"`
	VersionDate  string  `json:"version_date,omitempty"`
	ShowBrocardi bool    `json:"show_brocardi_info"`
	Annex        string  `json:"annex,omitempty"`
	TabLabel     string  `json:"tab_label,omitempty"`
}

// Validate checks the parameters without touching the backend.
func (p SearchParams) Validate() error {
	if strings.TrimSpace(p.ActType) == "" {
		return fmt.Errorf("%w: act_type is required", domain.ErrInvalidSearch)
	}
	if strings.TrimSpace(p.Article) == "" {
		return fmt.Errorf("%w: article is required", domain.ErrInvalidSearch)
	}
	if p.Version != "" && !p.Version.Valid() {
		return fmt.Errorf("%w: version must be %q or %q, got %q",
			domain.ErrInvalidSearch, VersionVigente, VersionOriginale, p.Version)
	}
	if _, err := ParseArticleSpec(p.Article); err != nil {
		return err
	}
	return nil
}

// Norma returns the act descriptor the parameters point at.
func (p SearchParams) Norma() Norma {
	return Norma{TipoAtto: p.ActType, NumeroAtto: p.ActNumber, Data: p.Date}
}

// Identity returns the derived norm key for the parameters.
func (p SearchParams) Identity() string {
	return p.Norma().Key()
}

// Historical reports whether the search targets a point-in-time version.
func (p SearchParams) Historical() bool {
	return p.VersionDate != ""
}

// WithAnnex returns a copy of the parameters qualified with an annex.
func (p SearchParams) WithAnnex(annex string) SearchParams {
	p.Annex = annex
	return p
}

// Ref is a resolved norm reference as returned by the backend's
// norma-data endpoint. The backend emits either "urn" or "url"
// depending on the resolver path; URN carries whichever was present.
type Ref struct {
	URN        string `json:"urn"`
	TipoAtto   string `json:"tipo_atto,omitempty"`
	Data       string `json:"data,omitempty"`
	NumeroAtto string `json:"numero_atto,omitempty"`
}

// Lookup identifies a citation for norm resolution.
type Lookup struct {
	ActType   string `json:"act_type"`
	ActNumber string `json:"act_number,omitempty"`
	Date      string `json:"date,omitempty"`
	Article   string `json:"article"`
}

// Validate checks the lookup without touching the backend.
func (l Lookup) Validate() error {
	if strings.TrimSpace(l.ActType) == "" {
		return fmt.Errorf("%w: act_type is required", domain.ErrInvalidSearch)
	}
	if strings.TrimSpace(l.Article) == "" {
		return fmt.Errorf("%w: article is required", domain.ErrInvalidSearch)
	}
	return nil
}
