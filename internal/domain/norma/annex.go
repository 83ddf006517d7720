package norma

import (
	"encoding/json"
	"strings"
)

// Document is the structural tree of one legal document: the article
// listing as the backend shapes it, plus the annex inventory when it
// was requested.
type Document struct {
	Articles json.RawMessage `json:"articles"`
	Count    int             `json:"count"`
	Annexes  []Annex         `json:"annexes,omitempty"`
}

// Annex is an immutable snapshot of one structural section of a legal
// document, produced by the backend's tree endpoint. A nil Number marks
// the main text (dispositivo).
type Annex struct {
	Number         *string  `json:"number"`
	Label          string   `json:"label"`
	ArticleCount   int      `json:"article_count"`
	ArticleNumbers []string `json:"article_numbers"`
}

// IsMainText reports whether the annex entry is the document body.
func (a Annex) IsMainText() bool { return a.Number == nil }

// ContainsAny reports whether any of the requested article numbers
// appears in the annex, compared case-insensitively.
func (a Annex) ContainsAny(numbers []string) bool {
	for _, have := range a.ArticleNumbers {
		for _, want := range numbers {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

// MainText finds the main-text entry among a document's annexes.
func MainText(annexes []Annex) (Annex, bool) {
	for _, a := range annexes {
		if a.IsMainText() {
			return a, true
		}
	}
	return Annex{}, false
}
