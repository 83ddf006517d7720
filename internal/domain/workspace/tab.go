// Package workspace models the persistent user workspace: result tabs,
// pinned quick norms, dossiers and the export envelope.
package workspace

import (
	"time"

	"github.com/capazme/lexspace/internal/domain/norma"
)

// Tab is one workspace container holding the articles of a single norm.
// Historical tabs hold point-in-time results and are never merged with
// live ones.
type Tab struct {
	ID          string          `json:"id"`
	Label       string          `json:"label"`
	Norma       norma.Norma     `json:"norma"`
	NormaKey    string          `json:"norma_key"`
	Historical  bool            `json:"historical"`
	VersionDate string          `json:"version_date,omitempty"`
	Articles    []norma.Article `json:"articles"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// UpsertArticle adds or replaces an article by number, keeping the tab
// sorted ascending by numeric article value.
func (t *Tab) UpsertArticle(a norma.Article) {
	t.Articles = norma.UpsertArticle(t.Articles, a)
}

// TabLabel builds the display label for a new tab: the custom label when
// the caller supplied one, otherwise the norm label, suffixed with the
// requested version date for historical searches.
func TabLabel(custom string, n norma.Norma, versionDate string) string {
	label := custom
	if label == "" {
		label = n.Label()
	}
	if versionDate != "" {
		label += " - Ver. " + versionDate
	}
	return label
}
