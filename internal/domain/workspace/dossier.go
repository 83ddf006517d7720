package workspace

import "time"

// QuickNorm is a pinned shortcut to a norm or a single article.
type QuickNorm struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	ActType   string    `json:"act_type"`
	ActNumber string    `json:"act_number,omitempty"`
	Date      string    `json:"date,omitempty"`
	Article   string    `json:"article,omitempty"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
}

// DossierEntry is one saved reference inside a dossier.
type DossierEntry struct {
	NormaKey string    `json:"norma_key"`
	Article  string    `json:"article,omitempty"`
	Note     string    `json:"note,omitempty"`
	AddedAt  time.Time `json:"added_at"`
}

// Dossier is a named personal collection of norm references.
type Dossier struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Entries     []DossierEntry `json:"entries"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
