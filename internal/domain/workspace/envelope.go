package workspace

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/capazme/lexspace/internal/domain"
)

// EnvelopeVersion is the current export schema version.
const EnvelopeVersion = 1

// Envelope types for export/import.
const (
	EnvelopeWorkspace  = "workspace"
	EnvelopeDossiers   = "dossiers"
	EnvelopeQuickNorms = "quick_norms"
)

// EnvironmentExport wraps exported workspace state with enough metadata
// to validate it on re-import.
type EnvironmentExport struct {
	Version    int             `json:"version"`
	Type       string          `json:"type"`
	ExportedAt time.Time       `json:"exported_at"`
	Data       json.RawMessage `json:"data"`
}

// NewEnvelope wraps data in a current-version envelope.
func NewEnvelope(envType string, data any) (EnvironmentExport, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return EnvironmentExport{}, fmt.Errorf("marshal envelope data: %w", err)
	}
	return EnvironmentExport{
		Version:    EnvelopeVersion,
		Type:       envType,
		ExportedAt: time.Now().UTC(),
		Data:       raw,
	}, nil
}

// Validate checks an envelope before import.
func (e EnvironmentExport) Validate() error {
	if e.Version <= 0 || e.Version > EnvelopeVersion {
		return fmt.Errorf("%w: unsupported version %d", domain.ErrInvalidEnvelope, e.Version)
	}
	switch e.Type {
	case EnvelopeWorkspace, EnvelopeDossiers, EnvelopeQuickNorms:
	default:
		return fmt.Errorf("%w: unknown type %q", domain.ErrInvalidEnvelope, e.Type)
	}
	if len(e.Data) == 0 {
		return fmt.Errorf("%w: empty data", domain.ErrInvalidEnvelope)
	}
	return nil
}
