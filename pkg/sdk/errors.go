package lexspace

import "github.com/capazme/lexspace/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidSearch      = domain.ErrInvalidSearch
	ErrMissingNormaData   = domain.ErrMissingNormaData
	ErrMalformedNorma     = domain.ErrMalformedNorma
	ErrLineDecode         = domain.ErrLineDecode
	ErrBackendUnavailable = domain.ErrBackendUnavailable
	ErrStaleSearch        = domain.ErrStaleSearch
	ErrTabNotFound        = domain.ErrTabNotFound
	ErrQuickNormNotFound  = domain.ErrQuickNormNotFound
	ErrDossierNotFound    = domain.ErrDossierNotFound
	ErrNoPendingSwitch    = domain.ErrNoPendingSwitch
	ErrInvalidEnvelope    = domain.ErrInvalidEnvelope
)
