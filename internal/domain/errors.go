package domain

import "errors"

var (
	// ErrInvalidSearch signals malformed search parameters.
	ErrInvalidSearch = errors.New("invalid search parameters")
	// ErrMissingNormaData signals a result without norm metadata.
	ErrMissingNormaData = errors.New("missing norma data")
	// ErrMalformedNorma signals a norm descriptor that yields an empty key.
	ErrMalformedNorma = errors.New("malformed norma")
	// ErrLineDecode signals an undecodable line inside a result stream.
	// Recoverable: the line is dropped and the stream continues.
	ErrLineDecode = errors.New("line decode failed")
	// ErrBackendUnavailable signals an upstream legal-API failure.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrStaleSearch signals a write from a superseded search generation.
	ErrStaleSearch = errors.New("stale search generation")

	// ErrTabNotFound signals a missing workspace tab.
	ErrTabNotFound = errors.New("tab not found")
	// ErrQuickNormNotFound signals a missing quick norm.
	ErrQuickNormNotFound = errors.New("quick norm not found")
	// ErrDossierNotFound signals a missing dossier.
	ErrDossierNotFound = errors.New("dossier not found")
	// ErrNoPendingSwitch signals confirm/cancel without an open dialog.
	ErrNoPendingSwitch = errors.New("no pending annex switch")
	// ErrInvalidEnvelope signals an unusable environment export envelope.
	ErrInvalidEnvelope = errors.New("invalid environment envelope")
)
