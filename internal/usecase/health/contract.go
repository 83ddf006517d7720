package health

import "context"

// StoragePinger checks workspace storage availability.
type StoragePinger interface {
	Ping(ctx context.Context) error
}

// BackendChecker checks upstream legal API availability.
type BackendChecker interface {
	HealthCheck(ctx context.Context) error
}
