package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// OracleChecker checks classification oracle availability.
type OracleChecker interface {
	HealthCheck(ctx context.Context) error
}

// ImageStoreChecker checks object storage availability.
type ImageStoreChecker interface {
	HealthCheck(ctx context.Context) error
}
