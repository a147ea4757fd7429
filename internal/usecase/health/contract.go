package health

import "context"

// DBPinger checks catalog database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Checker checks one external collaborator's availability.
type Checker interface {
	HealthCheck(ctx context.Context) error
}
