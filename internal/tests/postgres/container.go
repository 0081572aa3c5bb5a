// Package postgres starts a throwaway PostgreSQL for integration tests.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/FahmidKDAU/dcr-solution/migrations"
)

const image = "postgres:16-alpine"

// Setup starts a container, migrates it to the latest schema including the
// seed people, departments and documents, and returns its connection string.
// cleanup terminates the container.
func Setup(ctx context.Context) (connString string, cleanup func(), err error) {
	ctr, err := postgres.Run(ctx, image,
		postgres.WithDatabase("dcr"),
		postgres.WithUsername("dcr"),
		postgres.WithPassword("dcr"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return "", nil, fmt.Errorf("start %s: %w", image, err)
	}

	cleanup = func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			slog.Error("failed to terminate postgres container", "error", err)
		}
	}

	connString, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("connection string: %w", err)
	}

	version, err := migrations.Run(ctx, connString)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("migrate: %w", err)
	}
	slog.Debug("test database ready", "schema_version", version)

	return connString, cleanup, nil
}
