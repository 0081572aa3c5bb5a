package handler

import (
	"context"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/FahmidKDAU/dcr-solution/internal/logger"
	"github.com/FahmidKDAU/dcr-solution/internal/repository"
	"github.com/FahmidKDAU/dcr-solution/internal/repository/postgres"
	"github.com/FahmidKDAU/dcr-solution/internal/service"
	"github.com/FahmidKDAU/dcr-solution/internal/storage"
	testpg "github.com/FahmidKDAU/dcr-solution/internal/tests/postgres"
)

const testUserHeader = "X-User-Email"

func setupIntegration(t testing.TB, blobs storage.Blobs) (*chi.Mux, repository.Repository, func()) {
	if testing.Short() {
		t.Skip("skipping E2E test")
	}

	ctx := context.Background()

	connStr, teardown, err := testpg.Setup(ctx)
	require.NoError(t, err, "failed to setup postgres container")

	repo, err := postgres.New(ctx, connStr)
	require.NoError(t, err, "failed to connect to db")

	svc, err := service.New(repo, blobs, logger.New("error"))
	require.NoError(t, err)
	h := New(svc, logger.New("error"), Options{UserHeader: testUserHeader})

	r := chi.NewRouter()
	r.Use(Metrics)
	h.RegisterRoutes(r)

	return r, repo, func() {
		repo.(interface{ Close() }).Close()
		teardown()
	}
}
