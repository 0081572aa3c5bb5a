package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FahmidKDAU/dcr-solution/internal/logger"
)

func TestHandler_Health(t *testing.T) {
	h := New(nil, logger.New("error"), Options{})
	r := chi.NewRouter()
	r.Use(Metrics)
	h.RegisterRoutes(r)

	t.Run("HealthCheck", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/healthz", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "OK", resp["status"])
	})

	t.Run("CountedByRoutePattern", func(t *testing.T) {
		ok := httpRequests.WithLabelValues("/healthz", http.MethodGet, "2xx")
		before := testutil.ToFloat64(ok)

		doJSON(t, r, http.MethodGet, "/healthz", "", "")
		doJSON(t, r, http.MethodGet, "/healthz", "", "")

		assert.Equal(t, before+2, testutil.ToFloat64(ok))
	})

	t.Run("BadRequestCountedAs4xx", func(t *testing.T) {
		bad := httpRequests.WithLabelValues("/tasks/{id}", http.MethodGet, "4xx")
		before := testutil.ToFloat64(bad)

		doJSON(t, r, http.MethodGet, "/tasks/abc", "", "")

		assert.Equal(t, before+1, testutil.ToFloat64(bad))
	})
}
