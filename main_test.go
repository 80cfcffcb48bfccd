package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cafe-reservation/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLoggerRecordsMethodPathAndStatus(t *testing.T) {
	t.Chdir(t.TempDir())

	log := logger.NewLogger()

	r := chi.NewRouter()
	r.Use(requestLogger(log))
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code, "middleware must not swallow the handler status")

	log.Close()

	name := filepath.Join("logs", fmt.Sprintf("reservation-service-%s.log", time.Now().Format("2006-01-02")))
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(data), "GET /ping - 418")
}
