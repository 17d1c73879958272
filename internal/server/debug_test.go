package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mj1618/winsync/internal/model"
	"github.com/mj1618/winsync/internal/platform"
	"github.com/mj1618/winsync/internal/registry"
	"github.com/mj1618/winsync/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func newDebugRouter(t *testing.T) (http.Handler, *registry.Registry) {
	t.Helper()
	promReg := prometheus.NewRegistry()
	logger := slog.New(slog.DiscardHandler)
	reg := registry.New(
		store.NewHub().Context(),
		platform.NewStaticSampler(model.Shape{W: 100, H: 100}),
		registry.WithLogger(logger),
		registry.WithMetrics(registry.NewMetrics(promReg)),
	)
	return NewDebugRouter(reg, promReg, logger), reg
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDebugRouter_Healthz(t *testing.T) {
	h, reg := newDebugRouter(t)
	require.Equal(t, http.StatusServiceUnavailable, get(h, "/healthz").Code)

	require.NoError(t, reg.Init(nil))
	rec := get(h, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())

	require.NoError(t, reg.Close())
	require.Equal(t, http.StatusServiceUnavailable, get(h, "/healthz").Code)
}

func TestDebugRouter_Roster(t *testing.T) {
	h, reg := newDebugRouter(t)
	require.NoError(t, reg.Init(map[string]any{"role": "primary"}))

	rec := get(h, "/roster")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got rosterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, reg.ID(), got.ID)
	require.Equal(t, "active", got.State)
	require.Equal(t, 1, got.Count)
	require.Equal(t, "primary", got.Windows[0].Metadata["role"])
}

func TestDebugRouter_Metrics(t *testing.T) {
	h, reg := newDebugRouter(t)
	require.NoError(t, reg.Init(nil))
	reg.Update()

	rec := get(h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "winsync_ticks_total 1")
	require.Contains(t, body, "winsync_roster_size 1")
}

func TestDebugRouter_NotFound(t *testing.T) {
	h, _ := newDebugRouter(t)
	require.Equal(t, http.StatusNotFound, get(h, "/nope").Code)
}
