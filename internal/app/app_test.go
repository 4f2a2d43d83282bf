package app

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/sandeepkv93/campus-portal-backend/internal/config"
)

func TestNewCopiesShutdownBudgets(t *testing.T) {
	cfg := &config.Config{
		ShutdownTimeout:              30 * time.Second,
		ShutdownHTTPDrainTimeout:     12 * time.Second,
		ShutdownObservabilityTimeout: 4 * time.Second,
	}
	a := New(cfg, slog.Default(), &http.Server{}, nil, nil, nil, nil, nil)
	require.Equal(t, 30*time.Second, a.ShutdownTimeout)
	require.Equal(t, 12*time.Second, a.ShutdownHTTPDrainTimeout)
	require.Equal(t, 4*time.Second, a.ShutdownObservabilityTimeout)
}

func TestShutdownClosesBoltStore(t *testing.T) {
	db, err := bolt.Open(filepath.Join(t.TempDir(), "app.db"), 0o600, nil)
	require.NoError(t, err)

	a := New(&config.Config{}, slog.Default(), &http.Server{ReadHeaderTimeout: time.Second}, nil, nil, db, nil, nil)
	require.NoError(t, a.Shutdown(context.Background()))

	err = db.View(func(*bolt.Tx) error { return nil })
	require.Error(t, err)
}

func TestOrDefault(t *testing.T) {
	require.Equal(t, 5*time.Second, orDefault(0, 5*time.Second))
	require.Equal(t, time.Second, orDefault(time.Second, 5*time.Second))
}
