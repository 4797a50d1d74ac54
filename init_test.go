package versionedcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, "localhost:6379", cfg.RedisAddr)
	require.Equal(t, "cache:invalidate", cfg.InvalidationChannel)
	require.Equal(t, "json", cfg.SerializationFormat)
	require.Equal(t, 10*time.Second, cfg.LockTTL)
	require.True(t, cfg.BreakerEnabled)
	require.NoError(t, cfg.DefaultNamespace.Validate())
}

func TestNewRejectsEmptyChannel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InvalidationChannel = ""

	_, err := New(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewRejectsUnknownSerializationFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SerializationFormat = "xml"

	_, err := New(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDefaultNamespaceConfigTTLOrdering(t *testing.T) {
	nc := DefaultNamespaceConfig()
	require.GreaterOrEqual(t, nc.SharedTTL, nc.LocalTTL,
		"the shared tier must outlive the local tier so it can repopulate it")
}
