package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"budget/internal/config"
	"budget/internal/log"
)

func TestNewSnapshotCache(t *testing.T) {
	assert.Nil(t, NewSnapshotCache(&config.Config{CacheTTL: 0, CacheSize: 10}))
	assert.NotNil(t, NewSnapshotCache(&config.Config{CacheTTL: time.Minute, CacheSize: 10}))
}

func TestServiceOptions(t *testing.T) {
	logger := log.New(log.DefaultConfig())
	assert.Len(t, ServiceOptions(logger, nil, nil), 1)
	assert.Len(t, ServiceOptions(logger, NewSnapshotCache(&config.Config{CacheTTL: time.Minute, CacheSize: 1}), nil), 2)
}

func TestLoadAndValidateConfigReportsErrors(t *testing.T) {
	t.Setenv("DATA_BACKEND", "sheets")
	_, err := LoadAndValidateConfig()
	assert.ErrorContains(t, err, "invalid data backend")
}
