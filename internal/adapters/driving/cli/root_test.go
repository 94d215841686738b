package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "paperdex", rootCmd.Use)
}

func TestRootCmd_HasPersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "config", "index-dir"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "flag %s should exist", name)
	}
}

func TestLoadConfig_IndexDirOverride(t *testing.T) {
	dir := t.TempDir()
	flagConfigPath = filepath.Join(dir, "config.toml")
	flagIndexDir = filepath.Join(dir, "elsewhere")
	defer func() {
		flagConfigPath = ""
		flagIndexDir = ""
	}()

	cfg, err := loadConfig()

	require.NoError(t, err)
	assert.Equal(t, flagIndexDir, cfg.IndexLocation)
}

func TestGetSearchService_NoIndexFails(t *testing.T) {
	dir := t.TempDir()
	flagConfigPath = filepath.Join(dir, "config.toml")
	defer func() { flagConfigPath = "" }()

	_, _, err := getSearchService(context.Background())

	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestGetIndexService_UsesInjectedMock(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	svc, svcCleanup, err := getIndexService()
	defer svcCleanup()

	require.NoError(t, err)
	assert.Same(t, indexService, svc)
}
