package userconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.SelectedContext)

	require.NoError(t, SetSelectedContext("extension"))
	require.NoError(t, SetLastEmail("a@b.com"))

	selected, err := GetSelectedContext()
	require.NoError(t, err)
	assert.Equal(t, "extension", selected)

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", cfg.LastEmail)

	_, err = os.Stat(filepath.Join(dir, "coldread", "config.json"))
	assert.NoError(t, err)
}

func TestUserConfig_Corrupt(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "coldread"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coldread", "config.json"), []byte("{"), 0644))

	_, err := Load()
	assert.Error(t, err)
}
