package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldread-dev/coldread/internal/cli/guard"
)

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coldread.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "api_url": "https://app.coldread.io/api",
  "routes": [{"path": "/pricing", "access": "session"}]
}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://app.coldread.io/api", cfg.APIURL)

	table := cfg.RouteTable()
	assert.Equal(t, guard.RequiresSession, table.Access("/pricing"))
	assert.Equal(t, guard.Public, table.Access("/login"))
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coldread.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`api_url: http://localhost:9000/api
routes:
  - path: /reports/shared
    access: public
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/api", cfg.APIURL)
	assert.Equal(t, guard.Public, cfg.RouteTable().Access("/reports/shared/1"))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad scheme", `{"api_url": "ftp://x"}`},
		{"bad access", `{"routes": [{"path": "/x", "access": "admin"}]}`},
		{"relative route", `{"routes": [{"path": "x", "access": "public"}]}`},
		{"not json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "coldread.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_DefaultsAPIURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coldread.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
}

func TestFindConfigFile_WalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, Save(filepath.Join(root, "coldread.yaml"), DefaultConfig()))

	found, err := FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "coldread.yaml"), found)

	_, err = FindConfigFile(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFromCurrentDir_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COLDREAD_API_URL", "https://staging.coldread.io/api")

	cfg, err := LoadFromCurrentDir()
	require.NoError(t, err)
	assert.Equal(t, "https://staging.coldread.io/api", cfg.APIURL)

	t.Setenv("COLDREAD_API_URL", "not-a-url")
	_, err = LoadFromCurrentDir()
	assert.Error(t, err)
}
