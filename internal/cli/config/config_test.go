package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := &Config{
		Servers: []Server{
			{URL: "https://api.auburnhacks.com/", Alias: "production"},
			{URL: "http://localhost:8080", Alias: "local"},
		},
	}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Servers, 2)
	assert.Equal(t, "https://api.auburnhacks.com", loaded.Servers[0].URL)
	assert.Equal(t, "local", loaded.Servers[1].Alias)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("servers: [oops"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestFindConfigFile_SearchesParents(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, Save(filepath.Join(root, ConfigFileName), &Config{}))

	chdir(t, nested)

	path, err := FindConfigFile()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(filepath.Join(root, ConfigFileName))
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindConfigFile_Missing(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := FindConfigFile()
	assert.ErrorContains(t, err, "sponsor.yaml not found")
}

func TestServerLookups(t *testing.T) {
	cfg := &Config{
		Servers: []Server{
			{URL: "https://api.auburnhacks.com", Alias: "production"},
			{URL: "http://localhost:8080", Alias: "local"},
		},
	}

	s, err := cfg.GetServerByAlias("local")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", s.URL)

	s, err = cfg.GetServerByURL("https://api.auburnhacks.com/")
	require.NoError(t, err)
	assert.Equal(t, "production", s.Alias)

	_, err = cfg.GetServerByAlias("staging")
	assert.Error(t, err)

	s, err = cfg.GetDefaultServer()
	require.NoError(t, err)
	assert.Equal(t, "production", s.Alias)

	_, err = (&Config{}).GetDefaultServer()
	assert.Error(t, err)
}

func TestAddServer(t *testing.T) {
	cfg := &Config{}

	s, added := cfg.AddServer("http://localhost:8080/", "local")
	assert.True(t, added)
	assert.Equal(t, "http://localhost:8080", s.URL)

	_, added = cfg.AddServer("http://localhost:8080", "again")
	assert.False(t, added)
	assert.Len(t, cfg.Servers, 1)
}

func TestServerKeyAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		server  Server
		key     string
		wantErr bool
	}{
		{"https host", Server{URL: "https://api.auburnhacks.com", Alias: "p"}, "api.auburnhacks.com", false},
		{"host with port", Server{URL: "http://localhost:8080", Alias: "l"}, "localhost_8080", false},
		{"empty url", Server{Alias: "e"}, "", true},
		{"no scheme", Server{URL: "localhost:8080", Alias: "n"}, "localhost_8080", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.server.Key())
			if tt.wantErr {
				assert.Error(t, tt.server.Validate())
			} else {
				assert.NoError(t, tt.server.Validate())
			}
		})
	}
}
