package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, "reldb", cfg.AppName)
	require.Equal(t, "./data", cfg.Storage.DataDir)
	require.Equal(t, "default", cfg.Storage.Database)
	require.Equal(t, 3, cfg.Storage.BTreeDegree)
	require.Equal(t, ":5433", cfg.Server.Addr)
	require.False(t, cfg.Server.Debug)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reldb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app_name: myapp
storage:
  database: prod
  btree_degree: 8
server:
  addr: ":9000"
  debug: true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "myapp", cfg.AppName)
	require.Equal(t, "prod", cfg.Storage.Database)
	require.Equal(t, 8, cfg.Storage.BTreeDegree)
	// untouched keys keep their defaults
	require.Equal(t, "./data", cfg.Storage.DataDir)
	require.Equal(t, ":9000", cfg.Server.Addr)
	require.True(t, cfg.Server.Debug)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
