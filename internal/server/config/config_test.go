package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
	assert.Contains(t, cfg.DatabaseDSN, "postgres://")
	assert.Equal(t, ":9102", cfg.MetricsAddr)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncd.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoint_addr_grpc = ":6000"
database_dsn = "postgres://file/db"
metrics_addr = ":7000"
`), 0o600))

	cfg, err := LoadConfig([]string{"-c", path, "-g", ":6001", "-x", "ignored"})
	require.NoError(t, err)

	assert.Equal(t, ":6001", cfg.EndpointAddrGRPC)
	assert.Equal(t, "postgres://file/db", cfg.DatabaseDSN)
	assert.Equal(t, ":7000", cfg.MetricsAddr)
}

func TestLoadConfig_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncd.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"database_dsn":"postgres://json/db","metrics_addr":""}`), 0o600))

	cfg, err := LoadConfig([]string{"-config=" + path})
	require.NoError(t, err)

	assert.Equal(t, "postgres://json/db", cfg.DatabaseDSN)
	assert.Equal(t, ":9102", cfg.MetricsAddr, "empty file values keep defaults")
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	assert.ErrorContains(t, err, "read config")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadConfig([]string{"-c", bad})
	assert.ErrorContains(t, err, "decode config")

	_, err = LoadConfig([]string{"-g="})
	assert.ErrorContains(t, err, "gRPC address")
}
