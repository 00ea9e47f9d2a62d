package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
serverName: test-af
endpoints:
  - name: m1
    address: 0.0.0.0
    port: 7777
    protocol: http2
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "test-af", cfg.ServerName)
	require.Equal(t, 30, cfg.SAICacheControlMaxAge)
	require.Equal(t, 20, cfg.NetworkAssistance.DeliveryBoostSeconds)
}

func TestLoadRejectsInvalidEndpoint(t *testing.T) {
	path := writeTempConfig(t, `
serverName: test-af
endpoints:
  - name: m1
    port: 99999
    protocol: bogus
`)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "port")
	require.Contains(t, err.Error(), "protocol")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
