package agast

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.False(t, cfg.GetBool("vm.emit_effects"))
	assert.False(t, cfg.GetBool("vm.trace"))
	assert.Equal(t, "info", cfg.GetString("log.level"))
	assert.Equal(t, 4096, cfg.GetInt("source.window"))

	assert.Panics(t, func() { cfg.GetInt("vm.trace") })
	assert.Panics(t, func() { cfg.GetBool("vm.missing") })
}

func TestConfigLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agast.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vm:
  trace: true
log.format: json
source:
  window: 128
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.GetBool("vm.trace"))
	assert.Equal(t, "json", cfg.GetString("log.format"))
	assert.Equal(t, 128, cfg.GetInt("source.window"))
	assert.False(t, cfg.GetBool("vm.emit_effects"))
}

func TestConfigLoadWrongType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agast.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vm: {trace: 3}\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setting `vm.trace` is a bool, not a int")
}

func TestConfigSetFromString(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.SetFromString("vm.emit_effects", "true"))
	require.NoError(t, cfg.SetFromString("source.window", "10"))
	require.NoError(t, cfg.SetFromString("log.level", "10"))
	assert.True(t, cfg.GetBool("vm.emit_effects"))
	assert.Equal(t, 10, cfg.GetInt("source.window"))
	assert.Equal(t, "10", cfg.GetString("log.level"))

	assert.Error(t, cfg.SetFromString("source.window", "ten"))
	assert.Error(t, cfg.SetFromString("vm.unknown", "1"))
}

func TestConfigDebug(t *testing.T) {
	var out bytes.Buffer
	NewConfig().Debug(&out)
	assert.Contains(t, out.String(), "Configuration\n")
	assert.Contains(t, out.String(), "vm.trace          : false (bool)\n")
}
