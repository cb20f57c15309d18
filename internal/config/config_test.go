package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nexus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 500*time.Millisecond, cfg.Timeouts.ProbeTimeout())
	assert.Equal(t, 5*time.Second, cfg.Timeouts.FetchTimeout())
	assert.Equal(t, 60*time.Second, cfg.Timeouts.CrtshTimeout())
	assert.Equal(t, 30*time.Second, cfg.Timeouts.HackertargetTimeout())
	assert.Equal(t, 15*time.Second, cfg.Timeouts.OTXTimeout())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Timeouts, cfg.Timeouts)
	assert.Equal(t, "127.0.0.1:5000", cfg.Server.Listen)
	assert.Empty(t, cfg.Discovery.ExtraSources)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
timeouts:
  fetch: 2s
discovery:
  extra_sources: [OTX, axfr]
server:
  listen: ":8080"
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Timeouts.FetchTimeout())
	assert.Equal(t, "60s", cfg.Timeouts.Crtsh, "unset keys keep their defaults")
	assert.Equal(t, []string{"otx", "axfr"}, cfg.Discovery.ExtraSources)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "timeouts:\n  probe: 450ms\n")
	t.Setenv("NEXUS_TIMEOUTS_PROBE", "300ms")
	t.Setenv("NEXUS_SERVER_LISTEN", "0.0.0.0:9000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, cfg.Timeouts.ProbeTimeout())
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidTimeoutFails(t *testing.T) {
	path := writeFile(t, "timeouts:\n  fetch: soon\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeouts.fetch")
}

func TestValidate_ProbeTimeoutRange(t *testing.T) {
	tests := []struct {
		probe   string
		wantErr bool
	}{
		{"300ms", false},
		{"400ms", false},
		{"500ms", false},
		{"299ms", true},
		{"1s", true},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.Timeouts.Probe = tt.probe
		err := cfg.Validate()
		if tt.wantErr {
			if assert.Error(t, err, tt.probe) {
				assert.Contains(t, err.Error(), "timeouts.probe", tt.probe)
			}
		} else {
			assert.NoError(t, err, tt.probe)
		}
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.UserAgent = ""
	cfg.Timeouts.Probe = "-1s"
	cfg.Discovery.ExtraSources = []string{"shodan", "otx", "otx"}
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"
	cfg.Log.Output = "file"
	cfg.Log.FilePath = ""

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"user_agent",
		"timeouts.probe",
		`unknown source "shodan"`,
		`"otx" listed twice`,
		"log.level",
		"log.format",
		"log.file_path",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestTimeoutAccessor_InvalidIsZero(t *testing.T) {
	assert.Zero(t, TimeoutsConfig{Fetch: "bogus"}.FetchTimeout())
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexus.yaml")
	require.NoError(t, WriteDefault(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	assert.Error(t, WriteDefault(path, false), "existing file is not overwritten")
	assert.NoError(t, WriteDefault(path, true))
}
