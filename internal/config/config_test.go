package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Spacing.Budget != 3*time.Second {
		t.Errorf("budget = %v, want 3s", cfg.Spacing.Budget)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
database:
  path: /tmp/opus.db
segments:
  fermata_measure_staff_line_count: 1
spacing:
  enabled: false
  budget: 500ms
`)

	cfg := NewDefaultConfig()
	require.NoError(t, Load(path, cfg))

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "/tmp/opus.db", cfg.Database.Path)
	assert.Equal(t, "./score", cfg.Score.Dir, "unset fields keep defaults")
	require.NotNil(t, cfg.Segments.FermataMeasureStaffLineCount)
	assert.Equal(t, 1, *cfg.Segments.FermataMeasureStaffLineCount)
	assert.Equal(t, 500*time.Millisecond, cfg.Spacing.Budget)

	opts := cfg.MakerOptions()
	assert.True(t, opts.DisableSpacing)
	assert.Equal(t, 500*time.Millisecond, opts.SpacingBudget)
	assert.Equal(t, 1, *opts.FermataMeasureStaffLineCount)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("SEGMAKER_TEST_DB", "/data/scores.db")
	path := writeConfig(t, "database:\n  path: ${SEGMAKER_TEST_DB}\n")

	cfg := NewDefaultConfig()
	require.NoError(t, Load(path, cfg))
	assert.Equal(t, "/data/scores.db", cfg.Database.Path)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty database path", "database:\n  path: \"\"\n", "path"},
		{"negative line count", "segments:\n  fermata_measure_staff_line_count: -1\n", "fermatameasurestafflinecount"},
		{"zero budget", "spacing:\n  budget: 0s\n", "budget"},
		{"empty output", "score:\n  output: \"\"\n", "output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			err := Load(writeConfig(t, tt.body), cfg)
			require.Error(t, err)
			assert.True(t, strings.Contains(strings.ToLower(err.Error()), tt.want), "error %q should mention %q", err, tt.want)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	cfg := NewDefaultConfig()
	err := Load(filepath.Join(t.TempDir(), "missing.yaml"), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	err = Load(writeConfig(t, "database: [unclosed"), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), cfg))
	assert.Equal(t, "./segmaker.db", cfg.Database.Path)

	bad := &Config{}
	assert.Error(t, LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), bad), "defaults are still validated")
}
