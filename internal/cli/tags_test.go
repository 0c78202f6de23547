package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/segmaker/internal/tags"
)

func writeTagged(t *testing.T) string {
	t.Helper()
	lines := []string{
		`\clef "tenor"`,
		tags.Line(`\once \override Staff.Clef.color = #(x11-color 'blue)`, "EXPLICIT_CLEF_COLOR", false),
		tags.Line(`\set Staff.instrumentName = "Vc."`, "REAPPLIED_INSTRUMENT", false),
		tags.Line(`\override Staff.InstrumentName.color = ##f`, "REAPPLIED_INSTRUMENT_COLOR_CANCELLATION", true),
		"",
	}
	path := filepath.Join(t.TempDir(), "segment.ly")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestTags_DeactivateBySuffix(t *testing.T) {
	path := writeTagged(t)

	out, err := execute(t, "tags", "deactivate", path, "--suffix", "COLOR")
	require.NoError(t, err)
	assert.Contains(t, out, "deactivated 1 line(s) in 1 file(s)")

	text := readFile(t, path)
	assert.Contains(t, text, tags.Deactivated+`\once \override Staff.Clef.color`)
	assert.Contains(t, text, "\n"+`\set Staff.instrumentName`, "other tags untouched")
}

func TestTags_ActivateByStatus(t *testing.T) {
	path := writeTagged(t)

	out, err := execute(t, "tags", "activate", path, "--status", "reapplied")
	require.NoError(t, err)
	assert.Contains(t, out, "activated 1 line(s)")
	assert.NotContains(t, readFile(t, path), tags.Deactivated)
}

func TestTags_ExactTagRoundTrip(t *testing.T) {
	path := writeTagged(t)
	before := readFile(t, path)

	_, err := execute(t, "tags", "deactivate", path, "--tag", "REAPPLIED_INSTRUMENT")
	require.NoError(t, err)
	assert.NotEqual(t, before, readFile(t, path))

	_, err = execute(t, "tags", "activate", path, "--tag", "REAPPLIED_INSTRUMENT")
	require.NoError(t, err)
	assert.Equal(t, before, readFile(t, path))
}

func TestTags_Errors(t *testing.T) {
	path := writeTagged(t)

	_, err := execute(t, "tags", "deactivate", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "select tags")

	_, err = execute(t, "tags", "deactivate", path, "--status", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")

	_, err = execute(t, "tags", "activate", filepath.Join(t.TempDir(), "absent.ly"), "--suffix", "COLOR")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
