package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/segmaker/internal/ir"
)

func TestLoadScoreDirectory(t *testing.T) {
	res, err := Load(filepath.Join("testdata", "opus"))
	require.NoError(t, err)

	assert.Len(t, res.Files, 2)
	def := res.Definition
	assert.Equal(t, "opus", def.Score)
	require.Len(t, def.Segments, 2)

	first := def.Segments[0]
	assert.Equal(t, []string{"4/4", "4/4"}, first.TimeSignatures)
	require.Len(t, first.Rhythms, 1)
	assert.Len(t, first.Rhythms[0].Leaves, 8, "comprehension output is expanded")
	assert.Equal(t, "d'", first.Rhythms[0].Leaves[1].Pitch)
	require.Len(t, first.Commands, 2)
	assert.Equal(t, ir.CommandMetronomeMark, first.Commands[0].Type)

	second := def.Segments[1]
	assert.Equal(t, []int{2}, second.FermataMeasures)
	require.NotNil(t, second.FermataMeasureStaffLineCount)
	assert.Equal(t, 1, *second.FermataMeasureStaffLineCount)
	require.Len(t, second.Template.Staves, 2)
	assert.Equal(t, "Cello", second.Template.Staves[1].Name)
	assert.Len(t, second.Manifests.Instruments, 2)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope"))
		var ce *CompileError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "dir", ce.Field)
	})

	t.Run("not a directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "score.cue")
		require.NoError(t, os.WriteFile(path, []byte("package x"), 0644))
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("no cue files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
		_, err := Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no CUE files")
	})

	t.Run("syntax error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte("package x\nscore: {"), 0644))
		_, err := Load(dir)
		var ce *CompileError
		require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
	})
}

func TestFindCUEFilesSkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sketches")
	require.NoError(t, os.MkdirAll(sub, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "score.cue"), []byte("package x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "old.cue"), []byte("package y"), 0644))

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "score.cue")}, files)
}
