package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "up", opts.cmd)
	assert.True(t, opts.needsDatabase())

	opts, err = parseOptions([]string{"-cmd", "create", "-name", "add_region"}, io.Discard)
	require.NoError(t, err)
	assert.False(t, opts.needsDatabase())

	for _, args := range [][]string{
		{"-cmd", "create"},
		{"-cmd", "version"},
		{"-cmd", "redo"},
		{"-cmd", "version", "-version", "20240101000000", "-embedded"},
		{"-bogus"},
	} {
		_, err := parseOptions(args, io.Discard)
		assert.ErrorIs(t, err, errUsage, "args %v", args)
	}
}

func TestRunOfflineCreateThenValidate(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, runOffline(options{cmd: "create", dir: dir, name: "add region"}, &out))
	assert.Contains(t, out.String(), "created migration:")

	matches, err := filepath.Glob(filepath.Join(dir, "*_add_region.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	out.Reset()
	require.NoError(t, runOffline(options{cmd: "validate", dir: dir}, &out))
	assert.Contains(t, out.String(), "passed")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.sql"), nil, 0o644))
	require.Error(t, runOffline(options{cmd: "validate", dir: dir}, io.Discard))
}
