/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package source

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loaderRule = `alert tcp $EXTERNAL_NET any -> $HOME_NET 21 (msg:"ET FTP probe"; sid:%d; rev:1;)`

func __discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func __writeRules(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func __loader(t *testing.T, sources []Source) *Loader {
	t.Helper()
	logger := __discardLogger()
	fetcher, err := NewFetcher(t.TempDir(), logger)
	require.NoError(t, err)
	return NewLoader(sources, fetcher, logger)
}

func loadWalksDirectorySources(t *testing.T) {
	dir := t.TempDir()
	__writeRules(t, filepath.Join(dir, "a.rules"),
		`alert tcp any any -> any 21 (msg:"ET FTP one"; sid:101; rev:1;)`)
	__writeRules(t, filepath.Join(dir, "sub", "b.rules"),
		`alert tcp any any -> any 22 (msg:"ET SCAN two"; sid:102; rev:1;)`)
	__writeRules(t, filepath.Join(dir, "notes.txt"),
		`alert tcp any any -> any 23 (msg:"not a rules file"; sid:103; rev:1;)`)

	loader := __loader(t, []Source{{Name: "local", Type: TypeDirectory, Path: dir}})
	rules, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, rules, 2, "only .rules files are loaded")
	assert.Equal(t, 101, rules[0].SID)
	assert.Equal(t, 102, rules[1].SID)
	assert.Equal(t, "local", rules[0].Source)
	assert.Equal(t, "a.rules", rules[0].SourceFile)
}

func loadHonorsExcludeSubdirs(t *testing.T) {
	dir := t.TempDir()
	__writeRules(t, filepath.Join(dir, "a.rules"),
		`alert tcp any any -> any 21 (msg:"ET FTP one"; sid:101; rev:1;)`)
	__writeRules(t, filepath.Join(dir, "sub", "b.rules"),
		`alert tcp any any -> any 22 (msg:"ET SCAN two"; sid:102; rev:1;)`)

	loader := __loader(t, []Source{
		{Name: "local", Type: TypeDirectory, Path: dir, ExcludeSubdirs: true},
	})
	rules, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, rules, 1)
	assert.Equal(t, 101, rules[0].SID)
}

func loadReadsSingleFileSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.rules")
	__writeRules(t, path,
		`alert tcp any any -> any 21 (msg:"ET FTP one"; sid:101; rev:1;)`)

	loader := __loader(t, []Source{{Name: "custom", Type: TypeFile, Path: path}})
	rules, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, rules, 1)
	assert.Equal(t, "custom", rules[0].Source)
}

func loadSkipsCommentsAndBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.rules")
	__writeRules(t, path,
		"# Emerging Threats rules",
		"",
		`alert tcp any any -> any 21 (msg:"ET FTP one"; sid:101; rev:1;)`,
		"this is not a rule at all",
		`#alert tcp any any -> any 22 (msg:"ET SCAN two"; sid:102; rev:1;)`)

	loader := __loader(t, []Source{{Name: "mixed", Type: TypeFile, Path: path}})
	rules, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, rules, 2, "bad lines are dropped, commented rules kept")
	assert.True(t, rules[0].Enabled)
	assert.False(t, rules[1].Enabled)
}

func loadFailsOnMissingDirectory(t *testing.T) {
	loader := __loader(t, []Source{
		{Name: "gone", Type: TypeDirectory, Path: filepath.Join(t.TempDir(), "absent")},
	})

	_, err := loader.Load(context.Background())
	assert.ErrorContains(t, err, "gone")
}

func TestLoader(t *testing.T) {
	t.Run("Load walks directory sources", loadWalksDirectorySources)
	t.Run("Load honors exclude_subdirs", loadHonorsExcludeSubdirs)
	t.Run("Load reads single file sources", loadReadsSingleFileSources)
	t.Run("Load skips comments and bad lines", loadSkipsCommentsAndBadLines)
	t.Run("Load fails on missing directory", loadFailsOnMissingDirectory)
}
