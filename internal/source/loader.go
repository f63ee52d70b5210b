/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/suriview/suriview/internal/rule"
)

// Loader turns the configured sources into a flat rule slice.
type Loader struct {
	sources []Source
	fetcher *Fetcher
	logger  *slog.Logger
}

func NewLoader(sources []Source, fetcher *Fetcher, logger *slog.Logger) *Loader {
	return &Loader{sources: sources, fetcher: fetcher, logger: logger}
}

// Load fetches url sources, walks directory and file sources, and
// parses every .rules file found. Per-line parse failures are counted
// and logged, never fatal.
func (l *Loader) Load(ctx context.Context) ([]rule.Rule, error) {
	urlDirs, err := l.fetcher.FetchAll(ctx, l.sources)
	if err != nil {
		return nil, err
	}

	var rules []rule.Rule
	for _, src := range l.sources {
		var files []string
		var err error

		switch src.Type {
		case TypeURL:
			files, err = ruleFiles(urlDirs[src.Name], false)
		case TypeDirectory:
			files, err = ruleFiles(src.Path, src.ExcludeSubdirs)
		case TypeFile:
			files = []string{src.Path}
		}
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}

		before := len(rules)
		for _, file := range files {
			parsed, err := l.loadFile(file, src.Name)
			if err != nil {
				return nil, fmt.Errorf("source %s: %w", src.Name, err)
			}
			rules = append(rules, parsed...)
		}
		l.logger.Info("loaded source",
			"source", src.Name, "files", len(files), "rules", len(rules)-before)
	}
	return rules, nil
}

// ruleFiles collects .rules files under root, sorted by path for a
// deterministic load order.
func ruleFiles(root string, excludeSubdirs bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if excludeSubdirs && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".rules") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (l *Loader) loadFile(path, sourceName string) ([]rule.Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rules []rule.Rule
	failed := 0
	base := filepath.Base(path)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		r, err := rule.ParseLine(scanner.Text(), sourceName, base)
		if err != nil {
			if errors.Is(err, rule.ErrSkip) {
				continue
			}
			failed++
			continue
		}
		rules = append(rules, *r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}

	if failed > 0 {
		l.logger.Warn("skipped unparseable rules",
			"file", base, "source", sourceName, "count", failed)
	}
	return rules, nil
}
