/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

// Package source loads Suricata rules from the configured providers:
// remote archives, local directories and single files. The provider
// list lives in a YAML file next to the service configuration.
package source

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Type selects how a source is fetched.
type Type string

const (
	TypeURL       Type = "url"
	TypeDirectory Type = "directory"
	TypeFile      Type = "file"
)

// Source is one rule provider from the sources file.
type Source struct {
	Name    string `yaml:"name"`
	Type    Type   `yaml:"type"`
	Enabled bool   `yaml:"enabled"`

	// url sources
	URL        string  `yaml:"url"`
	FileType   string  `yaml:"file_type"`
	CacheHours float64 `yaml:"cache_hours"`

	// directory and file sources
	Path           string `yaml:"path"`
	ExcludeSubdirs bool   `yaml:"exclude_subdirs"`
}

// UnmarshalYAML defaults Enabled to true when the key is absent.
func (s *Source) UnmarshalYAML(value *yaml.Node) error {
	type plain Source
	p := plain{Enabled: true}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Source(p)
	return nil
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// Load reads the sources file and returns the enabled providers in
// file order.
func Load(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a sources document and validates each entry.
func Parse(data []byte) ([]Source, error) {
	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	enabled := make([]Source, 0, len(f.Sources))
	for i, s := range f.Sources {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("source %d (%s): %w", i, s.Name, err)
		}
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	return enabled, nil
}

func (s *Source) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch s.Type {
	case TypeURL:
		if s.URL == "" {
			return fmt.Errorf("url is required for url sources")
		}
	case TypeDirectory, TypeFile:
		if s.Path == "" {
			return fmt.Errorf("path is required for %s sources", s.Type)
		}
	default:
		return fmt.Errorf("unknown source type %q", s.Type)
	}
	return nil
}
