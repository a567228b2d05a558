// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/heappack/heappack/lib/clock"
)

// Options configures a Store. The YAML-tagged fields can be loaded
// from a config file; the rest are wired up by the embedding program.
type Options struct {
	// Dir is the store directory. Created if absent.
	Dir string `yaml:"dir"`

	// Compression names the algorithm for newly stored records:
	// "none", "lz4", or "zstd". Defaults to lz4. Records already in
	// the store keep whatever tag they were written with.
	Compression string `yaml:"compression"`

	// Logger receives one line per store mutation. Nil disables
	// logging.
	Logger *slog.Logger `yaml:"-"`

	// Clock supplies manifest timestamps. Nil means the wall clock.
	Clock clock.Clock `yaml:"-"`
}

// LoadOptions reads Options from a YAML file.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading store options: %w", err)
	}
	opts := &Options{}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("parsing store options %s: %w", path, err)
	}
	return opts, nil
}

// normalize resolves defaults and validates the loadable fields.
func (o *Options) normalize() (CompressionTag, clock.Clock, error) {
	if o.Dir == "" {
		return 0, nil, fmt.Errorf("store directory not set")
	}
	tag := CompressionLZ4
	if o.Compression != "" {
		parsed, err := ParseCompressionTag(o.Compression)
		if err != nil {
			return 0, nil, err
		}
		tag = parsed
	}
	clk := o.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return tag, clk, nil
}
