// Package config reads the optional nepl.yaml project manifest and resolves
// the defaults it carries against CLI flags: an indent width, a compile
// target, an entry name, and a profile name (carried in Defaults; no
// compiler stage reads it). Grounded
// on ailang's internal/eval_harness config loader (os.ReadFile followed by
// yaml.Unmarshal into a tagged struct).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults is the manifest's contents plus whatever CLI flags overrode. The
// driver applies it after the fact: IndentWidth fills the parsed module's
// indent unit when that is zero, and Target/Entry fill the checked module's
// target and entry names when those are empty. The rest of the core never
// touches YAML or flag.FlagSet directly.
type Defaults struct {
	IndentWidth int    `yaml:"indent_width"`
	Target      string `yaml:"target"`
	Profile     string `yaml:"profile"`
	Entry       string `yaml:"entry"`
}

// manifest is the on-disk shape of nepl.yaml. Its zero value (an absent
// file) yields DefaultDefaults unchanged.
type manifest struct {
	IndentWidth int    `yaml:"indent_width"`
	Target      string `yaml:"target"`
	Profile     string `yaml:"profile"`
	Entry       string `yaml:"entry"`
}

// DefaultDefaults is what a project with no nepl.yaml gets.
func DefaultDefaults() Defaults {
	return Defaults{IndentWidth: 2, Target: "wasm", Profile: "default"}
}

// Load reads and parses path. A missing file is not an error: it returns
// DefaultDefaults unchanged, so a project that never adopted a manifest
// keeps compiling exactly as before.
func Load(path string) (Defaults, error) {
	d := DefaultDefaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return d, fmt.Errorf("read nepl manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return d, fmt.Errorf("parse nepl manifest %s: %w", path, err)
	}
	if m.IndentWidth > 0 {
		d.IndentWidth = m.IndentWidth
	}
	if m.Target != "" {
		d.Target = m.Target
	}
	if m.Profile != "" {
		d.Profile = m.Profile
	}
	if m.Entry != "" {
		d.Entry = m.Entry
	}
	return d, nil
}

// Override applies CLI flag values on top of manifest/default values.
// Empty-string/zero flag values mean "not set" and leave d unchanged, so
// callers can pass flag.Lookup results straight through without checking
// whether the user actually supplied them.
func (d Defaults) Override(target, profile, entry string, indentWidth int) Defaults {
	if indentWidth > 0 {
		d.IndentWidth = indentWidth
	}
	if target != "" {
		d.Target = target
	}
	if profile != "" {
		d.Profile = profile
	}
	if entry != "" {
		d.Entry = entry
	}
	return d
}
