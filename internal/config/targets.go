package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mediavault/mount-sentinel/internal/health"
)

// TargetsFile is the parsed YAML structure for the monitored mount list:
// targets: [{name, path}]
type TargetsFile struct {
	Targets []health.Target `yaml:"targets"`
}

// DefaultTargets returns the reference mount set monitored when no targets
// file is configured.
func DefaultTargets() []health.Target {
	return []health.Target{
		{Name: "Docker", Path: "/mnt/nas-media/volume1/docker"},
		{Name: "Videos", Path: "/mnt/nas-media/volume1/videos"},
	}
}

// LoadTargets parses a YAML targets file from the given path. Returns the
// default target set if path is empty. Order in the file is the order
// targets are processed in.
func LoadTargets(path string) ([]health.Target, error) {
	if path == "" {
		return DefaultTargets(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}

	var tf TargetsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse targets file: %w", err)
	}

	if err := validateTargets(tf.Targets); err != nil {
		return nil, err
	}

	return tf.Targets, nil
}

// validateTargets ensures all targets are valid.
func validateTargets(targets []health.Target) error {
	if len(targets) == 0 {
		return fmt.Errorf("targets file contains no targets")
	}

	seenPaths := make(map[string]bool)
	seenNames := make(map[string]bool)

	for i, target := range targets {
		if target.Name == "" {
			return fmt.Errorf("target %d: name is required", i)
		}

		if target.Path == "" {
			return fmt.Errorf("target %q: path is required", target.Name)
		}

		if !filepath.IsAbs(target.Path) {
			return fmt.Errorf("target %q: path must be absolute", target.Name)
		}

		if seenPaths[target.Path] {
			return fmt.Errorf("target %q: duplicate path %s", target.Name, target.Path)
		}
		seenPaths[target.Path] = true

		if seenNames[target.Name] {
			return fmt.Errorf("target %q: duplicate name", target.Name)
		}
		seenNames[target.Name] = true
	}

	return nil
}
