/*
Package config reads the optional YAML configuration file used by the
mapchunk command.
*/
package config

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultWorkers is the number of archives decoded concurrently.
	DefaultWorkers = 4

	// DefaultPaletteSize is the number of tints reported by default.
	DefaultPaletteSize = 8
)

// Config holds settings that can otherwise be given on the command line.
type Config struct {
	DB          string `yaml:"db"`
	Workers     int    `yaml:"workers"`
	PaletteSize int    `yaml:"palette_size"`
	Strict      bool   `yaml:"strict"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Workers:     DefaultWorkers,
		PaletteSize: DefaultPaletteSize,
	}
}

// Load reads the configuration at path. Missing or zero values are replaced
// with defaults.
func Load(path string) (Config, error) {
	c := Default()

	b, err := ioutil.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}

	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.PaletteSize <= 0 {
		c.PaletteSize = DefaultPaletteSize
	}

	return c, nil
}
