package fleet

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout of a vehicle profile file:
//
//	default_capacity: 15
//	reserved:
//	  - code: 58.5
//	    name: small-van
//	    capacity: 10
type fileConfig struct {
	DefaultCapacity float64    `yaml:"default_capacity"`
	Reserved        []Reserved `yaml:"reserved"`
}

// LoadFile builds a registry from a YAML profile file. Unknown fields are rejected.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vehicle profiles: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from YAML profile data.
func Parse(data []byte) (*Registry, error) {
	var cfg fileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing vehicle profiles: %w", err)
	}
	return NewRegistry(cfg.Reserved, cfg.DefaultCapacity)
}
