package level

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a level from a YAML file.
func Load(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a level from YAML bytes.
func Parse(data []byte) (*Level, error) {
	var l Level
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("invalid level: %w", err)
	}
	return &l, nil
}
