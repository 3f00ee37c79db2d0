package motionskel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// maxConfigSize bounds the configuration file size.
const maxConfigSize = 1 << 20

// Config is the JSON form of the processor options.
// Omitted fields keep the value already present on the processor.
type Config struct {
	Threshold    *int    `json:"threshold,omitempty"`
	WindowSize   *int    `json:"window_size,omitempty"`
	IterationCap *int    `json:"iteration_cap,omitempty"`
	Workers      *int    `json:"workers,omitempty"`
	Mode         *string `json:"mode,omitempty"`
	DiffMode     *string `json:"diff_mode,omitempty"`
	Invert       *bool   `json:"invert,omitempty"`
	SkipDiff     *bool   `json:"skip_diff,omitempty"`
}

// LoadConfig reads a configuration file. The file must have a .json extension.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// Apply copies the fields set in the configuration onto p.
func (c *Config) Apply(p *Processor) error {
	if c.Threshold != nil {
		if *c.Threshold < 0 || *c.Threshold > 255 {
			return fmt.Errorf("threshold out of range [0,255]: %d", *c.Threshold)
		}
		p.Threshold = uint8(*c.Threshold)
	}
	if c.WindowSize != nil {
		p.WindowSize = *c.WindowSize
	}
	if c.IterationCap != nil {
		p.IterationCap = *c.IterationCap
	}
	if c.Workers != nil {
		p.Workers = *c.Workers
	}
	if c.Mode != nil {
		m, err := ParseThinningMode(*c.Mode)
		if err != nil {
			return err
		}
		p.Mode = m
	}
	if c.DiffMode != nil {
		m, err := ParseDiffMode(*c.DiffMode)
		if err != nil {
			return err
		}
		p.DiffMode = m
	}
	if c.Invert != nil {
		p.Invert = *c.Invert
	}
	if c.SkipDiff != nil {
		p.SkipDiff = *c.SkipDiff
	}
	return p.Validate()
}
