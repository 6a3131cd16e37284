package pipeline

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Configuration errors.
var (
	// ErrChunkSize is returned when the configured chunk size is not
	// positive.
	ErrChunkSize = errors.New("pipeline: chunk_size must be positive")

	// ErrMemoryBudget is returned when the configured memory budget is
	// not positive.
	ErrMemoryBudget = errors.New("pipeline: memory_budget must be positive")

	// ErrSplitThreshold is returned when the configured split threshold
	// is negative.
	ErrSplitThreshold = errors.New("pipeline: split_threshold must not be negative")
)

// Config bounds the body-splitting behavior of a Pipeline.
type Config struct {
	// ChunkSize is the target size of each transmitted part in bytes.
	ChunkSize int64 `yaml:"chunk_size"`

	// MemoryBudget caps the bytes buffered in flight by the splitter.
	MemoryBudget int64 `yaml:"memory_budget"`

	// SplitThreshold is the size above which a known-length body is
	// split. Bodies of unknown length are always split. Zero splits
	// every streaming body.
	SplitThreshold int64 `yaml:"split_threshold"`
}

// DefaultConfig returns the default split bounds: 8 MiB chunks, a
// 64 MiB in-flight budget, and splitting only bodies larger than one
// chunk.
func DefaultConfig() Config {
	return Config{
		ChunkSize:      8 << 20,
		MemoryBudget:   64 << 20,
		SplitThreshold: 8 << 20,
	}
}

// Validate reports the first invalid field, if any.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return ErrChunkSize
	}
	if c.MemoryBudget <= 0 {
		return ErrMemoryBudget
	}
	if c.SplitThreshold < 0 {
		return ErrSplitThreshold
	}
	return nil
}

// ParseConfig decodes a YAML document into a Config, applying defaults
// for absent fields and validating the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("pipeline: parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
