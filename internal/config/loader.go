package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads, env-expands, and validates configuration from a YAML file.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if err := VerifySidecarChecksum(absPath, data); err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(interpolateEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", absPath, err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// interpolateEnv substitutes ${VAR} references with environment values.
// Unset variables expand to the empty string; for the webhook secret that
// means fail-closed at request time rather than a silent bypass.
func interpolateEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

func validate(cfg *Config) error {
	if cfg.Service.Name == "" {
		return fmt.Errorf("service.name is empty")
	}
	if cfg.Ingest.Listen == "" {
		return fmt.Errorf("ingest.listen is empty")
	}
	if cfg.Ingest.SignatureHeader == "" {
		return fmt.Errorf("ingest.signature_header is empty")
	}
	if cfg.Store.Path == "" {
		return fmt.Errorf("store.path is empty")
	}
	if _, err := cfg.MaxBodyBytes(); err != nil {
		return fmt.Errorf("ingest.max_body_size: %w", err)
	}
	return nil
}

// DefaultMaxBodyBytes applies when max_body_size is unset.
const DefaultMaxBodyBytes = 1 << 20 // 1 MiB

// MaxBodyBytes parses ingest.max_body_size ("1MB", "512KB", "2097152") into
// bytes. Returns DefaultMaxBodyBytes if unset.
func (c *Config) MaxBodyBytes() (int64, error) {
	size := c.Ingest.MaxBodySize
	if size == "" {
		return DefaultMaxBodyBytes, nil
	}

	upper := strings.ToUpper(size)
	multiplier := int64(1)

	if strings.HasSuffix(upper, "KB") {
		multiplier = 1024
		size = strings.TrimSuffix(upper, "KB")
	} else if strings.HasSuffix(upper, "MB") {
		multiplier = 1024 * 1024
		size = strings.TrimSuffix(upper, "MB")
	} else if strings.HasSuffix(upper, "GB") {
		multiplier = 1024 * 1024 * 1024
		size = strings.TrimSuffix(upper, "GB")
	}

	value, err := strconv.ParseInt(strings.TrimSpace(size), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}

	result := value * multiplier
	if result < 0 { // overflow
		return 0, fmt.Errorf("size too large")
	}
	return result, nil
}
