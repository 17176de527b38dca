package config

// Config represents the complete ingest-gw configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Store   StoreConfig   `yaml:"store"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LockPath  string `yaml:"lock_path,omitempty"`
}

// IngestConfig defines the webhook listener settings.
type IngestConfig struct {
	Listen string `yaml:"listen"`

	// SignatureHeader is the HTTP header carrying the HMAC signature.
	SignatureHeader string `yaml:"signature_header"`

	// Secret is the shared HMAC secret. Usually supplied via env expansion,
	// e.g. "${INGEST_WEBHOOK_SECRET}". An empty secret does not disable
	// verification: every delivery is rejected as misconfigured.
	Secret string `yaml:"secret"`

	// MaxBodySize is the maximum request body, e.g. "1MB" or "2097152".
	MaxBodySize string `yaml:"max_body_size,omitempty"`
}

// StoreConfig defines event store settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "ingest-gw",
			LogLevel:  "info",
			LogFormat: "json",
			LockPath:  "./data/ingest-gw.pid",
		},
		Ingest: IngestConfig{
			Listen:          "127.0.0.1:8080",
			SignatureHeader: "X-Signature",
			MaxBodySize:     "1MB",
		},
		Store: StoreConfig{
			Path: "./data/events.db",
		},
	}
}
