package server

import (
	"os"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ubermorgenland/pangolin-mcp/pkg/client"
	"github.com/ubermorgenland/pangolin-mcp/pkg/database"
	"github.com/ubermorgenland/pangolin-mcp/pkg/loader"
)

// Environment variables read by ApplyEnv.
const (
	EnvOpenAPIFile = "PANGOLIN_OPENAPI_FILE"
	EnvOpenAPIJSON = "PANGOLIN_OPENAPI_JSON"
	EnvOpenAPIName = "PANGOLIN_OPENAPI_NAME"
	EnvAPIKey      = "PANGOLIN_API_KEY"
	EnvBaseURL     = "PANGOLIN_BASE_URL"
	EnvReadOnly    = "PANGOLIN_READ_ONLY"
	EnvHTTPAddr    = "PANGOLIN_HTTP_ADDR"
	EnvLogLevel    = "PANGOLIN_LOG_LEVEL"
	EnvLogFormat   = "PANGOLIN_LOG_FORMAT"
	EnvDatabaseURL = "DATABASE_URL"
	EnvConfig      = "PANGOLIN_CONFIG"
)

// Config holds server configuration
type Config struct {
	OpenAPIFile string `yaml:"openapi_file"`
	OpenAPIJSON string `yaml:"openapi_json"`
	OpenAPIName string `yaml:"openapi_name"`
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	ReadOnly    bool   `yaml:"read_only"`
	HTTPAddr    string `yaml:"http_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	DatabaseURL string `yaml:"database_url"`
}

// DefaultConfig returns the configuration used before any file, env or flag is applied.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// LoadConfigFile overlays the YAML file at path onto c. Keys absent from the
// file leave the current values untouched.
func (c *Config) LoadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return Wrap(err, ErrorTypeValidation, "failed to read config file")
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return Wrap(err, ErrorTypeValidation, "failed to parse config file")
	}
	return nil
}

// ApplyEnv overlays environment values onto c. lookup is usually os.LookupEnv.
// Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		EnvOpenAPIFile: &c.OpenAPIFile,
		EnvOpenAPIJSON: &c.OpenAPIJSON,
		EnvOpenAPIName: &c.OpenAPIName,
		EnvAPIKey:      &c.APIKey,
		EnvBaseURL:     &c.BaseURL,
		EnvHTTPAddr:    &c.HTTPAddr,
		EnvLogLevel:    &c.LogLevel,
		EnvLogFormat:   &c.LogFormat,
		EnvDatabaseURL: &c.DatabaseURL,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvReadOnly); ok && v != "" {
		b, err := ParseBool(v)
		if err != nil {
			return Wrap(err, ErrorTypeValidation, "invalid "+EnvReadOnly)
		}
		c.ReadOnly = b
	}
	return nil
}

// ParseBool accepts the strconv forms plus yes/no and on/off, case-insensitively.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return cast.ToBoolE(strings.ToLower(strings.TrimSpace(s)))
}

// Source returns the document source selected by c.
func (c *Config) Source() loader.Source {
	return loader.Source{File: c.OpenAPIFile, Inline: c.OpenAPIJSON, Name: c.OpenAPIName}
}

// HTTPMode reports whether the streamable HTTP transport is selected.
func (c *Config) HTTPMode() bool {
	return c.HTTPAddr != ""
}

// Mode returns "read-only" or "read-write".
func (c *Config) Mode() string {
	return modeName(c.ReadOnly)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.ValidateSource(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return NewError(ErrorTypeValidation, "API key is required", "set --api-key or "+EnvAPIKey)
	}
	if c.BaseURL == "" {
		return NewError(ErrorTypeValidation, "base URL is required", "set --base-url or "+EnvBaseURL)
	}
	if err := client.ValidateBaseURL(c.BaseURL); err != nil {
		return Wrap(err, ErrorTypeValidation, "invalid base URL")
	}
	return nil
}

// ValidateSource checks the document source alone. Used by commands that
// never contact the API.
func (c *Config) ValidateSource() error {
	n := 0
	for _, s := range []string{c.OpenAPIFile, c.OpenAPIJSON, c.OpenAPIName} {
		if s != "" {
			n++
		}
	}
	if n == 0 {
		return NewError(ErrorTypeValidation, "no OpenAPI document provided",
			"set one of --openapi, --openapi-json or --openapi-name")
	}
	if n > 1 {
		return NewError(ErrorTypeValidation, "more than one OpenAPI document source provided",
			"use only one of --openapi, --openapi-json or --openapi-name")
	}
	if c.OpenAPIName != "" && c.DatabaseURL == "" {
		return NewError(ErrorTypeValidation, "DATABASE_URL is required for stored specs",
			"set --database-url or "+EnvDatabaseURL)
	}
	return nil
}

// LogConfiguration logs the current configuration with secrets masked
func (c *Config) LogConfiguration(logger *zap.Logger) {
	fields := []zap.Field{
		zap.String("base_url", c.BaseURL),
		zap.Bool("api_key_set", c.APIKey != ""),
		zap.String("mode", c.Mode()),
	}
	switch {
	case c.OpenAPIFile != "":
		fields = append(fields, zap.String("openapi_file", c.OpenAPIFile))
	case c.OpenAPIJSON != "":
		fields = append(fields, zap.Int("openapi_json_bytes", len(c.OpenAPIJSON)))
	case c.OpenAPIName != "":
		fields = append(fields, zap.String("openapi_name", c.OpenAPIName))
	}
	if c.DatabaseURL != "" {
		fields = append(fields, zap.String("database_url", database.RedactDSN(c.DatabaseURL)))
	}
	if c.HTTPMode() {
		fields = append(fields, zap.String("http_addr", c.HTTPAddr))
	} else {
		fields = append(fields, zap.String("transport", "stdio"))
	}
	logger.Info("Configuration loaded", fields...)
}

func modeName(readOnly bool) string {
	if readOnly {
		return "read-only"
	}
	return "read-write"
}

