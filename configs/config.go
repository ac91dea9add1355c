package configs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Transport names accepted in MCP_TRANSPORT.
const (
	TransportHTTP   = "http"   // SSE over HTTP
	TransportStream = "stream" // streamable HTTP
	TransportStdio  = "stdio"
)

// FileConfig defines the structure loaded from the YAML configuration file.
type FileConfig struct {
	Instructions  string   `yaml:"instructions"`
	DisabledTools []string `yaml:"disabled_tools"`
	// SchemaOverrides maps a tool name to its input schema: JSON text, a type
	// name, or an inline YAML mapping.
	SchemaOverrides map[string]interface{} `yaml:"schema_overrides"`
}

// Config holds the final application configuration, merged from file and environment variables.
// Fields are loaded from environment variables with the prefix "MCP_"; the
// unprefixed name is accepted as a fallback.
type Config struct {
	// Config File Path (Loaded first from env)
	ConfigFilePath string `envconfig:"CONFIG_FILE"`

	// File-loaded fields
	Instructions    string            `ignored:"true"`
	DisabledTools   []string          `ignored:"true"`
	SchemaOverrides map[string]string `ignored:"true"`

	// Environment-overridable fields
	ServerName               string        `envconfig:"SERVER_NAME" default:"MCP Server"`
	ServerVersion            string        `envconfig:"SERVER_VERSION" default:"1.0.0"`
	Transport                string        `envconfig:"TRANSPORT" default:"http"`
	Host                     string        `envconfig:"HOST" default:"127.0.0.1"`
	Port                     int           `envconfig:"PORT" default:"8090"`
	AdminAddr                string        `envconfig:"ADMIN_ADDR" default:"127.0.0.1:8091"`
	SAPI                     string        `envconfig:"SAPI" default:"cli"`
	AppEnv                   string        `envconfig:"APP_ENV" default:"local"`
	ShutdownTimeout          time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	ServerReadTimeout        time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"5s"`
	ServerIdleTimeout        time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
	OtelExporterOtlpEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	LogLevel                 string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFile                  string        `envconfig:"LOG_FILE" default:"/tmp/mcpboot.log"`
}

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// TransportKind returns the normalized transport. Unknown values select stdio.
func (c *Config) TransportKind() string {
	switch strings.ToLower(strings.TrimSpace(c.Transport)) {
	case TransportHTTP:
		return TransportHTTP
	case TransportStream:
		return TransportStream
	default:
		return TransportStdio
	}
}

// Addr returns the listen address of the HTTP transports.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// IsProduction reports whether the application runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production") || strings.EqualFold(c.AppEnv, "prod")
}

// CanServeMCP reports whether the process was started as an MCP server.
func (c *Config) CanServeMCP() bool {
	return c.SAPI == "mcp"
}

// Load loads configuration first from environment variables (to get file path),
// then from the specified YAML file, and finally merges/overrides with environment variables again.
func Load() (*Config, error) {
	var initialCfg Config
	if err := envconfig.Process("mcp", &initialCfg); err != nil {
		return nil, fmt.Errorf("failed to process initial environment variables: %w", err)
	}

	fileCfg := FileConfig{}
	if initialCfg.ConfigFilePath != "" {
		yamlFile, err := os.ReadFile(initialCfg.ConfigFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
		if err := yaml.Unmarshal(yamlFile, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
		slog.Info("Loaded configuration from file.", "path", initialCfg.ConfigFilePath)
	}

	finalCfg := initialCfg
	finalCfg.Instructions = fileCfg.Instructions
	finalCfg.DisabledTools = fileCfg.DisabledTools

	// Schema overrides may be written as a string or as an inline mapping.
	finalCfg.SchemaOverrides = make(map[string]string, len(fileCfg.SchemaOverrides))
	for name, override := range fileCfg.SchemaOverrides {
		switch v := override.(type) {
		case string:
			finalCfg.SchemaOverrides[name] = v
		case map[string]interface{}:
			text, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("failed to encode schema override for tool '%s': %w", name, err)
			}
			finalCfg.SchemaOverrides[name] = string(text)
		default:
			slog.Warn("Ignoring invalid schema override format", "tool_name", name, "override", override)
		}
	}

	// Process environment variables AGAIN to allow overrides over file settings.
	if err := envconfig.Process("mcp", &finalCfg); err != nil {
		return nil, fmt.Errorf("failed to process overriding environment variables: %w", err)
	}
	finalCfg.ServerName = strings.TrimSpace(finalCfg.ServerName)
	finalCfg.ServerVersion = strings.TrimSpace(finalCfg.ServerVersion)

	return &finalCfg, nil
}
