package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    Server              `mapstructure:"server"`
	Sandbox   Sandbox             `mapstructure:"sandbox"`
	Security  Security            `mapstructure:"security"`
	Logging   Logging             `mapstructure:"logging"`
	Audit     Audit               `mapstructure:"audit"`
	Languages map[string]Language `mapstructure:"languages"`

	// LanguagesFile optionally points at a standalone YAML file with extra
	// language profiles, merged on top of the built-in table.
	LanguagesFile string `mapstructure:"languages_file"`
}

// Server holds the transport configuration
type Server struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// Sandbox holds the container execution configuration
type Sandbox struct {
	Runtime           string  `mapstructure:"runtime"`
	MemoryMB          int     `mapstructure:"memory_mb"`
	CPUs              float64 `mapstructure:"cpus"`
	TmpfsSizeMB       int     `mapstructure:"tmpfs_size_mb"`
	DefaultTimeoutSec int     `mapstructure:"default_timeout_sec"`
	MaxTimeoutSec     int     `mapstructure:"max_timeout_sec"`
	MaxConcurrent     int     `mapstructure:"max_concurrent"`
	WorkspaceDir      string  `mapstructure:"workspace_dir"`
}

// Security holds the submission screening configuration
type Security struct {
	MaxSourceLen int `mapstructure:"max_source_len"`
}

// Logging holds logger configuration
type Logging struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// Audit holds the execution audit sink configuration
type Audit struct {
	Backend string   `mapstructure:"backend"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Language describes how to build and run one supported language
type Language struct {
	Image      string   `mapstructure:"image"`
	SourceFile string   `mapstructure:"source_file"`
	EntryClass string   `mapstructure:"entry_class"`
	CompileCmd []string `mapstructure:"compile_cmd"`
	RunCmd     []string `mapstructure:"run_cmd"`
}

// New loads and validates the application configuration
func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.transport", "stdio")
	viper.SetDefault("server.http_port", 8080)

	viper.SetDefault("sandbox.runtime", "docker")
	viper.SetDefault("sandbox.memory_mb", 128)
	viper.SetDefault("sandbox.cpus", 0.5)
	viper.SetDefault("sandbox.tmpfs_size_mb", 64)
	viper.SetDefault("sandbox.default_timeout_sec", 10)
	viper.SetDefault("sandbox.max_timeout_sec", 60)
	viper.SetDefault("sandbox.max_concurrent", 8)
	viper.SetDefault("sandbox.workspace_dir", "")

	viper.SetDefault("security.max_source_len", 10000)

	viper.SetDefault("logging.mode", "production")
	viper.SetDefault("logging.level", "info")

	viper.SetDefault("audit.backend", "log")
	viper.SetDefault("audit.topic", "execution-audit")

	// Built-in language table; any entry can be overridden from the config file
	viper.SetDefault("languages.java.image", "openjdk:17-slim")
	viper.SetDefault("languages.java.source_file", "Main.java")
	viper.SetDefault("languages.java.entry_class", "Main")
	viper.SetDefault("languages.java.compile_cmd", []string{"javac", "Main.java"})
	viper.SetDefault("languages.java.run_cmd", []string{"java", "Main"})

	viper.SetDefault("languages.python.image", "python:3.11-slim")
	viper.SetDefault("languages.python.source_file", "main.py")
	viper.SetDefault("languages.python.run_cmd", []string{"python3", "main.py"})

	viper.SetDefault("languages.javascript.image", "node:20-alpine")
	viper.SetDefault("languages.javascript.source_file", "main.js")
	viper.SetDefault("languages.javascript.run_cmd", []string{"node", "main.js"})

	viper.SetDefault("languages.cpp.image", "gcc:13")
	viper.SetDefault("languages.cpp.source_file", "main.cpp")
	viper.SetDefault("languages.cpp.compile_cmd", []string{"g++", "-std=c++17", "-O2", "-o", "main", "main.cpp"})
	viper.SetDefault("languages.cpp.run_cmd", []string{"./main"})

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	switch c.Server.Transport {
	case "stdio", "http", "rest":
	default:
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio', 'http' or 'rest'", c.Server.Transport)
	}

	if c.Sandbox.Runtime != "docker" && c.Sandbox.Runtime != "podman" {
		return fmt.Errorf("unsupported sandbox.runtime: %s", c.Sandbox.Runtime)
	}

	if c.Sandbox.MemoryMB <= 0 {
		return fmt.Errorf("sandbox.memory_mb must be positive, got: %d", c.Sandbox.MemoryMB)
	}

	if c.Sandbox.CPUs <= 0 {
		return fmt.Errorf("sandbox.cpus must be positive, got: %g", c.Sandbox.CPUs)
	}

	if c.Sandbox.DefaultTimeoutSec <= 0 {
		return fmt.Errorf("sandbox.default_timeout_sec must be positive, got: %d", c.Sandbox.DefaultTimeoutSec)
	}

	if c.Sandbox.MaxTimeoutSec < c.Sandbox.DefaultTimeoutSec {
		return fmt.Errorf("sandbox.max_timeout_sec must be >= default_timeout_sec, got: %d", c.Sandbox.MaxTimeoutSec)
	}

	if c.Sandbox.MaxConcurrent <= 0 {
		return fmt.Errorf("sandbox.max_concurrent must be positive, got: %d", c.Sandbox.MaxConcurrent)
	}

	if c.Security.MaxSourceLen <= 0 {
		return fmt.Errorf("security.max_source_len must be positive, got: %d", c.Security.MaxSourceLen)
	}

	switch c.Audit.Backend {
	case "log":
	case "kafka":
		if len(c.Audit.Brokers) == 0 {
			return fmt.Errorf("audit.brokers must be set when audit.backend is 'kafka'")
		}
		if c.Audit.Topic == "" {
			return fmt.Errorf("audit.topic must be set when audit.backend is 'kafka'")
		}
	default:
		return fmt.Errorf("unsupported audit.backend: %s", c.Audit.Backend)
	}

	for name, lang := range c.Languages {
		if lang.Image == "" {
			return fmt.Errorf("languages.%s.image must be set", name)
		}
		if lang.SourceFile == "" {
			return fmt.Errorf("languages.%s.source_file must be set", name)
		}
		if len(lang.RunCmd) == 0 {
			return fmt.Errorf("languages.%s.run_cmd must be set", name)
		}
	}

	return nil
}

// DefaultTimeout returns the default execution timeout as a duration
func (c *Config) DefaultTimeout() time.Duration {
	return time.Duration(c.Sandbox.DefaultTimeoutSec) * time.Second
}

// MaxTimeout returns the execution timeout ceiling as a duration
func (c *Config) MaxTimeout() time.Duration {
	return time.Duration(c.Sandbox.MaxTimeoutSec) * time.Second
}
