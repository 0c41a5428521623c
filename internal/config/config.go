package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// Mining thresholds. These are operator settings; the dashboard never exposes them.
	MinSupport    float64 `mapstructure:"min_support" yaml:"min_support"`
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
	MinLift       float64 `mapstructure:"min_lift" yaml:"min_lift"`
	MinLength     int     `mapstructure:"min_length" yaml:"min_length"`
	MaxLength     int     `mapstructure:"max_length" yaml:"max_length"`

	// Dashboard
	ServerAddr    string `mapstructure:"server_addr" yaml:"server_addr"`
	SessionSecret string `mapstructure:"session_secret" yaml:"session_secret"`
	CookieSecure  bool   `mapstructure:"cookie_secure" yaml:"cookie_secure"`
	MaxUploadMB   int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	// Word cloud
	DefaultWords int   `mapstructure:"default_words" yaml:"default_words"`
	CloudWidth   int   `mapstructure:"cloud_width" yaml:"cloud_width"`
	CloudHeight  int   `mapstructure:"cloud_height" yaml:"cloud_height"`
	CloudSeed    int64 `mapstructure:"cloud_seed" yaml:"cloud_seed"`

	ExportDB string `mapstructure:"export_db" yaml:"export_db"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".basketlens"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.basketlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("BASKETLENS")
	v.AutomaticEnv()

	// Mining defaults match the dashboard's fixed thresholds.
	v.SetDefault("min_support", 0.003)
	v.SetDefault("min_confidence", 0.1)
	v.SetDefault("min_lift", 3.0)
	v.SetDefault("min_length", 2)
	v.SetDefault("max_length", 0)
	v.SetDefault("server_addr", "127.0.0.1:8501")
	v.SetDefault("session_secret", "")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("max_upload_mb", 32)
	v.SetDefault("default_words", 10)
	v.SetDefault("cloud_width", 400)
	v.SetDefault("cloud_height", 200)
	v.SetDefault("cloud_seed", 1)
	v.SetDefault("export_db", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve data_dir default: ~/.basketlens/datasets
	if c.DataDir == "" {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		c.DataDir = filepath.Join(dir, "datasets")
	}
	return &c, nil
}
