// Package config loads shardmesh's runtime configuration: the node pool,
// local directories, and the master vault key.
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	LogLevel       string
	NodeURLs       []string
	MetadataDir    string
	DownloadDir    string
	MasterVaultKey string
	Concurrency    int
}

// LoadConfig loads configuration from an optional YAML file (node roster,
// directories, concurrency). Values set in the file take precedence over
// environment variables, which take precedence over built-in defaults;
// MASTER_VAULT_KEY is read from the environment only.
// configPath may be empty, in which case only env vars and defaults apply.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetDefault("log_level", getEnv("LOG_LEVEL", "info"))
	v.SetDefault("metadata_dir", getEnv("SHARDMESH_METADATA_DIR", "./metadata"))
	v.SetDefault("download_dir", getEnv("SHARDMESH_DOWNLOAD_DIR", "./downloads"))
	v.SetDefault("concurrency", 3)
	v.SetDefault("node_urls", []string{})

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		LogLevel:       strings.ToLower(v.GetString("log_level")),
		NodeURLs:       v.GetStringSlice("node_urls"),
		MetadataDir:    v.GetString("metadata_dir"),
		DownloadDir:    v.GetString("download_dir"),
		MasterVaultKey: os.Getenv("MASTER_VAULT_KEY"),
		Concurrency:    v.GetInt("concurrency"),
	}

	return cfg, nil
}

// getEnv reads an environment variable or returns a default value if unset.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
