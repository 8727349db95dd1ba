package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	API     APIConfig     `yaml:"api"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
	Browser BrowserConfig `yaml:"browser"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// APIConfig points at the upstream contract parse/persistence service.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// AuthConfig points at the token-issuing auth provider.
type AuthConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StorageConfig selects the document-listing backend. Mode "azure"
// queries the blob-listing service over HTTP; mode "minio" lists a
// bucket directly.
type StorageConfig struct {
	Mode  string      `yaml:"mode"`
	Azure AzureConfig `yaml:"azure"`
	Minio MinioConfig `yaml:"minio"`
}

type AzureConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// BrowserConfig names the single identity allowed to browse the whole
// storage tree; everyone else is confined to their own folder.
type BrowserConfig struct {
	AdminUsername string `yaml:"admin_username"`
}

// Storage modes
const (
	StorageModeAzure = "azure"
	StorageModeMinio = "minio"
)

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.API.TimeoutSeconds == 0 {
		cfg.API.TimeoutSeconds = 60
	}
	if cfg.Auth.TimeoutSeconds == 0 {
		cfg.Auth.TimeoutSeconds = 15
	}
	if cfg.Storage.Mode == "" {
		cfg.Storage.Mode = StorageModeAzure
	}
	if cfg.Storage.Azure.TimeoutSeconds == 0 {
		cfg.Storage.Azure.TimeoutSeconds = 30
	}

	GlobalConfig = &cfg
	return &cfg, nil
}
