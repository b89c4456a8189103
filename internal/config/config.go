package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds the entire configuration for the jvserve dispatch server.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Webhook WebhookConfig `yaml:"webhook"`
	Files   FilesConfig   `yaml:"files"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port pair the server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthConfig holds the service identity used for the server's own login and
// registration calls, plus the API key accepted on the action walker route.
type AuthConfig struct {
	// BaseURL is the auth service endpoint root (login/register live under it).
	BaseURL string `yaml:"base_url"`
	// Email and Password identify the server's own service user.
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	// ActionAPIKey is accepted as a bearer token on protected routes. Empty
	// leaves only the cached service token usable.
	ActionAPIKey string `yaml:"action_api_key"`
}

// WebhookConfig holds the secret that seeds the routing-key cipher alphabet.
type WebhookConfig struct {
	SecretKey string `yaml:"secret_key"`
}

// FilesConfig selects and parameterizes the file storage backend.
type FilesConfig struct {
	// Backend is "local" or "s3". Chosen once at startup.
	Backend   string   `yaml:"backend"`
	RootPath  string   `yaml:"root_path"`
	PublicURL string   `yaml:"public_url"`
	S3        S3Config `yaml:"s3"`
}

// S3Config holds remote object store settings.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	// EndpointURL overrides the AWS endpoint for S3-compatible stores.
	EndpointURL string `yaml:"endpoint_url"`
}

// StorageConfig holds the anchor store settings.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// envOverrides is the JIVAS_* environment block. Environment variables take
// precedence over YAML config values.
type envOverrides struct {
	User              string `envconfig:"USER"`
	Password          string `envconfig:"PASSWORD"`
	AuthBaseURL       string `envconfig:"AUTH_BASE_URL"`
	ActionAPIKey      string `envconfig:"ACTION_API_KEY"`
	WebhookSecretKey  string `envconfig:"WEBHOOK_SECRET_KEY"`
	FileInterface     string `envconfig:"FILE_INTERFACE"`
	FilesRootPath     string `envconfig:"FILES_ROOT_PATH"`
	FilesURL          string `envconfig:"FILES_URL"`
	S3BucketName      string `envconfig:"S3_BUCKET_NAME"`
	S3RegionName      string `envconfig:"S3_REGION_NAME"`
	S3AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3EndpointURL     string `envconfig:"S3_ENDPOINT_URL"`
	DatabasePath      string `envconfig:"DATABASE_PATH"`
	LogLevel          string `envconfig:"LOG_LEVEL"`
}

// Default returns the configuration used when no YAML file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8000},
		Auth:   AuthConfig{BaseURL: "http://localhost:8000"},
		// The fallback secret matches the historical default so previously
		// issued webhook keys keep decoding on unconfigured installs.
		Webhook: WebhookConfig{SecretKey: "ABCDEFGHIJK"},
		Files: FilesConfig{
			Backend:   "local",
			RootPath:  ".files",
			PublicURL: "http://localhost:9000/files",
			S3:        S3Config{Region: "us-east-1"},
		},
		Storage: StorageConfig{DatabasePath: "jvserve.db"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads the configuration from an optional YAML file and applies the
// JIVAS_* environment block on top. An empty path skips the file entirely.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %s: %w", configPath, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("jivas", &env); err != nil {
		return fmt.Errorf("failed to parse JIVAS environment variables: %w", err)
	}

	if env.User != "" {
		cfg.Auth.Email = env.User
	}
	if env.Password != "" {
		cfg.Auth.Password = env.Password
	}
	if env.AuthBaseURL != "" {
		cfg.Auth.BaseURL = env.AuthBaseURL
	}
	if env.ActionAPIKey != "" {
		cfg.Auth.ActionAPIKey = env.ActionAPIKey
	}
	if env.WebhookSecretKey != "" {
		cfg.Webhook.SecretKey = env.WebhookSecretKey
	}
	if env.FileInterface != "" {
		cfg.Files.Backend = env.FileInterface
	}
	if env.FilesRootPath != "" {
		cfg.Files.RootPath = env.FilesRootPath
	}
	if env.FilesURL != "" {
		cfg.Files.PublicURL = env.FilesURL
	}
	if env.S3BucketName != "" {
		cfg.Files.S3.Bucket = env.S3BucketName
	}
	if env.S3RegionName != "" {
		cfg.Files.S3.Region = env.S3RegionName
	}
	if env.S3AccessKeyID != "" {
		cfg.Files.S3.AccessKeyID = env.S3AccessKeyID
	}
	if env.S3SecretAccessKey != "" {
		cfg.Files.S3.SecretAccessKey = env.S3SecretAccessKey
	}
	if env.S3EndpointURL != "" {
		cfg.Files.S3.EndpointURL = env.S3EndpointURL
	}
	if env.DatabasePath != "" {
		cfg.Storage.DatabasePath = env.DatabasePath
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}

	return nil
}
