package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit    string        `yaml:"git_commit" envconfig:"BKV_GIT_COMMIT"`
	GitTag       string        `yaml:"git_tag" envconfig:"BKV_GIT_TAG"`
	BuildTime    string        `yaml:"build_time" envconfig:"BKV_BUILD_TIME"`
	IsProduction bool          `yaml:"is_production" envconfig:"BKV_IS_PRODUCTION"`
	LogLevel     zapcore.Level `yaml:"log_level" envconfig:"BKV_LOG_LEVEL"`
	LogFile      string        `yaml:"log_file" envconfig:"BKV_LOG_FILE"`
	API          APIConfig     `yaml:"api"`
	Session      SessionConfig `yaml:"session"`
	MockAPI      MockAPIConfig `yaml:"mockapi"`
	Redis        RedisConfig   `yaml:"redis"`
}

// APIConfig holds the settings used to reach the remote catalogue api.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url" envconfig:"BKV_API_BASE_URL"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"BKV_API_REQUEST_TIMEOUT"`
}

// SessionConfig holds the settings of the local session storage file.
type SessionConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BKV_SESSION_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BKV_SESSION_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BKV_SESSION_BUCKET_NAME"`
}

// MockAPIConfig holds the settings of the local development api server.
type MockAPIConfig struct {
	Host            string        `yaml:"host" envconfig:"BKV_MOCKAPI_HOST"`
	Port            string        `yaml:"port" envconfig:"BKV_MOCKAPI_PORT"`
	Storage         string        `yaml:"storage" envconfig:"BKV_MOCKAPI_STORAGE"`
	JWTSecret       string        `yaml:"jwt_secret" envconfig:"BKV_MOCKAPI_JWT_SECRET"`
	TokenTTL        time.Duration `yaml:"token_ttl" envconfig:"BKV_MOCKAPI_TOKEN_TTL"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BKV_MOCKAPI_SHUTDOWN_TIMEOUT"`
}

// RedisConfig holds the settings of the redis backend used
// by the mock api server when its storage is set to `redis`.
type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BKV_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BKV_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BKV_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BKV_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BKV_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BKV_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BKV_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BKV_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"BKV_REDIS_PASSWORD"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BKV_REDIS_DATABASE_INDEX"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.API.BaseURL) == 0 {
		return errors.New("make sure to set a valid catalogue api base url in configuration file")
	}

	if config.API.RequestTimeout == 0 {
		config.API.RequestTimeout = 10 * time.Second
	}

	if len(config.Session.FilePath) == 0 {
		config.Session.FilePath = "bookview.session.db"
	}

	if len(config.Session.BucketName) == 0 {
		config.Session.BucketName = "session"
	}

	if len(config.MockAPI.Storage) == 0 {
		config.MockAPI.Storage = "memory"
	}

	if config.MockAPI.Storage != "memory" && config.MockAPI.Storage != "redis" {
		return fmt.Errorf("unknown mock api storage backend: %s", config.MockAPI.Storage)
	}

	if config.MockAPI.TokenTTL == 0 {
		config.MockAPI.TokenTTL = 24 * time.Hour
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration. The env file is optional.
	if err = godotenv.Load("./config.env"); err != nil && !os.IsNotExist(err) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BKV`.
	err = LoadConfigEnvs("BKV", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
