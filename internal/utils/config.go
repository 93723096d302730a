package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/benmeehan/device-locations/internal/constants"
	"github.com/benmeehan/device-locations/pkg/file"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Dataset sources and cache backends accepted in the configuration.
const (
	DatasetSourceS3   = "s3"
	DatasetSourceFile = "file"

	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

// Config represents the structure of the configuration file.
type Config struct {
	Logging struct {
		Level string `yaml:"level"` // zerolog level name
		JSON  bool   `yaml:"json"`  // JSON output, console output otherwise
	} `yaml:"logging"`

	Server struct {
		Address         string        `yaml:"address"`          // HTTP listen address
		ReadTimeout     time.Duration `yaml:"read_timeout"`     // Maximum duration for reading a request
		WriteTimeout    time.Duration `yaml:"write_timeout"`    // Maximum duration for writing a response
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // Grace period for in-flight requests on stop
	} `yaml:"server"`

	Dataset struct {
		Source   string `yaml:"source"`    // s3 or file
		FilePath string `yaml:"file_path"` // CSV path when source is file

		S3 struct {
			Endpoint        string `yaml:"endpoint"`
			Region          string `yaml:"region"`
			AccessKeyID     string `yaml:"access_key_id"`
			SecretAccessKey string `yaml:"secret_access_key"`
			UseSSL          bool   `yaml:"use_ssl"`
			Bucket          string `yaml:"bucket"`
			ObjectKey       string `yaml:"object_key"`
		} `yaml:"s3"`
	} `yaml:"dataset"`

	Cache struct {
		Backend string `yaml:"backend"` // redis or memory

		Redis struct {
			Address   string `yaml:"address"`
			Password  string `yaml:"password"`
			DB        int    `yaml:"db"`
			KeyPrefix string `yaml:"key_prefix"` // Prepended to device ids, empty by default
		} `yaml:"redis"`
	} `yaml:"cache"`

	Populator struct {
		Enabled    bool          `yaml:"enabled"`      // Enable/disable the scheduled populator
		Schedule   string        `yaml:"schedule"`     // Cron spec or descriptor such as "@every 15m"
		RunOnStart bool          `yaml:"run_on_start"` // Populate once as soon as the service starts
		Workers    int           `yaml:"workers"`      // Concurrent cache writers
		Timeout    time.Duration `yaml:"timeout"`      // Upper bound for a single run
	} `yaml:"populator"`

	MQTT struct {
		Enabled       bool          `yaml:"enabled"`         // Publish refreshed latest positions
		Broker        string        `yaml:"broker"`          // MQTT broker address
		ClientID      string        `yaml:"client_id"`       // MQTT client ID prefix
		CACertificate string        `yaml:"ca_certificate"`  // Path to the CA certificate, TLS disabled when empty
		Topic         string        `yaml:"topic"`           // Topic root, device id is appended
		QOS           int           `yaml:"qos"`             // MQTT QoS level for published positions
		Timeout       time.Duration `yaml:"publish_timeout"` // Wait for broker acknowledgement
	} `yaml:"mqtt"`
}

// LoadConfig loads the YAML configuration from the specified file, applies
// environment overrides and defaults, and validates the result.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, err
	}

	config.ApplyEnv(os.LookupEnv)
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadEnvFiles loads .env style files into the process environment.
// Missing files are ignored; already set variables are not overwritten.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides endpoints and secrets from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		key    string
		target *string
	}{
		{"S3_ENDPOINT", &c.Dataset.S3.Endpoint},
		{"S3_ACCESS_KEY_ID", &c.Dataset.S3.AccessKeyID},
		{"S3_SECRET_ACCESS_KEY", &c.Dataset.S3.SecretAccessKey},
		{"S3_BUCKET", &c.Dataset.S3.Bucket},
		{"S3_OBJECT_KEY", &c.Dataset.S3.ObjectKey},
		{"REDIS_ADDRESS", &c.Cache.Redis.Address},
		{"REDIS_PASSWORD", &c.Cache.Redis.Password},
		{"HTTP_ADDRESS", &c.Server.Address},
	}
	for _, o := range overrides {
		if v, ok := lookup(o.key); ok && v != "" {
			*o.target = v
		}
	}
}

// ApplyDefaults fills in every unset value that has a sensible default.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Server.Address == "" {
		c.Server.Address = ":8000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Dataset.Source == "" {
		c.Dataset.Source = DatasetSourceS3
	}
	if c.Dataset.S3.Region == "" {
		c.Dataset.S3.Region = "us-east-1"
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheBackendRedis
	}
	if c.Cache.Redis.Address == "" {
		c.Cache.Redis.Address = "localhost:6379"
	}

	if c.Populator.Schedule == "" {
		c.Populator.Schedule = constants.DefaultPopulateSchedule
	}
	if c.Populator.Workers <= 0 {
		c.Populator.Workers = constants.DefaultPopulateWorkers
	}
	if c.Populator.Timeout <= 0 {
		c.Populator.Timeout = constants.DefaultPopulateTimeout
	}

	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = constants.ServiceName
	}
	if c.MQTT.Timeout <= 0 {
		c.MQTT.Timeout = 5 * time.Second
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}

	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}

	switch c.Dataset.Source {
	case DatasetSourceS3:
		if c.Dataset.S3.Endpoint == "" {
			errs = append(errs, errors.New("dataset.s3.endpoint is required"))
		}
		if c.Dataset.S3.Bucket == "" {
			errs = append(errs, errors.New("dataset.s3.bucket is required"))
		}
		if c.Dataset.S3.ObjectKey == "" {
			errs = append(errs, errors.New("dataset.s3.object_key is required"))
		}
	case DatasetSourceFile:
		if c.Dataset.FilePath == "" {
			errs = append(errs, errors.New("dataset.file_path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("dataset.source %q must be one of %s, %s", c.Dataset.Source, DatasetSourceS3, DatasetSourceFile))
	}

	if _, ok := SliceToSet([]string{CacheBackendRedis, CacheBackendMemory})[c.Cache.Backend]; !ok {
		errs = append(errs, fmt.Errorf("cache.backend %q must be one of %s, %s", c.Cache.Backend, CacheBackendRedis, CacheBackendMemory))
	}

	if _, err := cron.ParseStandard(c.Populator.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("populator.schedule: %w", err))
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
		}
		if c.MQTT.Topic == "" {
			errs = append(errs, errors.New("mqtt.topic is required when mqtt is enabled"))
		}
		if c.MQTT.QOS < 0 || c.MQTT.QOS > 2 {
			errs = append(errs, fmt.Errorf("mqtt.qos %d must be 0, 1 or 2", c.MQTT.QOS))
		}
	}

	return errors.Join(errs...)
}

// RequireSharedCache fails when the configured cache backend only lives inside
// the current process, so a standalone populate run would leave nothing behind.
func (c *Config) RequireSharedCache() error {
	if c.Cache.Backend == CacheBackendMemory {
		return fmt.Errorf("cache.backend %q is process-local; populating it from a separate command has no effect, use %q",
			c.Cache.Backend, CacheBackendRedis)
	}
	return nil
}
