package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"SalesCast/internal/domain/models"
)

// EnvPrefix prefixes every environment override, e.g. SALESCAST_DATASET_PATH.
const EnvPrefix = "SALESCAST"

// EngineConfig selects and tunes the forecasting engine.
type EngineConfig struct {
	Type    string        `yaml:"type" default:"local" validate:"oneof=local http"`
	URL     string        `yaml:"url" validate:"required_if=Type http"`
	Timeout time.Duration `yaml:"timeout" default:"30s"`
	Retries int           `yaml:"retries" default:"3" validate:"gte=1"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stderr"`
	} `yaml:"log"`
	Dataset struct {
		Path      string `yaml:"path" default:"sales_data.xlsx"`
		Sheet     string `yaml:"sheet"`
		Encoding  string `yaml:"encoding" default:"utf-8"`
		Delimiter string `yaml:"delimiter" default:"," validate:"len=1"`
	} `yaml:"dataset"`
	Schema   models.Schema         `yaml:"schema"`
	Cleaning models.CleaningConfig `yaml:"cleaning"`
	Forecast struct {
		Engine          EngineConfig           `yaml:"engine"`
		Model           models.ModelParams     `yaml:"model"`
		Horizon         models.Horizon         `yaml:"horizon"`
		CountryHolidays string                 `yaml:"country_holidays" default:"RU"`
		CustomHolidays  []models.CustomHoliday `yaml:"custom_holidays" validate:"dive"`
		MinPoints       int                    `yaml:"min_points" default:"100" validate:"gte=2"`
		TargetColumn    string                 `yaml:"target_column"`
		PerCategory     bool                   `yaml:"per_category"`
		TailPoints      int                    `yaml:"tail_points" default:"5" validate:"gte=0"`
	} `yaml:"forecast"`
	Report struct {
		TopCategories int `yaml:"top_n_categories" default:"10" validate:"gte=1"`
		TopRegions    int `yaml:"top_n_regions" default:"15" validate:"gte=1"`
		TopProducts   int `yaml:"top_n_products" default:"15" validate:"gte=1"`
	} `yaml:"report"`
	Storage struct {
		Backend string `yaml:"backend" default:"sqlite" validate:"oneof=sqlite clickhouse none"`
		SQLite  struct {
			Path string `yaml:"path" default:"salescast.db"`
		} `yaml:"sqlite"`
		ClickHouse struct {
			Host             string        `yaml:"host" default:"localhost"`
			Port             int           `yaml:"port" default:"9000"`
			Database         string        `yaml:"database" default:"salescast"`
			User             string        `yaml:"user" default:"default"`
			Password         string        `yaml:"password"`
			UseHTTP          bool          `yaml:"use_http"`
			DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
			ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
			MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
		} `yaml:"clickhouse"`
	} `yaml:"storage"`
	Cache struct {
		TTL           time.Duration `yaml:"ttl" default:"5m"`
		MemoryMaxSize int           `yaml:"memory_max_size" default:"1000"`
		Redis         struct {
			Enabled      bool          `yaml:"enabled"`
			Addr         string        `yaml:"addr" default:"localhost:6379"`
			Password     string        `yaml:"password"`
			DB           int           `yaml:"db"`
			Prefix       string        `yaml:"prefix" default:"salescast:"`
			PoolSize     int           `yaml:"pool_size" default:"10" validate:"gte=1"`
			MinIdleConns int           `yaml:"min_idle_conns" default:"2" validate:"gte=0"`
			PoolTimeout  time.Duration `yaml:"pool_timeout" default:"4s"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers" default:"[\"localhost:9092\"]"`
		Topic        string   `yaml:"topic" default:"salescast.forecast.runs"`
		RequiredAcks int      `yaml:"required_acks" default:"-1" validate:"oneof=-1 1"`
		Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lt=65536"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`

		// forecast requests allowed per client: burst, then refill per second
		ForecastBurst  float64 `yaml:"forecast_burst" default:"3" validate:"gte=1"`
		ForecastRefill float64 `yaml:"forecast_refill" default:"0.1" validate:"gt=0"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Output struct {
		ForecastXLSX string `yaml:"forecast_xlsx"`
	} `yaml:"output"`
}

// fillDerived sets defaults that depend on other fields.
func (c *Config) fillDerived() {
	if len(c.Cleaning.RequiredColumns) == 0 {
		c.Cleaning.RequiredColumns = []string{c.Schema.SaleDate, c.Schema.Quantity, c.Schema.Amount}
	}
}

// envOverrides lists the settings that may come from the environment.
// Fields stay nil unless the variable is set.
type envOverrides struct {
	Environment    *string        `envconfig:"ENVIRONMENT"`
	LogLevel       *string        `envconfig:"LOG_LEVEL"`
	LogFormat      *string        `envconfig:"LOG_FORMAT"`
	DatasetPath    *string        `envconfig:"DATASET_PATH"`
	DatasetSheet   *string        `envconfig:"DATASET_SHEET"`
	EngineType     *string        `envconfig:"ENGINE_TYPE"`
	EngineURL      *string        `envconfig:"ENGINE_URL"`
	EngineTimeout  *time.Duration `envconfig:"ENGINE_TIMEOUT"`
	StorageBackend *string        `envconfig:"STORAGE_BACKEND"`
	SQLitePath     *string        `envconfig:"SQLITE_PATH"`
	ClickHouseHost *string        `envconfig:"CLICKHOUSE_HOST"`
	ClickHousePass *string        `envconfig:"CLICKHOUSE_PASSWORD"`
	RedisEnabled   *bool          `envconfig:"REDIS_ENABLED"`
	RedisAddr      *string        `envconfig:"REDIS_ADDR"`
	RedisPassword  *string        `envconfig:"REDIS_PASSWORD"`
	KafkaEnabled   *bool          `envconfig:"KAFKA_ENABLED"`
	KafkaBrokers   []string       `envconfig:"KAFKA_BROKERS"`
	KafkaTopic     *string        `envconfig:"KAFKA_TOPIC"`
	ServerPort     *int           `envconfig:"SERVER_PORT"`
}

// Default returns a configuration populated only from defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Parse builds a configuration from YAML bytes laid over the defaults.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.fillDerived()
	return c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := Parse(b)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides it with environment variables.
// An empty path skips the file and starts from defaults.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if c, err = Parse(b); err != nil {
			return nil, err
		}
	}
	c.fillDerived()

	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from SALESCAST_* environment variables.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}

	setString(&c.Environment, env.Environment)
	setString(&c.Log.Level, env.LogLevel)
	setString(&c.Log.Format, env.LogFormat)
	setString(&c.Dataset.Path, env.DatasetPath)
	setString(&c.Dataset.Sheet, env.DatasetSheet)
	setString(&c.Forecast.Engine.Type, env.EngineType)
	setString(&c.Forecast.Engine.URL, env.EngineURL)
	setString(&c.Storage.Backend, env.StorageBackend)
	setString(&c.Storage.SQLite.Path, env.SQLitePath)
	setString(&c.Storage.ClickHouse.Host, env.ClickHouseHost)
	setString(&c.Storage.ClickHouse.Password, env.ClickHousePass)
	setString(&c.Cache.Redis.Addr, env.RedisAddr)
	setString(&c.Cache.Redis.Password, env.RedisPassword)
	setString(&c.Kafka.Topic, env.KafkaTopic)
	if env.EngineTimeout != nil {
		c.Forecast.Engine.Timeout = *env.EngineTimeout
	}
	if env.RedisEnabled != nil {
		c.Cache.Redis.Enabled = *env.RedisEnabled
	}
	if env.KafkaEnabled != nil {
		c.Kafka.Enabled = *env.KafkaEnabled
	}
	if len(env.KafkaBrokers) > 0 {
		c.Kafka.Brokers = env.KafkaBrokers
	}
	if env.ServerPort != nil {
		c.Server.Port = *env.ServerPort
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

var validate = validator.New()

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if len(c.Cleaning.RequiredColumns) == 0 {
		return fmt.Errorf("cleaning.required_columns cannot be empty")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if t := c.Forecast.TargetColumn; t != "" && t != c.Schema.Amount && t != c.Schema.Quantity {
		return fmt.Errorf("forecast.target_column must be %q or %q, got %q", c.Schema.Amount, c.Schema.Quantity, t)
	}
	return nil
}

// Target returns the column to forecast; the amount column unless configured.
func (c *Config) Target() string {
	if c.Forecast.TargetColumn != "" {
		return c.Forecast.TargetColumn
	}
	return c.Schema.Amount
}
