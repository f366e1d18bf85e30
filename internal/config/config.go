package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Live      LiveConfig      `mapstructure:"live"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Leader    LeaderConfig    `mapstructure:"leader"`
	Instance  InstanceConfig  `mapstructure:"instance"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Bidding   BiddingConfig   `mapstructure:"bidding"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Startup   StartupConfig   `mapstructure:"startup"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type LiveConfig struct {
	Port          int    `mapstructure:"port"`
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type StorageConfig struct {
	// Driver is "mysql" or "memory". The memory driver also replaces Redis
	// and is meant for local runs.
	Driver string `mapstructure:"driver"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
	Key string        `mapstructure:"key"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	JWTSecret     string   `mapstructure:"jwt_secret"`
	JWTAlgorithms []string `mapstructure:"jwt_algorithms"`
}

type BiddingConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	MaxBids int           `mapstructure:"max_bids"`
	Window  time.Duration `mapstructure:"window"`
}

type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	PollSpec string `mapstructure:"poll_spec"`
}

type StartupConfig struct {
	MaxElapsed time.Duration `mapstructure:"max_elapsed"`
}

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("live.port", 8081)
	v.SetDefault("live.allowed_origin", "*")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true")
	v.SetDefault("mysql.max_open_conns", 25)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("storage.driver", StorageMySQL)
	v.SetDefault("leader.ttl", 30*time.Second)
	v.SetDefault("leader.key", "marketplace_scheduler_leader")
	v.SetDefault("instance.id", "marketplace-1")
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_algorithms", []string{"HS256", "HS512"})
	v.SetDefault("bidding.rate_limit.max_bids", 10)
	v.SetDefault("bidding.rate_limit.window", 60*time.Second)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.poll_spec", "@every 1m")
	v.SetDefault("startup.max_elapsed", time.Minute)
}

var envBindings = map[string]string{
	"server.port":                 "SERVER_PORT",
	"server.host":                 "SERVER_HOST",
	"live.port":                   "LIVE_PORT",
	"live.allowed_origin":         "LIVE_ALLOWED_ORIGIN",
	"redis.address":               "REDIS_ADDRESS",
	"redis.password":              "REDIS_PASSWORD",
	"redis.db":                    "REDIS_DB",
	"mysql.dsn":                   "MYSQL_DSN",
	"mysql.max_open_conns":        "MYSQL_MAX_OPEN_CONNS",
	"mysql.max_idle_conns":        "MYSQL_MAX_IDLE_CONNS",
	"mysql.conn_max_lifetime":     "MYSQL_CONN_MAX_LIFETIME",
	"storage.driver":              "STORAGE_DRIVER",
	"leader.ttl":                  "LEADER_TTL",
	"leader.key":                  "LEADER_KEY",
	"instance.id":                 "INSTANCE_ID",
	"log.level":                   "LOG_LEVEL",
	"auth.jwt_secret":             "JWT_SECRET",
	"auth.jwt_algorithms":         "JWT_ALGORITHMS",
	"bidding.rate_limit.max_bids": "BID_RATE_LIMIT_MAX_BIDS",
	"bidding.rate_limit.window":   "BID_RATE_LIMIT_WINDOW",
	"scheduler.enabled":           "SCHEDULER_ENABLED",
	"scheduler.poll_spec":         "SCHEDULER_POLL_SPEC",
	"startup.max_elapsed":         "STARTUP_MAX_ELAPSED",
}

// Load reads configuration from defaults, an optional config.yaml, an
// optional .env file and the environment, in increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// Configuration file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/auction-marketplace/")

	// Environment variable support
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwt_secret is required")
	}
	if c.Bidding.RateLimit.MaxBids <= 0 {
		return fmt.Errorf("config: bidding.rate_limit.max_bids must be positive, got %d", c.Bidding.RateLimit.MaxBids)
	}
	if c.Bidding.RateLimit.Window <= 0 {
		return fmt.Errorf("config: bidding.rate_limit.window must be positive, got %s", c.Bidding.RateLimit.Window)
	}
	switch c.Storage.Driver {
	case StorageMySQL, StorageMemory:
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	return nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, Redis: %s, Storage: %s, Instance: %s, RateLimit: %d/%s",
		c.Server.Host,
		c.Server.Port,
		c.Redis.Address,
		c.Storage.Driver,
		c.Instance.ID,
		c.Bidding.RateLimit.MaxBids,
		c.Bidding.RateLimit.Window,
	)
}
