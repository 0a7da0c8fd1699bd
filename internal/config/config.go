package config

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"auditorium/pkg/constraints"
	"auditorium/pkg/tokenstore"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Etcd      EtcdConfig      `mapstructure:"etcd"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Log       LogConfig       `mapstructure:"log"`
	DevServer DevServerConfig `mapstructure:"devserver"`
}

type APIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	CoalesceRefresh bool          `mapstructure:"coalesce_refresh"`
}

// StorageConfig selects where the token pair is persisted.
type StorageConfig struct {
	Backend    string `mapstructure:"backend"` // memory, file, redis, etcd, mysql
	Path       string `mapstructure:"path"`
	AccessKey  string `mapstructure:"access_key"`
	RefreshKey string `mapstructure:"refresh_key"`
	Prefix     string `mapstructure:"prefix"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type LogConfig struct {
	Environment string `mapstructure:"environment"`
}

type DevServerConfig struct {
	Port              string        `mapstructure:"port"`
	SigningKey        string        `mapstructure:"signing_key"`
	AccessTokenTTL    time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL   time.Duration `mapstructure:"refresh_token_ttl"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
	EchoOTP           bool          `mapstructure:"echo_otp"`
	AdminEmail        string        `mapstructure:"admin_email"`
	AdminPassword     string        `mapstructure:"admin_password"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
}

var ErrUnknownBackend = errors.New("unknown storage backend")

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("api.user_agent", "auditorium-cli")
	v.SetDefault("api.coalesce_refresh", false)

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", tokenstore.DefaultFilePath())
	v.SetDefault("storage.access_key", constraints.AccessTokenKey)
	v.SetDefault("storage.refresh_key", constraints.RefreshTokenKey)
	v.SetDefault("storage.prefix", "auditorium:")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("etcd.endpoints", []string{"localhost:2379"})
	v.SetDefault("etcd.dial_timeout", 5*time.Second)

	v.SetDefault("log.environment", "dev")

	v.SetDefault("devserver.port", ":8080")
	v.SetDefault("devserver.signing_key", "auditorium-dev-signing-key")
	v.SetDefault("devserver.access_token_ttl", 15*time.Minute)
	v.SetDefault("devserver.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("devserver.requests_per_second", 20)
	v.SetDefault("devserver.echo_otp", true)
	v.SetDefault("devserver.admin_email", "admin@auditorium.local")
	v.SetDefault("devserver.admin_password", "admin12345")
	v.SetDefault("devserver.allowed_origins", []string{"http://localhost:5173"})
}

// Load reads config.yaml from the working directory, ./config or
// ~/.auditorium, then applies AUDITORIUM_* environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join("$HOME", ".auditorium"))

	v.SetEnvPrefix("AUDITORIUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "file", "redis", "etcd", "mysql":
	default:
		return ErrUnknownBackend
	}
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.Storage.Backend == "mysql" && c.MySQL.DSN == "" {
		return errors.New("mysql.dsn is required for the mysql backend")
	}
	return nil
}
