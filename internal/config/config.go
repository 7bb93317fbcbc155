package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"local"`
	Jaeger     string           `yaml:"jaeger" env:"JAEGER" env-default:"jaeger"`
	Log        LogConfig        `yaml:"log"`
	HTTP       HTTPConfig       `yaml:"http"`
	GRPC       GRPCConfig       `yaml:"grpc"`
	DB         DBConfig         `yaml:"db"`
	Redis      RedisConfig      `yaml:"redis"`
	BookingAPI BookingAPIConfig `yaml:"booking_api"`
	Search     SearchConfig     `yaml:"search"`
	Rates      RatesConfig      `yaml:"rates"`
	Pricing    PricingConfig    `yaml:"pricing"`
	Quests     QuestsConfig     `yaml:"quests"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            int           `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type GRPCConfig struct {
	Host              string        `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port              int           `yaml:"port" env:"GRPC_PORT" env-default:"44046"`
	ReadinessInterval time.Duration `yaml:"readiness_interval" env:"GRPC_READINESS_INTERVAL" env-default:"15s"`
}

type DBConfig struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name" env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type BookingAPIConfig struct {
	BaseURL string        `yaml:"base_url" env:"BOOKING_API_BASE_URL" env-default:"http://localhost:8090"`
	Token   string        `yaml:"token" env:"BOOKING_API_TOKEN"`
	Timeout time.Duration `yaml:"timeout" env:"BOOKING_API_TIMEOUT" env-default:"10s"`
}

type SearchConfig struct {
	LastQueryTTL time.Duration `yaml:"last_query_ttl" env:"SEARCH_LAST_QUERY_TTL" env-default:"168h"`
}

type RatesConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl" env:"RATES_CACHE_TTL" env-default:"5m"`
}

type PricingConfig struct {
	// CommissionBps is the client fee in basis points applied when the
	// booking service sends no commission inclusive amount.
	CommissionBps int `yaml:"commission_bps" env:"PRICING_COMMISSION_BPS" env-default:"0"`
}

type QuestsConfig struct {
	FirstBookingTag string `yaml:"first_booking_tag" env:"QUESTS_FIRST_BOOKING_TAG" env-default:"first_booking"`
}

// Enabled reports whether a database host is configured. Without one the
// service keeps sessions and orders in memory only.
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

func (c DBConfig) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}
	return MustLoadByPath(path)
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exists: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read the config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}
