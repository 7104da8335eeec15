package config

import (
	"fmt"
	"log"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Log        Log
	HTTPServer HTTPServer
	Redis      Redis
	Storage    Storage
	Ratios     Ratios
	Queue      Queue
	Selection  Selection
}

type Log struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
}

type HTTPServer struct {
	Port        string        `env:"HTTP_PORT" env-default:"8082"`
	Timeout     time.Duration `env:"HTTP_TIMEOUT" env-default:"2m"`
	IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// Storage is only used when the snapshot driver is postgres.
type Storage struct {
	Timeout  time.Duration `env:"BD_TIMEOUT" env-default:"10s"`
	Host     string        `env:"BD_HOST" env-default:"localhost"`
	Port     int           `env:"BD_PORT" env-default:"5432"`
	User     string        `env:"BD_USER" env-default:"posratio"`
	Password string        `env:"BD_PASSWORD"`
	DBName   string        `env:"BD_DBNAME" env-default:"posratio"`
	SSLMode  string        `env:"BD_SSL_MODE" env-default:"disable"`
}

type Ratios struct {
	APIURL          string        `env:"RATIOS_API_URL" env-required:"true"`
	APITimeout      time.Duration `env:"RATIOS_API_TIMEOUT" env-default:"10s"`
	SnapshotDriver  string        `env:"RATIOS_SNAPSHOT_DRIVER" env-default:"file"`
	StoragePath     string        `env:"RATIOS_STORAGE_PATH" env-default:"storage/pos_ratios.json"`
	CacheDriver     string        `env:"RATIOS_CACHE_DRIVER" env-default:"redis"`
	CacheTTL        time.Duration `env:"RATIOS_CACHE_TTL" env-default:"24h"`
	RefreshInterval time.Duration `env:"RATIOS_REFRESH_INTERVAL" env-default:"0s"`
}

type Queue struct {
	Driver       string   `env:"QUEUE_DRIVER" env-default:"redis"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" env-default:"pos-ratios-refresh"`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" env-default:"ratio-fetcher"`
}

// Selection holds the static selection rules. It is read once at startup and
// passed by value, so components never observe a change.
type Selection struct {
	SupportedCurrencies []string           `env:"SUPPORTED_CURRENCIES" env-default:"TRY,USD"`
	CardTypes           []string           `env:"CARD_TYPES" env-default:"credit,debit"`
	CurrencyMultipliers map[string]float64 `env:"CURRENCY_MULTIPLIERS" env-default:"TRY:1.00,USD:1.01"`
}

func NewConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Error reading env: %v", err)
	}

	return cfg
}

func Load() (*Config, error) {
	const op = "config.Load"

	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, errors.Wrap(err, op)
	}

	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, op)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	for _, currency := range c.Selection.SupportedCurrencies {
		if _, ok := c.Selection.CurrencyMultipliers[currency]; !ok {
			return fmt.Errorf("currency %s has no multiplier", currency)
		}
	}

	switch c.Ratios.SnapshotDriver {
	case "file", "postgres":
	default:
		return fmt.Errorf("unknown snapshot driver %q", c.Ratios.SnapshotDriver)
	}

	switch c.Ratios.CacheDriver {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown cache driver %q", c.Ratios.CacheDriver)
	}

	switch c.Queue.Driver {
	case "redis", "kafka", "memory":
	default:
		return fmt.Errorf("unknown queue driver %q", c.Queue.Driver)
	}

	// A memory cache is only invalidated by refreshes in the same process,
	// which is the case only when the API runs the worker itself.
	if c.Ratios.CacheDriver == "memory" && c.Queue.Driver != "memory" {
		return fmt.Errorf("cache driver memory requires queue driver memory, got %q", c.Queue.Driver)
	}

	return nil
}

// URL returns a postgres:// connection string understood by both pgx and migrate.
func (s Storage) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(s.User, s.Password),
		Host:     fmt.Sprintf("%s:%d", s.Host, s.Port),
		Path:     s.DBName,
		RawQuery: "sslmode=" + s.SSLMode,
	}

	return u.String()
}

func (s Selection) IsSupportedCurrency(currency string) bool {
	return slices.Contains(s.SupportedCurrencies, currency)
}

func (s Selection) IsCardType(cardType string) bool {
	return slices.Contains(s.CardTypes, cardType)
}

func (s Selection) CurrencyList() string {
	return strings.Join(s.SupportedCurrencies, ", ")
}

func (s Selection) CardTypeList() string {
	return strings.Join(s.CardTypes, ", ")
}
