package config

import (
	"flag"
	"regexp"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	defaultDatabaseDSN     = "file:nftmarket.db"
	defaultAuthSecret      = "dev-secret-key"
	defaultBaseURL         = "localhost:8080"
	defaultConflictRetries = 3
	defaultPageSize        = 20
)

var hostPortRe = regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)

type Config struct {
	// Storage
	DatabaseDSN string `env:"DATABASE_URI"`

	// HTTP
	AuthSecret   string `env:"AUTH_SECRET"`
	BaseURL      string `env:"BASE_URL"`
	EnableHTTPS  bool   `env:"ENABLE_HTTPS"`
	ServerURL    string `env:"-"`
	AdminKeyHash string `env:"ADMIN_KEY_HASH"` // bcrypt-хэш ключа администратора

	// Events, пустые значения отключают брокер
	NATSURL       string `env:"NATS_URL"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Market
	ConflictRetries int `env:"CONFLICT_RETRIES"`
	PageSize        int `env:"PAGE_SIZE"`
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (postgres DSN или file:... для SQLite)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "адрес сервера host:port")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "сервер доступен по HTTPS")
	flag.StringVar(&cfg.NATSURL, "nats", cfg.NATSURL, "адрес NATS для архива событий")
	flag.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "адрес Redis для live-обновлений")

	flag.Parse()

	cfg.applyDefaults()
	return cfg
}

// FromEnv читает конфигурацию только из окружения и .env, без разбора флагов.
// Используется утилитами со своим набором флагов.
func FromEnv() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = defaultDatabaseDSN
	}
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = defaultAuthSecret
	}
	// BaseURL должен быть в виде "address:port" (без схемы и пути), иначе берём значение по умолчанию
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}
	if cfg.ConflictRetries <= 0 {
		cfg.ConflictRetries = defaultConflictRetries
	}
	if cfg.PageSize <= 0 || cfg.PageSize > 100 {
		cfg.PageSize = defaultPageSize
	}
}
