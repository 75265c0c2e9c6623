// Package config предоставляет структуры и функции для загрузки конфига
// из YAML-файла с переопределением через переменные окружения.
package config

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/fairwaylab/swingcoach/internal/entitlement"
	"github.com/fairwaylab/swingcoach/internal/models"
)

// Окружения запуска.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// devJWTSecret используется только вне prod, когда секрет не задан.
const devJWTSecret = "swingcoach-local-development-secret"

var (
	// ErrMissingJWTSecret возвращается, если в prod не задан секрет подписи токенов.
	ErrMissingJWTSecret = errors.New("jwt secret is required in prod")
	// ErrMissingStorage возвращается процессам, которым нужна база, если DSN не задан.
	ErrMissingStorage = errors.New("storage_connection_string is required")
)

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string              `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string              `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string              `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	GRPCAuthAddress         string              `yaml:"grpc_auth_address" env:"GRPC_AUTH_ADDRESS"`
	GRPCServer              GRPCServer          `yaml:"grpc_server"`
	HTTPServer              HTTPServer          `yaml:"http_server"`
	JWT                     JWT                 `yaml:"jwt"`
	Redis                   Redis               `yaml:"redis"`
	RateLimit               RateLimit           `yaml:"rate_limit"`
	RabbitMQ                RabbitMQ            `yaml:"rabbitmq"`
	SMTP                    SMTP                `yaml:"smtp"`
	Entitlements            map[string][]string `yaml:"entitlements"`
}

// HTTPServer структура для настройки HTTP API.
type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	Timeout     time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// GRPCServer структура для настройки сервиса токенов.
type GRPCServer struct {
	Address string `yaml:"address" env:"GRPC_ADDRESS" env-default:":50051"`
}

// JWT структура для работы с jwt-токеном.
type JWT struct {
	Secret   string        `yaml:"secret" env:"JWT_SECRET"`
	TokenTTL time.Duration `yaml:"token_ttl" env:"JWT_TOKEN_TTL" env-default:"168h"`
}

// Redis структура для подключения к redis. Пустой адрес отключает redis.
type Redis struct {
	Address     string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user" env:"REDIS_USER"`
	DB          int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	MaxRetries  int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env:"REDIS_TIMEOUT" env-default:"3s"`
}

// Enabled сообщает, настроен ли redis.
func (r Redis) Enabled() bool {
	return r.Address != ""
}

// RateLimit задаёт лимит запросов к открытым POST-эндпоинтам на один IP.
type RateLimit struct {
	Requests int           `yaml:"requests" env:"RATE_LIMIT_REQUESTS" env-default:"10"`
	Window   time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"1m"`
}

// RabbitMQ структура для публикации событий оплат. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange   string        `yaml:"exchange" env:"RABBITMQ_EXCHANGE" env-default:"swingcoach.payments"`
	Queue      string        `yaml:"queue" env:"RABBITMQ_QUEUE" env-default:"swingcoach.notifier"`
	Retries    int           `yaml:"retries" env:"RABBITMQ_RETRIES" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`

	// Попытки обработки сообщения до переноса в <queue>.dead.
	MaxAttempts     int           `yaml:"max_attempts" env:"RABBITMQ_MAX_ATTEMPTS" env-default:"5"`
	RedeliveryDelay time.Duration `yaml:"redelivery_delay" env:"RABBITMQ_REDELIVERY_DELAY" env-default:"10s"`
}

// Enabled сообщает, настроен ли брокер.
func (r RabbitMQ) Enabled() bool {
	return r.URL != ""
}

// SMTP структура для отправки писем администраторам.
type SMTP struct {
	Host        string   `yaml:"host" env:"SMTP_HOST"`
	Port        int      `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username    string   `yaml:"username" env:"SMTP_USERNAME"`
	Password    string   `yaml:"password" env:"SMTP_PASSWORD"`
	From        string   `yaml:"from" env:"SMTP_FROM" env-default:"noreply@swingcoach.local"`
	AdminEmails []string `yaml:"admin_emails" env:"SMTP_ADMIN_EMAILS" env-separator:","`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает .env (если есть), затем YAML-файл и переменные окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	// .env необязателен
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, _, err := cfg.JWTSecret(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := cfg.EntitlementTable(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// JWTSecret возвращает секрет подписи токенов. Вне prod при пустом значении
// возвращается ключ разработки и insecure=true; в prod это ошибка.
func (c *Config) JWTSecret() (secret string, insecure bool, err error) {
	if c.JWT.Secret != "" {
		return c.JWT.Secret, false, nil
	}
	if c.Env == EnvProd {
		return "", false, ErrMissingJWTSecret
	}
	return devJWTSecret, true, nil
}

// StorageDSN возвращает строку подключения к PostgreSQL или ErrMissingStorage.
func (c *Config) StorageDSN() (string, error) {
	if c.StorageConnectionString == "" {
		return "", ErrMissingStorage
	}
	return c.StorageConnectionString, nil
}

// EntitlementTable возвращает таблицу доступа: переопределение из конфига
// или таблицу по умолчанию. Неизвестные роли в переопределении — ошибка.
func (c *Config) EntitlementTable() (entitlement.Table, error) {
	if len(c.Entitlements) == 0 {
		return entitlement.DefaultTable(), nil
	}
	table := make(entitlement.Table, len(c.Entitlements))
	for raw, features := range c.Entitlements {
		role := models.ParseRole(raw)
		if !role.Valid() {
			return nil, fmt.Errorf("entitlements: unknown role %q", raw)
		}
		table[role] = features
	}
	return table, nil
}

// LogLevel возвращает уровень логирования для окружения.
func (c *Config) LogLevel() slog.Level {
	switch c.Env {
	case EnvLocal, EnvDev:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
