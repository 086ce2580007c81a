package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	StoreDriverNocoDB   = "nocodb"
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	ResultModePriority = "priority"
	ResultModeStrict   = "strict"
)

type Config struct {
	App      App      `mapstructure:",squash"`
	Server   Server   `mapstructure:",squash"`
	Store    Store    `mapstructure:",squash"`
	NocoDB   NocoDB   `mapstructure:",squash"`
	Database Database `mapstructure:",squash"`
	Meta     Meta     `mapstructure:",squash"`
	Sync     Sync     `mapstructure:",squash"`
	Redis    Redis    `mapstructure:",squash"`
	Auth     Auth     `mapstructure:",squash"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
	Env      string `mapstructure:"app_env"`
}

type Server struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

type Store struct {
	Driver string `mapstructure:"store_driver"`
}

type NocoDB struct {
	URL        string            `mapstructure:"nocodb_url"`
	Token      string            `mapstructure:"nocodb_token"`
	Tables     []string          `mapstructure:"nocodb_tables"` // tabela=id separados por vírgula
	PageSize   int               `mapstructure:"nocodb_page_size"`
	MaxRetries int               `mapstructure:"nocodb_max_retries"`
	Timeout    time.Duration     `mapstructure:"nocodb_timeout"`
	TableIDs   map[string]string `mapstructure:"-"`
}

type Database struct {
	DSN          string `mapstructure:"-"`
	Driver       string `mapstructure:"database_driver"`
	Password     string `mapstructure:"database_password"`
	URL          string `mapstructure:"database_url"`
	User         string `mapstructure:"database_user"`
	MaxOpenConns int    `mapstructure:"database_max_open_conns"`
	MaxIdleConns int    `mapstructure:"database_max_idle_conns"`

	// ConnMaxLifetime zero mantém as conexões abertas indefinidamente.
	ConnMaxLifetime time.Duration `mapstructure:"database_conn_max_lifetime"`
	ConnectRetries  int           `mapstructure:"database_connect_retries"`
}

type Meta struct {
	BaseURL          string        `mapstructure:"meta_base_url"`
	URL              string        `mapstructure:"meta_url"`
	Version          string        `mapstructure:"meta_version"`
	PageSize         int           `mapstructure:"meta_page_size"`
	RequestsPerSec   float64       `mapstructure:"meta_requests_per_second"`
	RateLimitRetries int           `mapstructure:"meta_rate_limit_retries"`
	RateLimitDelay   time.Duration `mapstructure:"meta_rate_limit_delay"`
	Timeout          time.Duration `mapstructure:"meta_timeout"`
}

type Sync struct {
	CronSchedule          string        `mapstructure:"sync_cron"`
	Enabled               bool          `mapstructure:"sync_enabled"`
	MaxConcurrentAccounts int           `mapstructure:"sync_max_concurrent_accounts"`
	BatchSize             int           `mapstructure:"sync_batch_size"`
	UpsertConcurrency     int           `mapstructure:"sync_upsert_concurrency"`
	ConflictRetries       int           `mapstructure:"sync_conflict_retries"`
	ConflictRetryDelay    time.Duration `mapstructure:"sync_conflict_retry_delay"`
	RetentionDays         int           `mapstructure:"sync_retention_days"`
	DeleteBatchSize       int           `mapstructure:"sync_delete_batch_size"`
	Timezone              string        `mapstructure:"sync_timezone"`
	ResultMode            string        `mapstructure:"sync_result_mode"`
	StrictActionType      string        `mapstructure:"sync_strict_action_type"`
}

type Redis struct {
	URL     string        `mapstructure:"redis_url"`
	LockKey string        `mapstructure:"redis_lock_key"`
	LockTTL time.Duration `mapstructure:"redis_lock_ttl"`
}

type Auth struct {
	Secret string `mapstructure:"auth_secret"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	viper.SetDefault("STORE_DRIVER", StoreDriverNocoDB) // nocodb | postgres | memory

	viper.SetDefault("NOCODB_URL", "http://localhost:8080")
	viper.SetDefault("NOCODB_TOKEN", "")
	viper.SetDefault("NOCODB_TABLES", "")
	viper.SetDefault("NOCODB_PAGE_SIZE", 100)
	viper.SetDefault("NOCODB_MAX_RETRIES", 3)
	viper.SetDefault("NOCODB_TIMEOUT", "30s")

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/insights?sslmode=disable")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("DATABASE_CONNECT_RETRIES", 3)

	viper.SetDefault("META_BASE_URL", "https://graph.facebook.com")
	viper.SetDefault("META_VERSION", "v22.0")
	viper.SetDefault("META_PAGE_SIZE", 500)
	viper.SetDefault("META_REQUESTS_PER_SECOND", 5) // ritmo máximo por processo
	viper.SetDefault("META_RATE_LIMIT_RETRIES", 3)
	viper.SetDefault("META_RATE_LIMIT_DELAY", "5s") // multiplicado pela tentativa
	viper.SetDefault("META_TIMEOUT", "60s")

	viper.SetDefault("SYNC_CRON", "0 3 * * *") // Todos os dias às 3h da manhã
	viper.SetDefault("SYNC_ENABLED", false)
	viper.SetDefault("SYNC_MAX_CONCURRENT_ACCOUNTS", 3)
	viper.SetDefault("SYNC_BATCH_SIZE", 50)
	viper.SetDefault("SYNC_UPSERT_CONCURRENCY", 10)
	viper.SetDefault("SYNC_CONFLICT_RETRIES", 3)
	viper.SetDefault("SYNC_CONFLICT_RETRY_DELAY", "500ms")
	viper.SetDefault("SYNC_RETENTION_DAYS", 1) // mantém só o dia de ontem em diante
	viper.SetDefault("SYNC_DELETE_BATCH_SIZE", 100)
	viper.SetDefault("SYNC_TIMEZONE", "America/Sao_Paulo")
	viper.SetDefault("SYNC_RESULT_MODE", ResultModePriority) // priority | strict
	viper.SetDefault("SYNC_STRICT_ACTION_TYPE", "onsite_conversion.messaging_conversation_started_7d")

	viper.SetDefault("REDIS_URL", "") // vazio desativa o lock distribuído
	viper.SetDefault("REDIS_LOCK_KEY", "insight-sync:full")
	viper.SetDefault("REDIS_LOCK_TTL", "2h")

	viper.SetDefault("AUTH_SECRET", "")

	viper.SetDefault("LOG_LEVEL", "debug")
}

func NewConfig() (*Config, error) {
	// Primeiro carregar o arquivo .env usando godotenv
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis carregadas pelo godotenv (viper não conseguiu ler .env):", err)
	} else {
		logrus.Info("Arquivo .env lido pelo Viper com sucesso")
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	config.Meta.URL = fmt.Sprintf("%s/%s", strings.TrimRight(config.Meta.BaseURL, "/"), config.Meta.Version)

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	config.NocoDB.TableIDs, err = ParseTableIDs(config.NocoDB.Tables)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ParseTableIDs lê pares tabela=id (ex.: insights=m1a2b3,campaigns=m4c5d6).
func ParseTableIDs(pairs []string) (map[string]string, error) {
	ids := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		name, id, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("NOCODB_TABLES inválido: %q (esperado tabela=id)", pair)
		}
		ids[strings.TrimSpace(name)] = strings.TrimSpace(id)
	}
	return ids, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverNocoDB, StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER inválido: %q", c.Store.Driver)
	}

	switch c.Sync.ResultMode {
	case ResultModePriority, ResultModeStrict:
	default:
		return fmt.Errorf("SYNC_RESULT_MODE inválido: %q", c.Sync.ResultMode)
	}

	if _, err := time.LoadLocation(c.Sync.Timezone); err != nil {
		return fmt.Errorf("SYNC_TIMEZONE inválido: %w", err)
	}

	if c.Sync.BatchSize <= 0 || c.Sync.UpsertConcurrency <= 0 || c.Sync.MaxConcurrentAccounts <= 0 {
		return fmt.Errorf("SYNC_BATCH_SIZE, SYNC_UPSERT_CONCURRENCY e SYNC_MAX_CONCURRENT_ACCOUNTS devem ser positivos")
	}

	if c.Sync.RetentionDays < 1 {
		return fmt.Errorf("SYNC_RETENTION_DAYS deve ser pelo menos 1")
	}

	return nil
}

// Location devolve o fuso padrão do negócio.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Sync.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Info("Arquivo .env carregado com sucesso de:", location)
			return
		}
	}

	logrus.Warn("Não foi possível carregar o arquivo .env de nenhuma localização conhecida")
}
