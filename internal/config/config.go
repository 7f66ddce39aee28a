package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"taskPlanner/internal/models/user"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "TASKPLANNER"

const (
	RepositoryInMemory = "inmemory"
	RepositoryPostgres = "postgres"
	RepositoryMongo    = "mongo"
	RepositorySQLite   = "sqlite"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Mongo      MongoConfig      `mapstructure:"mongo" yaml:"mongo"`
	SQLite     SQLiteConfig     `mapstructure:"sqlite" yaml:"sqlite"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Repository RepositoryConfig `mapstructure:"repository" yaml:"repository"`
	Auth       AuthConfig       `mapstructure:"auth" yaml:"auth"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler" yaml:"scheduler"`
	Coach      CoachConfig      `mapstructure:"coach" yaml:"coach"`
	Broadcast  BroadcastConfig  `mapstructure:"broadcast" yaml:"broadcast"`
	Worker     WorkerConfig     `mapstructure:"worker" yaml:"worker"`
	Service    ServiceConfig    `mapstructure:"service" yaml:"service"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port" yaml:"port"`
	Host            string        `mapstructure:"host" yaml:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	RateLimit       int           `mapstructure:"rate_limit" yaml:"rate_limit"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url" yaml:"url"`
	MaxConnections int           `mapstructure:"max_connections" yaml:"max_connections"`
	MinConnections int           `mapstructure:"min_connections" yaml:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	Migrate        bool          `mapstructure:"migrate" yaml:"migrate"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri" yaml:"uri"`
	Database string `mapstructure:"database" yaml:"database"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development" yaml:"development"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type" yaml:"type"` // inmemory, postgres, mongo или sqlite
}

type AuthConfig struct {
	Secret string `mapstructure:"secret" yaml:"secret"`
}

type SchedulerConfig struct {
	WorkHoursStart string `mapstructure:"work_hours_start" yaml:"work_hours_start"`
	WorkHoursEnd   string `mapstructure:"work_hours_end" yaml:"work_hours_end"`
	TaskLimit      int    `mapstructure:"task_limit" yaml:"task_limit"`
}

type CoachConfig struct {
	Window int `mapstructure:"window" yaml:"window"`
}

type BroadcastConfig struct {
	BufferSize int `mapstructure:"buffer_size" yaml:"buffer_size"`
}

type WorkerConfig struct {
	Enabled    bool          `mapstructure:"enabled" yaml:"enabled"`
	Interval   time.Duration `mapstructure:"interval" yaml:"interval"`
	BatchSize  int           `mapstructure:"batch_size" yaml:"batch_size"`
	WarnBefore time.Duration `mapstructure:"warn_before" yaml:"warn_before"`
	Cooldown   time.Duration `mapstructure:"cooldown" yaml:"cooldown"`
}

type ServiceConfig struct {
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	MaxRetries      int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryInitial    time.Duration `mapstructure:"retry_initial" yaml:"retry_initial"`
	RetryMax        time.Duration `mapstructure:"retry_max" yaml:"retry_max"`
	MembershipCheck bool          `mapstructure:"membership_check" yaml:"membership_check"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit", 100)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)
	v.SetDefault("database.migrate", true)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "taskplanner")

	v.SetDefault("sqlite.path", "taskplanner.db")

	v.SetDefault("logging.development", false)
	v.SetDefault("repository.type", RepositoryInMemory)
	v.SetDefault("auth.secret", "")

	v.SetDefault("scheduler.work_hours_start", user.DefaultWorkHoursStart)
	v.SetDefault("scheduler.work_hours_end", user.DefaultWorkHoursEnd)
	v.SetDefault("scheduler.task_limit", 10)
	v.SetDefault("coach.window", 30)
	v.SetDefault("broadcast.buffer_size", 64)

	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.interval", 5*time.Minute)
	v.SetDefault("worker.batch_size", 100)
	v.SetDefault("worker.warn_before", 24*time.Hour)
	v.SetDefault("worker.cooldown", time.Hour)

	v.SetDefault("service.fetch_timeout", 5*time.Second)
	v.SetDefault("service.max_retries", 3)
	v.SetDefault("service.retry_initial", 100*time.Millisecond)
	v.SetDefault("service.retry_max", 2*time.Second)
	v.SetDefault("service.membership_check", false)
}

// Load читает .env (если есть), затем config-файл и переменные TASKPLANNER_*.
// Переменные окружения перекрывают файл, отсутствующий файл не ошибка.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфига: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryInMemory, RepositorySQLite:
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url обязателен для postgres")
		}
	case RepositoryMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return errors.New("mongo.uri и mongo.database обязательны для mongo")
		}
	default:
		return fmt.Errorf("неизвестный тип репозитория: %q", c.Repository.Type)
	}

	if c.Auth.Secret == "" {
		return errors.New("auth.secret не задан")
	}

	start, err := user.ParseHour(c.Scheduler.WorkHoursStart)
	if err != nil {
		return fmt.Errorf("scheduler.work_hours_start: %w", err)
	}
	end, err := user.ParseHour(c.Scheduler.WorkHoursEnd)
	if err != nil {
		return fmt.Errorf("scheduler.work_hours_end: %w", err)
	}
	if end <= start {
		return errors.New("рабочий день заканчивается раньше, чем начинается")
	}
	return nil
}

// WorkWindow - рабочие часы по умолчанию, уже проверенные Validate
func (c *Config) WorkWindow() (int, int) {
	start, _ := user.ParseHour(c.Scheduler.WorkHoursStart)
	end, _ := user.ParseHour(c.Scheduler.WorkHoursEnd)
	return start, end
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// Dump пишет итоговый конфиг в YAML, секрет скрывается
func (c *Config) Dump(w io.Writer) error {
	masked := *c
	if masked.Auth.Secret != "" {
		masked.Auth.Secret = "***"
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(masked); err != nil {
		return fmt.Errorf("запись конфига: %w", err)
	}
	return enc.Close()
}
