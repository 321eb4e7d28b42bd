package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// HTTP holds HTTP server configuration.
type HTTP struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// GRPC holds configuration of the optional gRPC health server.
type GRPC struct {
	Enabled bool
	Host    string
	Port    int
}

// Session configures the cookie carrying flash messages between requests.
type Session struct {
	CookieName string
	Secret     string
	Secure     bool
}

// Cache configures caching behavior and backend selection.
type Cache struct {
	Enabled    bool
	Driver     string
	KeyPrefix  string
	DefaultTTL time.Duration
	Redis      Redis
}

// Redis contains redis-specific connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Messaging configures the message bus used for order change notifications.
type Messaging struct {
	Driver        string
	Enabled       bool
	Kafka         Kafka
	ConsumerGroup string
	Workers       Worker
}

// Kafka holds Kafka connection details.
type Kafka struct {
	Brokers        []string
	ClientID       string
	Topic          string
	CommitInterval time.Duration
	MinBytes       int
	MaxBytes       int
	ConnectTimeout time.Duration
}

// Worker configures background worker concurrency and polling.
type Worker struct {
	Enabled      bool
	PollInterval time.Duration
	Concurrency  int
}

// Database holds primary and read replica connection settings.
type Database struct {
	Driver          string
	WriterDSN       string
	ReaderDSN       string
	AutoMigrate     bool
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
}

// Observability contains logging, tracing, and metrics configuration.
type Observability struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	LogLevel       string
	LogEncoding    string
	EnableTracing  bool
	TraceExporter  string
	TraceEndpoint  string
	TraceInsecure  bool
	// TraceSampleRatio is the fraction of new traces recorded, between 0 and 1.
	TraceSampleRatio float64
	EnableMetrics    bool
	MetricsExporter  string
	PrometheusPath   string
}

// Config wraps all application configuration knobs.
type Config struct {
	HTTP          HTTP
	GRPC          GRPC
	Session       Session
	Cache         Cache
	Messaging     Messaging
	Database      Database
	Observability Observability
}

// Module wires the configuration loader into the Fx graph.
var Module = fx.Provide(New)

var loadEnvOnce sync.Once

const (
	defaultCookieName    = "serviceorders_flash"
	defaultSessionSecret = "dev-secret-key-change-me"
)

// New builds a Config from the environment, loading a .env file first when
// one is present.
func New() (Config, error) {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})
	return load(newEnv())
}

func load(e *env) (Config, error) {
	cfg := Config{
		HTTP:          loadHTTP(e),
		GRPC:          loadGRPC(e),
		Session:       loadSession(e),
		Cache:         loadCache(e),
		Messaging:     loadMessaging(e),
		Database:      loadDatabase(e),
		Observability: loadObservability(e),
	}
	if err := e.err(); err != nil {
		return Config{}, err
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadHTTP(e *env) HTTP {
	return HTTP{
		Host:            e.str("HTTP_HOST", "0.0.0.0"),
		Port:            e.num("HTTP_PORT", 8080),
		ShutdownTimeout: e.duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadGRPC(e *env) GRPC {
	return GRPC{
		Enabled: e.flag("GRPC_ENABLED", false),
		Host:    e.str("GRPC_HOST", "0.0.0.0"),
		Port:    e.num("GRPC_PORT", 9090),
	}
}

func loadSession(e *env) Session {
	return Session{
		CookieName: e.str("SESSION_COOKIE_NAME", defaultCookieName),
		Secret:     e.str("SESSION_SECRET", defaultSessionSecret),
		Secure:     e.flag("SESSION_COOKIE_SECURE", false),
	}
}

func loadCache(e *env) Cache {
	return Cache{
		Enabled:    e.flag("CACHE_ENABLED", false),
		Driver:     e.str("CACHE_DRIVER", "redis"),
		KeyPrefix:  e.str("CACHE_KEY_PREFIX", "serviceorders"),
		DefaultTTL: e.duration("CACHE_DEFAULT_TTL", 5*time.Minute),
		Redis: Redis{
			Addr:     e.str("REDIS_ADDR", "127.0.0.1:6379"),
			Password: e.str("REDIS_PASSWORD", ""),
			DB:       e.num("REDIS_DB", 0),
		},
	}
}

func loadMessaging(e *env) Messaging {
	return Messaging{
		Driver:  e.str("MESSAGING_DRIVER", "kafka"),
		Enabled: e.flag("MESSAGING_ENABLED", false),
		Kafka: Kafka{
			Brokers:        e.list("KAFKA_BROKERS", []string{"127.0.0.1:9092"}),
			ClientID:       e.str("KAFKA_CLIENT_ID", "serviceorders"),
			Topic:          e.str("KAFKA_TOPIC", "service-orders.events"),
			CommitInterval: e.duration("KAFKA_COMMIT_INTERVAL", time.Second),
			MinBytes:       e.num("KAFKA_MIN_BYTES", 10e3),
			MaxBytes:       e.num("KAFKA_MAX_BYTES", 10e6),
			ConnectTimeout: e.duration("KAFKA_CONNECT_TIMEOUT", 5*time.Second),
		},
		ConsumerGroup: e.str("KAFKA_CONSUMER_GROUP", "serviceorders-worker"),
		Workers: Worker{
			Enabled:      e.flag("WORKER_ENABLED", true),
			PollInterval: e.duration("WORKER_POLL_INTERVAL", time.Second),
			Concurrency:  e.num("WORKER_CONCURRENCY", 1),
		},
	}
}

func loadDatabase(e *env) Database {
	return Database{
		Driver:          e.str("DB_DRIVER", "sqlite"),
		WriterDSN:       e.str("DB_WRITER_DSN", "file:service_orders.db"),
		ReaderDSN:       e.str("DB_READER_DSN", ""),
		AutoMigrate:     e.flag("DB_AUTO_MIGRATE", true),
		MaxOpenConns:    e.num("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    e.num("DB_MAX_IDLE_CONNS", 10),
		MaxConnLifetime: e.duration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
	}
}

func loadObservability(e *env) Observability {
	return Observability{
		ServiceName:      e.str("OBS_SERVICE_NAME", "serviceorders"),
		ServiceVersion:   e.str("OBS_SERVICE_VERSION", "0.1.0"),
		Environment:      e.str("OBS_ENVIRONMENT", "local"),
		LogLevel:         e.str("OBS_LOG_LEVEL", "info"),
		LogEncoding:      e.str("OBS_LOG_ENCODING", "json"),
		EnableTracing:    e.flag("OBS_ENABLE_TRACING", false),
		TraceExporter:    e.str("OBS_TRACE_EXPORTER", "stdout"),
		TraceEndpoint:    e.str("OBS_OTLP_ENDPOINT", "localhost:4317"),
		TraceInsecure:    e.flag("OBS_OTLP_INSECURE", true),
		TraceSampleRatio: e.ratio("OBS_TRACE_SAMPLE_RATIO", 1),
		EnableMetrics:    e.flag("OBS_ENABLE_METRICS", true),
		MetricsExporter:  e.str("OBS_METRICS_EXPORTER", "prometheus"),
		PrometheusPath:   e.str("OBS_PROMETHEUS_PATH", "/metrics"),
	}
}

func (cfg *Config) normalize() error {
	if cfg.HTTP.Port <= 0 {
		return fmt.Errorf("invalid HTTP port: %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}

	if cfg.GRPC.Enabled && cfg.GRPC.Port <= 0 {
		return fmt.Errorf("invalid gRPC port: %d", cfg.GRPC.Port)
	}

	if strings.TrimSpace(cfg.Session.CookieName) == "" {
		cfg.Session.CookieName = defaultCookieName
	}
	if cfg.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET must not be empty")
	}

	if !cfg.Cache.Enabled {
		cfg.Cache.Driver = "noop"
	}

	switch cfg.Cache.Driver {
	case "redis", "noop":
		// supported
	default:
		return fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}

	if cfg.Cache.Driver == "redis" && cfg.Cache.Redis.Addr == "" {
		return fmt.Errorf("missing REDIS_ADDR for redis cache")
	}

	if cfg.Cache.DefaultTTL < 0 {
		cfg.Cache.DefaultTTL = time.Minute * 5
	}

	obs := &cfg.Observability
	obs.LogLevel = lowerOr(obs.LogLevel, "info")
	obs.LogEncoding = lowerOr(obs.LogEncoding, "json")
	obs.TraceExporter = lowerOr(obs.TraceExporter, "stdout")
	obs.MetricsExporter = lowerOr(obs.MetricsExporter, "prometheus")

	if obs.TraceSampleRatio < 0 || obs.TraceSampleRatio > 1 {
		return fmt.Errorf("OBS_TRACE_SAMPLE_RATIO must be between 0 and 1, got %v", obs.TraceSampleRatio)
	}

	if obs.PrometheusPath == "" {
		obs.PrometheusPath = "/metrics"
	} else if !strings.HasPrefix(obs.PrometheusPath, "/") {
		obs.PrometheusPath = "/" + obs.PrometheusPath
	}

	if !cfg.Messaging.Enabled {
		cfg.Messaging.Driver = "noop"
	}

	switch cfg.Messaging.Driver {
	case "kafka", "noop":
		// supported
	default:
		return fmt.Errorf("unsupported messaging driver: %s", cfg.Messaging.Driver)
	}

	if cfg.Messaging.Driver == "kafka" {
		if len(cfg.Messaging.Kafka.Brokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS must be provided")
		}
		if cfg.Messaging.Kafka.Topic == "" {
			return fmt.Errorf("KAFKA_TOPIC must be provided")
		}
		if cfg.Messaging.ConsumerGroup == "" {
			return fmt.Errorf("KAFKA_CONSUMER_GROUP must be provided")
		}
	}

	if cfg.Messaging.Workers.Concurrency <= 0 {
		cfg.Messaging.Workers.Concurrency = 1
	}
	if cfg.Messaging.Workers.PollInterval <= 0 {
		cfg.Messaging.Workers.PollInterval = time.Second
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	switch cfg.Database.Driver {
	case "sqlite", "postgres", "mysql":
		// supported
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	if cfg.Database.WriterDSN == "" {
		return fmt.Errorf("missing DB_WRITER_DSN")
	}

	if cfg.Database.ReaderDSN == "" {
		cfg.Database.ReaderDSN = cfg.Database.WriterDSN
	}

	return nil
}

func lowerOr(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
