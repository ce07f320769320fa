// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Queue     QueueConfig     `yaml:"queue"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Detection DetectionConfig `yaml:"detection"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"SERVER_ADDR"             env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

// DatabaseConfig holds PostgreSQL settings. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string        `yaml:"url"               env:"DATABASE_URL"`
	MaxOpenConns    int           `yaml:"max_open_conns"    env:"DATABASE_MAX_OPEN_CONNS"    env-default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns"    env:"DATABASE_MAX_IDLE_CONNS"    env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool          `yaml:"auto_migrate"      env:"DATABASE_AUTO_MIGRATE"      env-default:"true"`
}

// RedisConfig holds Redis settings. An empty URL selects the in-memory job store.
type RedisConfig struct {
	URL          string        `yaml:"url"            env:"REDIS_URL"`
	PoolSize     int           `yaml:"pool_size"      env:"REDIS_POOL_SIZE"      env-default:"10"`
	MinIdleConns int           `yaml:"min_idle_conns" env:"REDIS_MIN_IDLE_CONNS" env-default:"2"`
	DialTimeout  time.Duration `yaml:"dial_timeout"   env:"REDIS_DIAL_TIMEOUT"   env-default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout"   env:"REDIS_READ_TIMEOUT"   env-default:"3s"`
	WriteTimeout time.Duration `yaml:"write_timeout"  env:"REDIS_WRITE_TIMEOUT"  env-default:"3s"`
	JobTTL       time.Duration `yaml:"job_ttl"        env:"REDIS_JOB_TTL"        env-default:"24h"`
}

// KafkaConfig holds the event sink settings. No brokers disables the sink.
type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"            env:"KAFKA_BROKERS"            env-separator:","`
	EventsTopic       string   `yaml:"events_topic"       env:"KAFKA_EVENTS_TOPIC"       env-default:"phraseguard.events"`
	ClientID          string   `yaml:"client_id"          env:"KAFKA_CLIENT_ID"          env-default:"phraseguard"`
	BufferSize        int      `yaml:"buffer_size"        env:"KAFKA_BUFFER_SIZE"        env-default:"1024"`
	CreateTopic       bool     `yaml:"create_topic"       env:"KAFKA_CREATE_TOPIC"       env-default:"false"`
	TopicPartitions   int32    `yaml:"topic_partitions"   env:"KAFKA_TOPIC_PARTITIONS"   env-default:"-1"`
	ReplicationFactor int16    `yaml:"replication_factor" env:"KAFKA_REPLICATION_FACTOR" env-default:"-1"`
}

// OllamaConfig selects the model server. An empty embedding model disables
// similarity matching; an empty rewrite model disables rewriting.
type OllamaConfig struct {
	URL            string        `yaml:"url"             env:"OLLAMA_URL"             env-default:"http://localhost:11434"`
	EmbeddingModel string        `yaml:"embedding_model" env:"EMBEDDING_MODEL"`
	RewriteModel   string        `yaml:"rewrite_model"   env:"REWRITE_MODEL"`
	Timeout        time.Duration `yaml:"timeout"         env:"OLLAMA_TIMEOUT"         env-default:"120s"`
}

// QueueConfig tunes the check queue.
type QueueConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent" env:"QUEUE_MAX_CONCURRENT" env-default:"3"`
	JobTimeout    time.Duration `yaml:"job_timeout"    env:"QUEUE_JOB_TIMEOUT"    env-default:"2m"`
}

// EmbeddingConfig tunes the embedding queue.
type EmbeddingConfig struct {
	Concurrency int `yaml:"concurrency" env:"EMBEDDING_CONCURRENCY" env-default:"2"`
	Backlog     int `yaml:"backlog"     env:"EMBEDDING_BACKLOG"     env-default:"64"`
}

// DetectionConfig tunes matching.
type DetectionConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" env:"SIMILARITY_THRESHOLD" env-default:"0.75"`
}

// RateLimitConfig bounds check submissions per client. Zero disables limiting.
type RateLimitConfig struct {
	CheckSubmissions int           `yaml:"check_submissions" env:"RATE_LIMIT_CHECK_SUBMISSIONS" env-default:"60"`
	Window           time.Duration `yaml:"window"            env:"RATE_LIMIT_WINDOW"            env-default:"1m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Load reads configuration from the environment, or from the YAML file named
// by CONFIG_PATH with environment overrides.
func Load() (*Config, error) {
	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate rejects out-of-range values.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("SERVER_ADDR is required"))
	}
	if c.Queue.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("QUEUE_MAX_CONCURRENT must be at least 1, got %d", c.Queue.MaxConcurrent))
	}
	if c.Queue.JobTimeout <= 0 {
		errs = append(errs, errors.New("QUEUE_JOB_TIMEOUT must be positive"))
	}
	if c.Embedding.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("EMBEDDING_CONCURRENCY must be at least 1, got %d", c.Embedding.Concurrency))
	}
	if c.Embedding.Backlog < 1 {
		errs = append(errs, fmt.Errorf("EMBEDDING_BACKLOG must be at least 1, got %d", c.Embedding.Backlog))
	}
	if t := c.Detection.SimilarityThreshold; t <= 0 || t > 1 {
		errs = append(errs, fmt.Errorf("SIMILARITY_THRESHOLD must be in (0, 1], got %v", t))
	}
	if c.RateLimit.CheckSubmissions < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_CHECK_SUBMISSIONS must not be negative, got %d", c.RateLimit.CheckSubmissions))
	}
	if c.RateLimit.CheckSubmissions > 0 && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.EventsTopic == "" {
		errs = append(errs, errors.New("KAFKA_EVENTS_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if c.Kafka.BufferSize < 1 {
		errs = append(errs, fmt.Errorf("KAFKA_BUFFER_SIZE must be at least 1, got %d", c.Kafka.BufferSize))
	}
	return errors.Join(errs...)
}
