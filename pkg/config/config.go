// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Corpus, Indexer, Search, Redis, Postgres, Kafka, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Search   SearchConfig   `yaml:"search"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings for the search API.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RateLimit       float64       `yaml:"rateLimit"`
	RateBurst       int           `yaml:"rateBurst"`
}

// CorpusConfig locates the documents, topics, judgments and result file of
// one evaluation collection.
type CorpusConfig struct {
	Language     string   `yaml:"language"`
	DocumentsDir string   `yaml:"documentsDir"`
	TopicsFile   string   `yaml:"topicsFile"`
	QrelsFile    string   `yaml:"qrelsFile"`
	OutputFile   string   `yaml:"outputFile"`
	Fields       []string `yaml:"fields"`
}

// IndexedFields returns the document elements to index: the configured list,
// or the collection default for the language.
func (c CorpusConfig) IndexedFields() []string {
	if len(c.Fields) > 0 {
		return c.Fields
	}
	switch c.Language {
	case "en":
		return []string{"HD", "LD", "TE"}
	default:
		return []string{"TITLE", "HEADING", "TEXT"}
	}
}

// IndexerConfig controls the sharded build phase.
type IndexerConfig struct {
	NumShards int `yaml:"numShards"`
	QueueSize int `yaml:"queueSize"`
}

// SearchConfig controls query execution limits and timeouts.
type SearchConfig struct {
	MaxConcurrentQueries int           `yaml:"maxConcurrentQueries"`
	QueryTimeout         time.Duration `yaml:"queryTimeout"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	QueryRequests string `yaml:"queryRequests"`
	QueryResults  string `yaml:"queryResults"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Indexer.NumShards < 1 {
		return fmt.Errorf("indexer.numShards must be at least 1, got %d", c.Indexer.NumShards)
	}
	if c.Search.MaxConcurrentQueries < 1 {
		return fmt.Errorf("search.maxConcurrentQueries must be at least 1, got %d", c.Search.MaxConcurrentQueries)
	}
	switch c.Corpus.Language {
	case "cz", "en":
	default:
		return fmt.Errorf("corpus.language must be cz or en, got %q", c.Corpus.Language)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit:       200,
			RateBurst:       50,
		},
		Corpus: CorpusConfig{
			Language:     "cz",
			DocumentsDir: "A2/documents_cs",
			TopicsFile:   "A2/topics-train_cs.xml",
			QrelsFile:    "A2/qrels-train_cs.txt",
			OutputFile:   "result_cs.txt",
		},
		Indexer: IndexerConfig{
			NumShards: 4,
			QueueSize: 256,
		},
		Search: SearchConfig{
			MaxConcurrentQueries: 8,
			QueryTimeout:         5 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "retrieval",
			User:            "retrieval",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "boolean-retrieval",
			Topics: KafkaTopics{
				QueryRequests: "query-requests",
				QueryResults:  "query-results",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads BR_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BR_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("BR_CORPUS_LANGUAGE"); v != "" {
		cfg.Corpus.Language = v
	}
	if v := os.Getenv("BR_CORPUS_DOCUMENTS_DIR"); v != "" {
		cfg.Corpus.DocumentsDir = v
	}
	if v := os.Getenv("BR_CORPUS_TOPICS_FILE"); v != "" {
		cfg.Corpus.TopicsFile = v
	}
	if v := os.Getenv("BR_CORPUS_QRELS_FILE"); v != "" {
		cfg.Corpus.QrelsFile = v
	}
	if v := os.Getenv("BR_CORPUS_OUTPUT_FILE"); v != "" {
		cfg.Corpus.OutputFile = v
	}
	if v := os.Getenv("BR_INDEXER_NUM_SHARDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.NumShards = n
		}
	}
	if v := os.Getenv("BR_SEARCH_MAX_CONCURRENT_QUERIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxConcurrentQueries = n
		}
	}
	if v := os.Getenv("BR_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = v == "true"
	}
	if v := os.Getenv("BR_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("BR_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("BR_POSTGRES_ENABLED"); v != "" {
		cfg.Postgres.Enabled = v == "true"
	}
	if v := os.Getenv("BR_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("BR_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("BR_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("BR_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("BR_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("BR_KAFKA_ENABLED"); v != "" {
		cfg.Kafka.Enabled = v == "true"
	}
	if v := os.Getenv("BR_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("BR_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BR_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
