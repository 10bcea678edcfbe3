package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Database  DatabaseConfig
	Store     StoreConfig
	Index     IndexConfig
	Registry  RegistryConfig
	Sources   SourcesConfig
	Ingestion IngestionConfig
	Training  TrainingConfig
	Detector  DetectorConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Host   string
	Port   int
	APIKey string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// StoreConfig selects the artifact storage backend. Driver "local" writes
// under Root; driver "s3" targets a MinIO/S3 bucket.
type StoreConfig struct {
	Driver    string
	Root      string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// IndexConfig selects the deduplication index backend. Driver "memory" is
// rebuilt from store metadata on startup; driver "postgres" is durable on
// its own.
type IndexConfig struct {
	Driver string
	Lease  time.Duration
}

type RegistryConfig struct {
	Driver string
	File   string
}

type SourceConfig struct {
	Enabled     bool
	APIKey      string
	Queries     []string
	RatePerHour int
}

type RedditConfig struct {
	SourceConfig
	Subreddits []string
	MinScore   int
}

type SourcesConfig struct {
	Unsplash SourceConfig
	Pexels   SourceConfig
	Civitai  SourceConfig
	Lexica   SourceConfig
	Reddit   RedditConfig
}

type IngestionConfig struct {
	LimitPerSource  int
	QueriesPerRun   int
	FetchTimeout    time.Duration
	DownloadTimeout time.Duration
	UserAgent       string
}

type TrainingConfig struct {
	ModelName      string
	Threshold      int
	ValRatio       float64
	Seed           int64
	AccuracyTarget float64
}

type DetectorConfig struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

type SchedulerConfig struct {
	Enabled     bool
	IngestEvery time.Duration
	TrainEvery  time.Duration
	RunTimeout  time.Duration
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("API_KEY", "")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "trainer")
	v.SetDefault("DB_PASSWORD", "trainer")
	v.SetDefault("DB_NAME", "trainer")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("STORE_DRIVER", "local")
	v.SetDefault("STORE_ROOT", "./data")
	v.SetDefault("S3_ENDPOINT", "localhost:9000")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_BUCKET", "training-data")
	v.SetDefault("S3_USE_SSL", false)

	v.SetDefault("INDEX_DRIVER", "memory")
	v.SetDefault("INDEX_LEASE", "15m")
	v.SetDefault("REGISTRY_DRIVER", "file")
	v.SetDefault("REGISTRY_FILE", "./data/registry.json")

	v.SetDefault("UNSPLASH_ENABLED", false)
	v.SetDefault("UNSPLASH_ACCESS_KEY", "")
	v.SetDefault("UNSPLASH_QUERIES", "portrait,landscape,street photography")
	v.SetDefault("UNSPLASH_RATE_PER_HOUR", 50)
	v.SetDefault("PEXELS_ENABLED", false)
	v.SetDefault("PEXELS_API_KEY", "")
	v.SetDefault("PEXELS_QUERIES", "people,nature")
	v.SetDefault("PEXELS_RATE_PER_HOUR", 200)
	v.SetDefault("CIVITAI_ENABLED", false)
	v.SetDefault("CIVITAI_API_KEY", "")
	v.SetDefault("CIVITAI_QUERIES", "photorealistic,portrait")
	v.SetDefault("CIVITAI_RATE_PER_HOUR", 100)
	v.SetDefault("LEXICA_ENABLED", false)
	v.SetDefault("LEXICA_QUERIES", "photorealistic portrait,realistic photo")
	v.SetDefault("LEXICA_RATE_PER_HOUR", 60)
	v.SetDefault("REDDIT_ENABLED", false)
	v.SetDefault("REDDIT_SUBREDDITS", "itookapicture,midjourney")
	v.SetDefault("REDDIT_MIN_SCORE", 10)
	v.SetDefault("REDDIT_RATE_PER_HOUR", 60)

	v.SetDefault("INGEST_LIMIT_PER_SOURCE", 25)
	v.SetDefault("INGEST_QUERIES_PER_RUN", 2)
	v.SetDefault("INGEST_FETCH_TIMEOUT", "120s")
	v.SetDefault("INGEST_DOWNLOAD_TIMEOUT", "10s")
	v.SetDefault("INGEST_USER_AGENT", "model-trainer-service/1.0")

	v.SetDefault("TRAIN_MODEL_NAME", "vit")
	v.SetDefault("TRAIN_THRESHOLD", 50)
	v.SetDefault("TRAIN_VAL_RATIO", 0.1)
	v.SetDefault("TRAIN_SEED", 42)
	v.SetDefault("TRAIN_ACCURACY_TARGET", 0.8)

	v.SetDefault("DETECTOR_ENABLED", false)
	v.SetDefault("DETECTOR_ENDPOINT", "http://localhost:8085")
	v.SetDefault("DETECTOR_API_KEY", "")
	v.SetDefault("DETECTOR_TIMEOUT", "15s")

	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("SCHEDULER_INGEST_EVERY", "12h")
	v.SetDefault("SCHEDULER_TRAIN_EVERY", "168h")
	v.SetDefault("SCHEDULER_RUN_TIMEOUT", "30m")

	// Env
	v.AutomaticEnv()

	// Optional config file, env still wins
	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:   v.GetString("SERVER_HOST"),
			Port:   v.GetInt("SERVER_PORT"),
			APIKey: v.GetString("API_KEY"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Store: StoreConfig{
			Driver:    v.GetString("STORE_DRIVER"),
			Root:      v.GetString("STORE_ROOT"),
			Endpoint:  v.GetString("S3_ENDPOINT"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Bucket:    v.GetString("S3_BUCKET"),
			UseSSL:    v.GetBool("S3_USE_SSL"),
		},
		Index: IndexConfig{
			Driver: v.GetString("INDEX_DRIVER"),
			Lease:  v.GetDuration("INDEX_LEASE"),
		},
		Registry: RegistryConfig{
			Driver: v.GetString("REGISTRY_DRIVER"),
			File:   v.GetString("REGISTRY_FILE"),
		},
		Sources: SourcesConfig{
			Unsplash: SourceConfig{
				Enabled:     v.GetBool("UNSPLASH_ENABLED"),
				APIKey:      v.GetString("UNSPLASH_ACCESS_KEY"),
				Queries:     splitCSV(v.GetString("UNSPLASH_QUERIES")),
				RatePerHour: v.GetInt("UNSPLASH_RATE_PER_HOUR"),
			},
			Pexels: SourceConfig{
				Enabled:     v.GetBool("PEXELS_ENABLED"),
				APIKey:      v.GetString("PEXELS_API_KEY"),
				Queries:     splitCSV(v.GetString("PEXELS_QUERIES")),
				RatePerHour: v.GetInt("PEXELS_RATE_PER_HOUR"),
			},
			Civitai: SourceConfig{
				Enabled:     v.GetBool("CIVITAI_ENABLED"),
				APIKey:      v.GetString("CIVITAI_API_KEY"),
				Queries:     splitCSV(v.GetString("CIVITAI_QUERIES")),
				RatePerHour: v.GetInt("CIVITAI_RATE_PER_HOUR"),
			},
			Lexica: SourceConfig{
				Enabled:     v.GetBool("LEXICA_ENABLED"),
				Queries:     splitCSV(v.GetString("LEXICA_QUERIES")),
				RatePerHour: v.GetInt("LEXICA_RATE_PER_HOUR"),
			},
			Reddit: RedditConfig{
				SourceConfig: SourceConfig{
					Enabled:     v.GetBool("REDDIT_ENABLED"),
					RatePerHour: v.GetInt("REDDIT_RATE_PER_HOUR"),
				},
				Subreddits: splitCSV(v.GetString("REDDIT_SUBREDDITS")),
				MinScore:   v.GetInt("REDDIT_MIN_SCORE"),
			},
		},
		Ingestion: IngestionConfig{
			LimitPerSource:  v.GetInt("INGEST_LIMIT_PER_SOURCE"),
			QueriesPerRun:   v.GetInt("INGEST_QUERIES_PER_RUN"),
			FetchTimeout:    v.GetDuration("INGEST_FETCH_TIMEOUT"),
			DownloadTimeout: v.GetDuration("INGEST_DOWNLOAD_TIMEOUT"),
			UserAgent:       v.GetString("INGEST_USER_AGENT"),
		},
		Training: TrainingConfig{
			ModelName:      v.GetString("TRAIN_MODEL_NAME"),
			Threshold:      v.GetInt("TRAIN_THRESHOLD"),
			ValRatio:       v.GetFloat64("TRAIN_VAL_RATIO"),
			Seed:           v.GetInt64("TRAIN_SEED"),
			AccuracyTarget: v.GetFloat64("TRAIN_ACCURACY_TARGET"),
		},
		Detector: DetectorConfig{
			Enabled:  v.GetBool("DETECTOR_ENABLED"),
			Endpoint: v.GetString("DETECTOR_ENDPOINT"),
			APIKey:   v.GetString("DETECTOR_API_KEY"),
			Timeout:  v.GetDuration("DETECTOR_TIMEOUT"),
		},
		Scheduler: SchedulerConfig{
			Enabled:     v.GetBool("SCHEDULER_ENABLED"),
			IngestEvery: v.GetDuration("SCHEDULER_INGEST_EVERY"),
			TrainEvery:  v.GetDuration("SCHEDULER_TRAIN_EVERY"),
			RunTimeout:  v.GetDuration("SCHEDULER_RUN_TIMEOUT"),
		},
	}

	return cfg, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
