package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string
	LogDir    string

	RateLimitEnabled  bool
	RateLimit         int
	RateLimitInterval time.Duration

	Transcript TranscriptConfig
	Summary    SummaryConfig

	// Empty DBPath disables the summary archive.
	DBPath string
	Spaces SpacesConfig
}

type TranscriptConfig struct {
	Source       string
	Languages    []string
	BaseURL      string
	FetchTimeout time.Duration
	UVPath       string
	ScriptsPath  string
}

type SummaryConfig struct {
	Provider       string
	Model          string
	Endpoint       string
	APIKey         string
	MaxInputTokens int
	Timeout        time.Duration
	Preload        bool
}

type SpacesConfig struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// Enabled reports whether summaries should be exported to object storage.
func (s SpacesConfig) Enabled() bool {
	return s.Bucket != ""
}

func LoadConfig() *Config {
	return &Config{
		ServerPort:      GetEnv("SERVER_PORT", "8080"),
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 5*time.Minute),
		IdleTimeout:     getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogFormat: GetEnv("LOG_FORMAT", "text"),
		LogDir:    GetEnv("LOG_DIR", ""),

		RateLimitEnabled:  getEnvAsBool("RATE_LIMIT_ENABLED", true),
		RateLimit:         getEnvAsInt("RATE_LIMIT", 5),
		RateLimitInterval: getEnvAsDuration("RATE_LIMIT_INTERVAL", 1*time.Second),

		Transcript: TranscriptConfig{
			Source:       GetEnv("TRANSCRIPT_SOURCE", "youtube"),
			Languages:    getEnvAsStringSlice("TRANSCRIPT_LANGUAGES", []string{"en"}),
			BaseURL:      GetEnv("YOUTUBE_BASE_URL", "https://www.youtube.com"),
			FetchTimeout: getEnvAsDuration("FETCH_TIMEOUT", 60*time.Second),
			UVPath:       GetEnv("UV_PATH", "uv"),
			ScriptsPath:  GetEnv("SCRIPTS_PATH", "./scripts"),
		},

		Summary: SummaryConfig{
			Provider:       GetEnv("SUMMARY_PROVIDER", "huggingface"),
			Model:          GetEnv("SUMMARY_MODEL", ""),
			Endpoint:       GetEnv("SUMMARY_ENDPOINT", ""),
			APIKey:         GetEnv("SUMMARY_API_KEY", ""),
			MaxInputTokens: getEnvAsInt("SUMMARY_MAX_INPUT_TOKENS", 1024),
			Timeout:        getEnvAsDuration("SUMMARY_TIMEOUT", 5*time.Minute),
			Preload:        getEnvAsBool("SUMMARY_PRELOAD", false),
		},

		DBPath: GetEnv("DB_PATH", "./data/summaries.db"),
		Spaces: SpacesConfig{
			Bucket:    GetEnv("SPACES_BUCKET", ""),
			Endpoint:  GetEnv("SPACES_ENDPOINT", ""),
			Region:    GetEnv("SPACES_REGION", "us-east-1"),
			AccessKey: GetEnv("SPACES_ACCESS_KEY", ""),
			SecretKey: GetEnv("SPACES_SECRET_KEY", ""),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid boolean, using default")
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func ValidateConfig(cfg *Config) error {
	if cfg.ServerPort == "" {
		return errors.New("server port is required")
	}
	if cfg.ReadTimeout <= 0 {
		return errors.New("read timeout must be greater than 0")
	}
	if cfg.WriteTimeout <= 0 {
		return errors.New("write timeout must be greater than 0")
	}
	if cfg.IdleTimeout <= 0 {
		return errors.New("idle timeout must be greater than 0")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be greater than 0")
	}
	if cfg.RateLimitEnabled && cfg.RateLimit <= 0 {
		return errors.New("rate limit must be greater than 0")
	}
	if cfg.RateLimitEnabled && cfg.RateLimitInterval <= 0 {
		return errors.New("rate limit interval must be greater than 0")
	}

	switch cfg.Transcript.Source {
	case "youtube":
		if cfg.Transcript.BaseURL == "" {
			return errors.New("youtube base URL is required")
		}
	case "script":
		if cfg.Transcript.ScriptsPath == "" {
			return errors.New("scripts path is required for the script transcript source")
		}
	default:
		return errors.Errorf("unknown transcript source %q", cfg.Transcript.Source)
	}
	if len(cfg.Transcript.Languages) == 0 {
		return errors.New("at least one transcript language is required")
	}

	switch cfg.Summary.Provider {
	case "huggingface", "openai", "anthropic":
	default:
		return errors.Errorf("unknown summary provider %q", cfg.Summary.Provider)
	}
	if cfg.Summary.MaxInputTokens <= 0 {
		return errors.New("summary max input tokens must be greater than 0")
	}
	if cfg.Summary.Timeout <= 0 {
		return errors.New("summary timeout must be greater than 0")
	}
	if cfg.Summary.Provider != "huggingface" && cfg.Summary.APIKey == "" {
		return errors.Errorf("summary API key is required for provider %s", cfg.Summary.Provider)
	}

	if cfg.Spaces.Enabled() && (cfg.Spaces.AccessKey == "" || cfg.Spaces.SecretKey == "") {
		return errors.New("spaces access key and secret key are required when a bucket is set")
	}
	return nil
}
