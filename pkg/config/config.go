package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server         ServerConfig
	Redis          RedisConfig
	Cache          CacheConfig
	Google         GoogleConfig
	Speech         SpeechConfig
	Recommendation RecommendationConfig
	OTEL           OTELConfig
	Log            LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	AllowedOrigins  string // comma separated; empty allows any origin
	ShutdownTimeout time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig holds recommendation cache configuration
type CacheConfig struct {
	Backend    string // memory or redis
	TTLSeconds int
	MaxEntries int
}

// GoogleConfig holds facility source configuration
type GoogleConfig struct {
	Source        string // google or mock
	APIKey        string
	TrafficAware  bool
	QPS           float64
	Timeout       time.Duration
	PlacesURL     string
	DistanceURL   string
	ClinicKeyword string
}

// SpeechConfig holds ElevenLabs configuration
type SpeechConfig struct {
	APIKey  string
	VoiceID string
	ModelID string
	BaseURL string
	Timeout time.Duration
}

// RecommendationConfig holds engine tuning
type RecommendationConfig struct {
	MaxCandidates       int
	CollaboratorTimeout time.Duration
	ParallelFetch       bool
	OccupancyFile       string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Env   string
	Level string
}

// Load loads configuration from environment variables. A .env file in the
// working directory, when present, is applied first without overriding
// variables already set in the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins:  getEnv("ALLOWED_ORIGINS", ""),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Backend:    strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
			TTLSeconds: getEnvAsInt("CACHE_TTL_SECONDS", 300),
			MaxEntries: getEnvAsInt("CACHE_MAX_ENTRIES", 10000),
		},
		Google: GoogleConfig{
			Source:        strings.ToLower(getEnv("FACILITY_SOURCE", "google")),
			APIKey:        getEnv("GOOGLE_MAPS_API_KEY", ""),
			TrafficAware:  getEnvAsBool("GOOGLE_TRAFFIC_AWARE", false),
			QPS:           getEnvAsFloat("GOOGLE_MAPS_QPS", 10),
			Timeout:       getEnvAsDuration("FACILITY_SOURCE_TIMEOUT", 10*time.Second),
			PlacesURL:     getEnv("GOOGLE_PLACES_URL", ""),
			DistanceURL:   getEnv("GOOGLE_DISTANCE_MATRIX_URL", ""),
			ClinicKeyword: getEnv("GOOGLE_CLINIC_KEYWORD", "walk-in clinic urgent care"),
		},
		Speech: SpeechConfig{
			APIKey:  getEnv("ELEVEN_API_KEY", ""),
			VoiceID: getEnv("ELEVEN_VOICE_ID", ""),
			ModelID: getEnv("ELEVEN_MODEL_ID", "eleven_multilingual_v2"),
			BaseURL: getEnv("ELEVEN_BASE_URL", ""),
			Timeout: getEnvAsDuration("SPEECH_TIMEOUT", 12*time.Second),
		},
		Recommendation: RecommendationConfig{
			MaxCandidates:       getEnvAsInt("MAX_CANDIDATES", 10),
			CollaboratorTimeout: getEnvAsDuration("COLLABORATOR_TIMEOUT", 15*time.Second),
			ParallelFetch:       getEnvAsBool("PARALLEL_CANDIDATE_FETCH", true),
			OccupancyFile:       getEnv("OCCUPANCY_FILE", ""),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "care-router"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Log: LogConfig{
			Env:   getEnv("APP_ENV", "development"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

// Validate reports settings that make a required collaborator unusable.
func (c *Config) Validate() error {
	switch c.Google.Source {
	case "google":
		if c.Google.APIKey == "" {
			return fmt.Errorf("GOOGLE_MAPS_API_KEY must be set when FACILITY_SOURCE=google")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown FACILITY_SOURCE %q", c.Google.Source)
	}

	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}

	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive")
	}
	if c.Recommendation.MaxCandidates <= 0 {
		return fmt.Errorf("MAX_CANDIDATES must be positive")
	}
	return nil
}

// CacheTTL returns the recommendation cache TTL
func (c *CacheConfig) CacheTTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// SpeechConfigured reports whether both ElevenLabs credentials are present
func (c *SpeechConfig) SpeechConfigured() bool {
	return c.APIKey != "" && c.VoiceID != ""
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("8s") or bare seconds ("8").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
