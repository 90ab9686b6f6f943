package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	AI        AIConfig
	JWT       JWTConfig
	Auth      AuthConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type StorageConfig struct {
	SubmissionsFile string
	UsersFile       string
}

type AIConfig struct {
	APIKey          string
	Model           string
	Timeout         time.Duration
	MaxWorkers      int
	MaxOutputTokens int
	// ReprocessInterval is how often failed submissions are regenerated.
	// Zero disables the background job.
	ReprocessInterval time.Duration
}

// Enabled reports whether a model endpoint is configured
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type AuthConfig struct {
	AdminRequired        bool
	DefaultAdminEmail    string
	DefaultAdminPassword string
	DefaultUserEmail     string
	DefaultUserPassword  string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

type LogConfig struct {
	Level         string
	DebugRequests bool
}

var AppConfig *Config

func Load() {
	AppConfig = &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8000"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Storage: StorageConfig{
			SubmissionsFile: getEnv("SUBMISSIONS_FILE", "data/submissions.json"),
			UsersFile:       getEnv("USERS_FILE", "data/users.json"),
		},
		AI: AIConfig{
			APIKey:            getEnv("GEMINI_API_KEY", ""),
			Model:             getEnv("GEMINI_MODEL", "gemma-3-12b-it"),
			Timeout:           getEnvAsSeconds("AI_TIMEOUT_SECONDS", 5*time.Second),
			MaxWorkers:        getEnvAsInt("AI_MAX_WORKERS", 2),
			MaxOutputTokens:   getEnvAsInt("AI_MAX_OUTPUT_TOKENS", 512),
			ReprocessInterval: time.Duration(getEnvAsInt("AI_REPROCESS_INTERVAL_MINUTES", 0)) * time.Minute,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", getEnv("AUTH_TOKEN_SECRET", "dev-secret-change-me")),
			ExpiryHours: getEnvAsInt("JWT_EXPIRY_HOURS", 30*24),
		},
		Auth: AuthConfig{
			AdminRequired:        getEnvAsBool("ADMIN_AUTH_REQUIRED", true),
			DefaultAdminEmail:    getEnv("DEFAULT_ADMIN_EMAIL", "admin@gmail.com"),
			DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", "Admin@123"),
			DefaultUserEmail:     getEnv("DEFAULT_USER_EMAIL", "user@gmail.com"),
			DefaultUserPassword:  getEnv("DEFAULT_USER_PASSWORD", "User@123"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
			Burst:     getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Log: LogConfig{
			Level:         getEnv("LOG_LEVEL", "info"),
			DebugRequests: getEnv("DEBUG_REQUEST_LOGS", "0") == "1",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsSeconds reads fractional seconds, e.g. AI_TIMEOUT_SECONDS=2.5
func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.ParseFloat(value, 64); err == nil && seconds > 0 {
			return time.Duration(seconds * float64(time.Second))
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
