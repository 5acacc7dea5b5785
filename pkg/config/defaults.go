// Package config provides centralized default values for StoreKeep
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Platform Database
	DatabaseURL              string
	DatabaseAuthToken        string
	SQLitePath               string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	DBConnMaxIdleMinutes     int

	// Traffic Cache
	TrafficCacheTTL    time.Duration
	DurableCacheEnable bool
	CleanupInterval    time.Duration

	// Analytics Provider
	ProviderTimeout        time.Duration
	ProviderRequestTimeout time.Duration

	// Admin Auth
	AdminPassword  string
	JWTSecret      string
	AdminTokenTTL  time.Duration
	AllowedOrigins []string
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Platform Database
	DatabaseURL = getEnvString("STOREKEEP_DATABASE_URL", "")
	DatabaseAuthToken = getEnvString("STOREKEEP_DATABASE_AUTH_TOKEN", "")
	SQLitePath = getEnvString("STOREKEEP_SQLITE_PATH", "storekeep.db")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	DBConnMaxIdleMinutes = getEnvInt("DB_CONN_MAX_IDLE_MINUTES", 3)

	// Traffic Cache
	TrafficCacheTTL = time.Duration(getEnvInt("TRAFFIC_CACHE_TTL_MINUTES", 30)) * time.Minute
	DurableCacheEnable = getEnvBool("TRAFFIC_CACHE_DURABLE", true)
	CleanupInterval = time.Duration(getEnvInt("CACHE_CLEANUP_INTERVAL_MINUTES", 15)) * time.Minute

	// Analytics Provider
	ProviderTimeout = getEnvDuration("PROVIDER_FETCH_TIMEOUT", 12*time.Second)
	ProviderRequestTimeout = getEnvDuration("PROVIDER_REQUEST_TIMEOUT", 10*time.Second)

	// Admin Auth. ADMIN_PASSWORD holds a bcrypt hash of the password.
	AdminPassword = getEnvString("ADMIN_PASSWORD", "")
	JWTSecret = getEnvString("JWT_SECRET", "")
	AdminTokenTTL = getEnvDuration("ADMIN_TOKEN_TTL", 24*time.Hour)
	AllowedOrigins = strings.Split(getEnvString("ALLOWED_ORIGINS", "*"), ",")
}
