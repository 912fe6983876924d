package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Engine   EngineConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	Enabled       bool
}

// EngineConfig carries the tunables of the learning components. Zero values
// fall back to each component's defaults.
type EngineConfig struct {
	RidgeLambda         float64
	BootstrapIterations int
	BootstrapBudget     time.Duration
	MinCoOccurrence     int
	TopInteractions     int
	BaselineWindow      int
	BatchInterval       time.Duration
	BatchParallelism    int
	TransferMinAds      int64
	TransferShrink      float64
	LockTTL             time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	engine, err := loadEngine()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Adaptive Creative Engine"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "adaptive_creative"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
			Enabled:       getEnv("REDIS_ENABLED", "true") == "true",
		},
		Engine: engine,
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	return cfg, nil
}

func loadEngine() (EngineConfig, error) {
	var (
		e   EngineConfig
		err error
	)

	if e.RidgeLambda, err = getFloat("ENGINE_RIDGE_LAMBDA", 1.0); err != nil {
		return e, err
	}
	if e.BootstrapIterations, err = getInt("ENGINE_BOOTSTRAP_ITERATIONS", 1000); err != nil {
		return e, err
	}
	if e.BootstrapBudget, err = getDuration("ENGINE_BOOTSTRAP_BUDGET", 2*time.Minute); err != nil {
		return e, err
	}
	if e.MinCoOccurrence, err = getInt("ENGINE_MIN_CO_OCCURRENCE", 10); err != nil {
		return e, err
	}
	if e.TopInteractions, err = getInt("ENGINE_TOP_INTERACTIONS", 15); err != nil {
		return e, err
	}
	if e.BaselineWindow, err = getInt("ENGINE_BASELINE_WINDOW", 0); err != nil {
		return e, err
	}
	if e.BatchInterval, err = getDuration("ENGINE_BATCH_INTERVAL", 7*24*time.Hour); err != nil {
		return e, err
	}
	if e.BatchParallelism, err = getInt("ENGINE_BATCH_PARALLELISM", 4); err != nil {
		return e, err
	}
	minAds, err := getInt("ENGINE_TRANSFER_MIN_ADS", 200)
	if err != nil {
		return e, err
	}
	e.TransferMinAds = int64(minAds)
	if e.TransferShrink, err = getFloat("ENGINE_TRANSFER_SHRINK", 0.3); err != nil {
		return e, err
	}
	if e.LockTTL, err = getDuration("ENGINE_LOCK_TTL", 30*time.Minute); err != nil {
		return e, err
	}

	return e, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return v, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return v, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return v, nil
}
