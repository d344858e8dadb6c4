package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Config vitalsync-import 配置
type Config struct {
	Database DatabaseConfig
	Redis    struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	// Readiness 下游评分服务配置（导入提交后异步触发重算）
	Readiness struct {
		Enabled    bool
		BaseURL    string
		TimeoutSec int
	}
	Import struct {
		Timezone  string // JSON 睡眠分桶使用的时区标识（如 "America/New_York"）
		WriteMode string // "fill_missing" 或 "overwrite"
	}
	Log struct {
		Level  string
		Format string
	}
}

func Load() *Config {
	// .env 是可选的：不存在时静默使用进程环境
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "vitalsync")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Readiness.Enabled = getEnv("READINESS_ENABLED", "false") == "true"
	cfg.Readiness.BaseURL = getEnv("READINESS_BASE_URL", "http://localhost:8090")
	cfg.Readiness.TimeoutSec = parseInt(getEnv("READINESS_TIMEOUT_SEC", "30"), 30)

	cfg.Import.Timezone = getEnv("IMPORT_TIMEZONE", "UTC")
	cfg.Import.WriteMode = getEnv("IMPORT_WRITE_MODE", "fill_missing")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
