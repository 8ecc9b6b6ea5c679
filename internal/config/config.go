package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Log    LogConfig
	Events EventsConfig
}

// Load 从环境变量加载服务端配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	events, err := loadEventsConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Store: store, Log: logCfg, Events: events}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址与跨域来源。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// StoreConfig 描述会话存储后端。
type StoreConfig struct {
	Driver string
	DSN    string
}

func loadStoreConfig() (StoreConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("STORE_DRIVER", "memory"))
	dsn := strings.TrimSpace(os.Getenv("STORE_DSN"))

	switch driver {
	case "memory":
	case "sqlite":
		if dsn == "" {
			dsn = "moodflow.db"
		}
	case "postgres":
		if dsn == "" {
			return StoreConfig{}, fmt.Errorf("STORE_DSN is required when STORE_DRIVER=postgres")
		}
	default:
		return StoreConfig{}, fmt.Errorf("invalid STORE_DRIVER value %q", driver)
	}

	return StoreConfig{Driver: driver, DSN: dsn}, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
	File   string
}

func loadLogConfig() (LogConfig, error) {
	level := strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q", level)
	}

	format := strings.ToLower(getEnvOrDefault("LOG_FORMAT", "console"))
	if format != "console" && format != "json" {
		return LogConfig{}, fmt.Errorf("invalid LOG_FORMAT value %q", format)
	}

	return LogConfig{
		Level:  level,
		Format: format,
		File:   strings.TrimSpace(os.Getenv("LOG_FILE")),
	}, nil
}

// EventsConfig 控制实时会话事件推送。
type EventsConfig struct {
	Enabled bool
	Buffer  int
}

func loadEventsConfig() (EventsConfig, error) {
	enabled, err := parseBoolEnv("EVENTS_ENABLED", true)
	if err != nil {
		return EventsConfig{}, err
	}

	buffer := 16
	if override, err := parseOptionalIntEnv("EVENTS_BUFFER"); err != nil {
		return EventsConfig{}, err
	} else if override != nil && *override > 0 {
		buffer = *override
	}

	return EventsConfig{Enabled: enabled, Buffer: buffer}, nil
}

// ClientConfig 描述命令行客户端连接 API 的方式。
type ClientConfig struct {
	BaseURL       string
	Timeout       time.Duration
	CompleteDelay time.Duration
}

// LoadClient 从环境变量加载客户端配置。
func LoadClient() (*ClientConfig, error) {
	timeout, err := parseDurationEnv("MOODFLOW_HTTP_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}

	delay, err := parseDurationEnv("MOODFLOW_COMPLETE_DELAY", 2*time.Second)
	if err != nil {
		return nil, err
	}

	return &ClientConfig{
		BaseURL:       strings.TrimRight(getEnvOrDefault("MOODFLOW_API_URL", "http://localhost:8080"), "/"),
		Timeout:       timeout,
		CompleteDelay: delay,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}
