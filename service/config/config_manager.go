/*
 * @module service/config/config_manager
 * @description 配置加载模块，负责默认值、.env、YAML 配置文件与环境变量覆盖的合并
 * @architecture 分层架构 - 基础设施层
 * @stateFlow 默认值 -> .env -> 配置文件 -> 环境变量 -> 校验
 * @rules 环境变量优先级最高；配置文件缺失时使用默认值
 * @dependencies gopkg.in/yaml.v3, github.com/joho/godotenv
 * @refs main.go, service/app.go
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 存储后端类型
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendDatabase = "database"
	BackendDapr     = "dapr"
)

// Config 应用配置
type Config struct {
	App          AppConfig          `yaml:"app"`
	Logging      LoggingConfig      `yaml:"logging"`
	Storage      StorageConfig      `yaml:"storage"`
	Notification NotificationConfig `yaml:"notification"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name        string `yaml:"name"`
	Namespace   string `yaml:"namespace"`
	ListenPort  int    `yaml:"listen_port"`
	BaseContext string `yaml:"base_context"`
	SeedDemo    bool   `yaml:"seed_demo"`
	RequireAuth bool   `yaml:"require_auth"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig 持久化槽位配置
type StorageConfig struct {
	Backend  string         `yaml:"backend"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Dapr     DaprConfig     `yaml:"dapr"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Addr 返回 host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// DatabaseConfig 数据库配置，driver 为 sqlite 或 postgres
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// DaprConfig Dapr 状态存储配置
type DaprConfig struct {
	StateStore string `yaml:"state_store"`
}

// NotificationConfig 通知远程服务配置，BaseURL 与 RemoteAppID 都为空时仅使用本地存储
type NotificationConfig struct {
	BaseURL     string        `yaml:"base_url"`
	RemoteAppID string        `yaml:"remote_app_id"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Enabled 是否配置了远程服务
func (c NotificationConfig) Enabled() bool {
	return c.BaseURL != "" || c.RemoteAppID != ""
}

// SchedulerConfig 后台作业调度配置，NotificationSyncSpec 为空时不同步远程通知
type SchedulerConfig struct {
	Enabled              bool   `yaml:"enabled"`
	RecurrenceSpec       string `yaml:"recurrence_spec"`
	NotificationSyncSpec string `yaml:"notification_sync_spec"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:       "idcops-service",
			Namespace:  "idc",
			ListenPort: 80,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Storage: StorageConfig{
			Backend: BackendMemory,
			Redis:   RedisConfig{Host: "localhost", Port: "6379"},
			Database: DatabaseConfig{
				Driver: "sqlite",
				DSN:    "idcops.db",
			},
			Dapr: DaprConfig{StateStore: "statestore"},
		},
		Notification: NotificationConfig{Timeout: 5 * time.Second},
		Scheduler: SchedulerConfig{
			Enabled:        true,
			RecurrenceSpec: "@every 1m",
		},
	}
}

// Load 加载配置。path 为空或文件不存在时只使用默认值和环境变量
func Load(path string) (*Config, error) {
	cfg := Default()

	// .env 不存在是正常情况
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("加载.env失败: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("解析配置文件失败: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if val := os.Getenv("LISTEN_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.App.ListenPort = port
		}
	}
	c.App.BaseContext = getEnvWithDefault("BASE_CONTEXT", c.App.BaseContext)
	c.App.Namespace = getEnvWithDefault("IDC_NAMESPACE", c.App.Namespace)
	if val := os.Getenv("IDC_SEED_DEMO"); val != "" {
		c.App.SeedDemo, _ = strconv.ParseBool(val)
	}
	if val := os.Getenv("IDC_REQUIRE_AUTH"); val != "" {
		c.App.RequireAuth, _ = strconv.ParseBool(val)
	}

	c.Logging.Level = getEnvWithDefault("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnvWithDefault("LOG_FORMAT", c.Logging.Format)

	c.Storage.Backend = strings.ToLower(getEnvWithDefault("STORAGE_BACKEND", c.Storage.Backend))
	c.Storage.Redis.Host = getEnvWithDefault("REDIS_HOST", c.Storage.Redis.Host)
	c.Storage.Redis.Port = getEnvWithDefault("REDIS_PORT", c.Storage.Redis.Port)
	c.Storage.Redis.Password = getEnvWithDefault("REDIS_PASSWORD", c.Storage.Redis.Password)
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			c.Storage.Redis.DB = db
		}
	}
	c.Storage.Database.Driver = getEnvWithDefault("DB_DRIVER", c.Storage.Database.Driver)
	// 与原有服务保持一致，优先使用 DATABASE_URL
	c.Storage.Database.DSN = getEnvWithDefault("DATABASE_URL", c.Storage.Database.DSN)
	c.Storage.Dapr.StateStore = getEnvWithDefault("DAPR_STATE_STORE", c.Storage.Dapr.StateStore)

	c.Notification.BaseURL = getEnvWithDefault("NOTIFICATION_BASE_URL", c.Notification.BaseURL)
	c.Notification.RemoteAppID = getEnvWithDefault("NOTIFICATION_APP_ID", c.Notification.RemoteAppID)
	if val := os.Getenv("NOTIFICATION_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Notification.Timeout = d
		}
	}

	if val := os.Getenv("SCHEDULER_ENABLED"); val != "" {
		c.Scheduler.Enabled, _ = strconv.ParseBool(val)
	}
	c.Scheduler.RecurrenceSpec = getEnvWithDefault("SCHEDULER_RECURRENCE_SPEC", c.Scheduler.RecurrenceSpec)
	c.Scheduler.NotificationSyncSpec = getEnvWithDefault("SCHEDULER_NOTIFICATION_SYNC_SPEC", c.Scheduler.NotificationSyncSpec)
}

// Validate 校验配置
func (c *Config) Validate() error {
	if strings.TrimSpace(c.App.Namespace) == "" {
		return errors.New("命名空间不能为空")
	}
	if c.App.ListenPort <= 0 || c.App.ListenPort > 65535 {
		return fmt.Errorf("无效的监听端口: %d", c.App.ListenPort)
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendRedis, BackendDapr:
	case BackendDatabase:
		if c.Storage.Database.Driver != "sqlite" && c.Storage.Database.Driver != "postgres" {
			return fmt.Errorf("不支持的数据库驱动: %s", c.Storage.Database.Driver)
		}
	default:
		return fmt.Errorf("不支持的存储后端: %s", c.Storage.Backend)
	}
	return nil
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
