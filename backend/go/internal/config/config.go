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

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// RetryConfig 定义了单个编码策略的重试计划。
type RetryConfig struct {
	MaxAttempts int     `yaml:"maxAttempts"`
	BaseDelay   string  `yaml:"baseDelay"` // 例如: "1s", "250ms"
	Multiplier  float64 `yaml:"multiplier"`
	MaxDelay    string  `yaml:"maxDelay,omitempty"`
}

// BackendConfig 定义了外部 AI 后端的连接配置。
type BackendConfig struct {
	BaseURL        string `yaml:"baseURL"`        // 后端地址
	AttemptTimeout string `yaml:"attemptTimeout"` // 单次请求超时，例如 "30s"
	// CompatibilityMode 为 true 时，提问请求会依次尝试 form、JSON、multipart 三种格式。
	// 后端契约稳定之后可以关闭，只保留 JSON。
	CompatibilityMode bool        `yaml:"compatibilityMode"`
	Retry             RetryConfig `yaml:"retry"`       // 提问/聊天的重试计划
	UploadRetry       RetryConfig `yaml:"uploadRetry"` // 上传文档的重试计划
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// RateLimiterConfig 定义了限流器的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`    // 网关入站限流
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"` // 后端出站熔断
	Outbound       RateLimiterConfig    `yaml:"outbound"`       // 后端出站限速
}

// CacheConfig 定义了缓存的配置。
type CacheConfig struct {
	Backend  string `yaml:"backend"`  // "memory", "file" 或 "redis"
	TTL      string `yaml:"ttl"`      // 例如: "24h"
	Capacity int    `yaml:"capacity"` // 内存缓存的最大条目数
	Dir      string `yaml:"dir"`      // 文件缓存目录
	Prefix   string `yaml:"prefix"`   // Redis 键前缀
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。
type MinIOConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`  // MinIO 服务端点
	AccessKey string `yaml:"accessKey"` // 访问密钥
	SecretKey string `yaml:"secretKey"` // Secret 密钥
	Bucket    string `yaml:"bucket"`    // 存放上传文档的存储桶
	Secure    bool   `yaml:"secure"`    // 是否使用HTTPS
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`      // Kafka Broker 地址列表
	AttemptTopic string   `yaml:"attemptTopic"` // 请求尝试事件主题
}

// DatabaseConfigs 包含所有基础设施的配置。
type DatabaseConfigs struct {
	Redis RedisConfig `yaml:"redis"`
	MinIO MinIOConfig `yaml:"minio"`
	Kafka KafkaConfig `yaml:"kafka"`
}

// ServerConfig 定义了网关 HTTP 服务的配置。
type ServerConfig struct {
	Address        string `yaml:"address"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`
}

// ChatConfig 定义了聊天功能的配置。
type ChatConfig struct {
	SimulateOnFailure bool `yaml:"simulateOnFailure"` // 后端不可用时返回模拟回复
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Logger     LoggerConfig     `yaml:"logger"`
	Backend    BackendConfig    `yaml:"backend"`
	Middleware MiddlewareConfig `yaml:"middleware"`
	Cache      CacheConfig      `yaml:"cache"`
	Databases  DatabaseConfigs  `yaml:"databases"`
	Server     ServerConfig     `yaml:"server"`
	Chat       ChatConfig       `yaml:"chat"`
}

// Default 返回一份无需任何外部依赖即可运行的配置。
func Default() *AppConfig {
	return &AppConfig{
		App:    AppInfo{Name: "multi-ai-assistant", Version: "0.1.0", Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Backend: BackendConfig{
			BaseURL:           "https://multi-ai-assistant-production.up.railway.app",
			AttemptTimeout:    "30s",
			CompatibilityMode: true,
			Retry:             RetryConfig{MaxAttempts: 1, BaseDelay: "1s", Multiplier: 2},
			UploadRetry:       RetryConfig{MaxAttempts: 3, BaseDelay: "1s", Multiplier: 2},
		},
		Middleware: MiddlewareConfig{
			RateLimiter:    RateLimiterConfig{Enabled: true, TokenBucket: TokenBucketConfig{Rate: 10, Capacity: 20}},
			CircuitBreaker: CircuitBreakerConfig{Enabled: true, FailureThreshold: 5, SuccessThreshold: 1, Timeout: "30s"},
			Outbound:       RateLimiterConfig{Enabled: false, TokenBucket: TokenBucketConfig{Rate: 5, Capacity: 5}},
		},
		Cache:     CacheConfig{Backend: "memory", TTL: "24h", Capacity: 1024, Dir: ".cache", Prefix: "assistant:"},
		Databases: DatabaseConfigs{Kafka: KafkaConfig{AttemptTopic: "backend_attempts"}},
		Server:    ServerConfig{Address: ":8080", MaxUploadBytes: 20 << 20},
		Chat:      ChatConfig{SimulateOnFailure: true},
	}
}

// LoadConfig 从指定路径加载并解析 YAML 配置文件，未出现的字段保留默认值。
// 随后会读取 .env 文件（如果存在）并应用环境变量覆盖。path 为空时只使用默认值和环境变量。
func LoadConfig(path string) (*AppConfig, error) {
	cfg := Default()
	if path != "" {
		yamlFile, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
		}
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
		}
	}

	// .env 文件是可选的
	_ = godotenv.Load()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnvOverrides() {
	if v := os.Getenv("ASSISTANT_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("ASSISTANT_ATTEMPT_TIMEOUT"); v != "" {
		c.Backend.AttemptTimeout = v
	}
	if v := os.Getenv("ASSISTANT_COMPATIBILITY_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Backend.CompatibilityMode = b
		}
	}
	if v := os.Getenv("ASSISTANT_LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := os.Getenv("ASSISTANT_SERVER_ADDR"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("ASSISTANT_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("ASSISTANT_REDIS_ADDR"); v != "" {
		c.Databases.Redis.Address = v
	}
	if v := os.Getenv("ASSISTANT_REDIS_PASSWORD"); v != "" {
		c.Databases.Redis.Password = v
	}
	if v := os.Getenv("ASSISTANT_MINIO_ENDPOINT"); v != "" {
		c.Databases.MinIO.Endpoint = v
		c.Databases.MinIO.Enabled = true
	}
	if v := os.Getenv("ASSISTANT_MINIO_ACCESS_KEY"); v != "" {
		c.Databases.MinIO.AccessKey = v
	}
	if v := os.Getenv("ASSISTANT_MINIO_SECRET_KEY"); v != "" {
		c.Databases.MinIO.SecretKey = v
	}
	if v := os.Getenv("ASSISTANT_KAFKA_BROKERS"); v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Databases.Kafka.Brokers = brokers
		c.Databases.Kafka.Enabled = len(brokers) > 0
	}
}

// Validate 检查配置中的持续时间与取值范围。
func (c *AppConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		errs = append(errs, errors.New("backend.baseURL 不能为空"))
	}
	check := func(name, value string) {
		if value == "" {
			return
		}
		if _, err := time.ParseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: 无效的持续时间 %q: %w", name, value, err))
		}
	}
	check("backend.attemptTimeout", c.Backend.AttemptTimeout)
	check("backend.retry.baseDelay", c.Backend.Retry.BaseDelay)
	check("backend.retry.maxDelay", c.Backend.Retry.MaxDelay)
	check("backend.uploadRetry.baseDelay", c.Backend.UploadRetry.BaseDelay)
	check("backend.uploadRetry.maxDelay", c.Backend.UploadRetry.MaxDelay)
	check("middleware.circuitBreaker.timeout", c.Middleware.CircuitBreaker.Timeout)
	check("cache.ttl", c.Cache.TTL)

	if c.Backend.Retry.MaxAttempts < 1 || c.Backend.UploadRetry.MaxAttempts < 1 {
		errs = append(errs, errors.New("maxAttempts 必须大于等于 1"))
	}
	switch c.Cache.Backend {
	case "memory", "file", "redis":
	default:
		errs = append(errs, fmt.Errorf("未知的缓存后端: %s", c.Cache.Backend))
	}
	if c.Databases.Kafka.Enabled && len(c.Databases.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("启用 Kafka 时必须配置 brokers"))
	}
	return errors.Join(errs...)
}

// Duration 解析持续时间字符串，空字符串或无效值返回 fallback。
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
