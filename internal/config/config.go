// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（密码、密钥）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 凭据单一数据源：密码/密钥只存在 .env 中，YAML 不存储任何密码。
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// BackendKind 持久化后端类型
type BackendKind string

const (
	// BackendEmbedded 嵌入式：SQLite + 本地目录 blob + 进程内总线
	BackendEmbedded BackendKind = "embedded"
	// BackendHosted 托管：MongoDB + MinIO + Redis Streams 总线
	BackendHosted BackendKind = "hosted"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  string         `yaml:"backend"` // "embedded" or "hosted"
	Database DatabaseConfig `yaml:"database"`
	Blob     BlobConfig     `yaml:"blob"`
	Redis    RedisConfig    `yaml:"redis"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Auth     AuthConfig     `yaml:"auth"`
	Seed     SeedConfig     `yaml:"seed"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "sqlite", "postgres", or "mongodb"
	Path     string `yaml:"path"`   // SQLite 文件路径
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"` // 只从环境变量读取（DB_PASSWORD / MONGO_ROOT_PASSWORD）
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	URI      string `yaml:"uri"` // MongoDB 连接 URI（优先于 host/port）
}

// BlobConfig 嵌入式后端的本地对象存储配置
type BlobConfig struct {
	Dir string `yaml:"dir"` // 本地存储根目录
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"` // 只从 REDIS_PASSWORD 环境变量读取
}

// MinIOConfig MinIO 对象存储配置
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"-"` // 只从 MINIO_ACCESS_KEY 环境变量读取
	SecretKey string `yaml:"-"` // 只从 MINIO_SECRET_KEY 环境变量读取
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// AuthConfig 认证配置
// JWTSecret 只从 JWT_SECRET 环境变量读取，不存储在 YAML 中
type AuthConfig struct {
	JWTSecret string `yaml:"-"`
	TokenTTL  string `yaml:"token_ttl"` // 例如 "24h"
}

// SeedConfig 演示数据注入配置
type SeedConfig struct {
	Enabled      bool   `yaml:"enabled"`
	AssetBaseURL string `yaml:"asset_base_url"` // 演示素材下载地址前缀
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env         Environment
	Backend     BackendKind
	SQLitePath  string
	DatabaseURL string
	MongoURI    string
	MongoDBName string
	BlobDir     string
	RedisURL    string
	MinIO       MinIOConfig
	Auth        AuthConfig
	Seed        SeedConfig
	Logging     LoggingConfig
	ServerPort  string
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 构建最终配置
func Load() *Config {
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	env := parseEnv(getEnv("APP_ENV", "dev"))
	yamlCfg := loadYAMLConfig(env)

	// 敏感信息只从环境变量进入
	yamlCfg.Database.Password = os.Getenv("DB_PASSWORD")
	yamlCfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	yamlCfg.MinIO.AccessKey = os.Getenv("MINIO_ACCESS_KEY")
	yamlCfg.MinIO.SecretKey = os.Getenv("MINIO_SECRET_KEY")
	yamlCfg.Auth.JWTSecret = getEnv("JWT_SECRET", "dev-secret-do-not-use-in-prod")

	cfg := &Config{
		Env:         env,
		Backend:     parseBackend(getEnv("CATALOG_BACKEND", yamlCfg.Backend)),
		SQLitePath:  yamlCfg.Database.Path,
		DatabaseURL: buildDatabaseURL(yamlCfg.Database),
		MongoURI:    buildMongoURI(yamlCfg.Database),
		MongoDBName: yamlCfg.Database.Name,
		BlobDir:     yamlCfg.Blob.Dir,
		RedisURL:    buildRedisURL(yamlCfg.Redis),
		MinIO:       yamlCfg.MinIO,
		Auth:        yamlCfg.Auth,
		Seed:        yamlCfg.Seed,
		Logging:     yamlCfg.Logging,
		ServerPort:  yamlCfg.Server.Port,
	}

	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	cfg := &YAMLConfig{
		Server:  ServerConfig{Port: "8080"},
		Backend: string(BackendEmbedded),
		Database: DatabaseConfig{
			Driver: "sqlite", Path: "data/catalog.db",
			Host: "localhost", Port: 27017, User: "", Name: "campus_catalog", SSLMode: "disable",
		},
		Blob:    BlobConfig{Dir: "data/blobs"},
		Redis:   RedisConfig{Host: "localhost", Port: 6379, DB: 0},
		MinIO:   MinIOConfig{Endpoint: "localhost:9000", Bucket: "campus-catalog"},
		Auth:    AuthConfig{TokenTTL: "24h"},
		Seed:    SeedConfig{Enabled: true},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}

	for _, base := range configPaths {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// buildDatabaseURL 构建 PostgreSQL 连接字符串
func buildDatabaseURL(db DatabaseConfig) string {
	if db.Driver != "postgres" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User, db.Password, db.Host, db.Port, db.Name, db.SSLMode)
}

// buildMongoURI 构建 MongoDB 连接 URI；显式 uri 优先
func buildMongoURI(db DatabaseConfig) string {
	if db.URI != "" {
		return db.URI
	}
	if db.User != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", db.User, db.Password, db.Host, db.Port)
	}
	return fmt.Sprintf("mongodb://%s:%d", db.Host, db.Port)
}

// buildRedisURL 构建 Redis 连接字符串
func buildRedisURL(redis RedisConfig) string {
	if redis.Password != "" {
		return fmt.Sprintf("redis://:%s@%s:%d/%d", redis.Password, redis.Host, redis.Port, redis.DB)
	}
	return fmt.Sprintf("redis://%s:%d/%d", redis.Host, redis.Port, redis.DB)
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func parseBackend(s string) BackendKind {
	if strings.ToLower(s) == string(BackendHosted) {
		return BackendHosted
	}
	return BackendEmbedded
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Backend: %s, Mongo: %s, Redis: %s}",
		c.Env, c.Backend, maskPassword(c.MongoURI), maskPassword(c.RedisURL))
}

// maskPassword 隐藏密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:]+:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}
