package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Segmenter SegmenterConfig `yaml:"segmenter"`
	S3        S3Config        `yaml:"s3"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort string `yaml:"http_port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig 向量化服务配置（OpenAI 兼容接口）
type EmbeddingConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	// BatchSize 单次请求的最大文本条数，接口上限 2048
	BatchSize int `yaml:"batch_size"`
}

// LLMConfig 大模型服务配置（OpenAI 兼容 chat completions 接口)
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// QdrantConfig 向量数据库配置
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

// SegmenterConfig 语义分段服务配置
type SegmenterConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// S3Config 对象存储配置
type S3Config struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	// Endpoint 自定义端点，兼容 MinIO 等 S3 协议实现，留空使用 AWS
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// PipelineConfig 会议处理管线配置
type PipelineConfig struct {
	// TopK 检索增强时取回的相关历史块数量
	TopK int `yaml:"top_k"`
	// ContextTokenLimit 注入提示词的历史上下文 token 上限
	ContextTokenLimit int `yaml:"context_token_limit"`
	// TaskTimeout 单个抽取任务的超时时间
	TaskTimeout time.Duration `yaml:"task_timeout"`
}

// NewConfig 创建配置
// 默认值 → 配置文件（存在时）→ 环境变量，后者覆盖前者
func NewConfig() *Config {
	cfg := defaultConfig()

	path := filepath.Join(GetDataDir(), "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		// 配置文件损坏时忽略，继续使用默认值
		_ = yaml.Unmarshal(data, cfg)
	}

	cfg.applyEnv()
	return cfg
}

// defaultConfig 默认配置
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: ":18080",
		},
		Database: DatabaseConfig{
			Path: "",
		},
		Embedding: EmbeddingConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			BatchSize: 2048,
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.1,
			Timeout:     120 * time.Second,
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "meeting_chunks",
		},
		Segmenter: SegmenterConfig{
			BaseURL: "http://localhost:8001",
			Timeout: 60 * time.Second,
		},
		S3: S3Config{
			Region: "ap-northeast-2",
			Bucket: "meetnote-transcripts",
		},
		Pipeline: PipelineConfig{
			TopK:              3,
			ContextTokenLimit: 2000,
			TaskTimeout:       90 * time.Second,
		},
	}
}

// applyEnv 环境变量覆盖
func (c *Config) applyEnv() {
	setString(&c.Server.HTTPPort, "MEETNOTE_HTTP_PORT")
	setString(&c.Database.Path, "MEETNOTE_DB_PATH")

	setString(&c.Embedding.BaseURL, "EMBEDDING_BASE_URL")
	setString(&c.Embedding.APIKey, "EMBEDDING_API_KEY")
	setString(&c.Embedding.Model, "EMBEDDING_MODEL")
	setInt(&c.Embedding.Dimension, "EMBEDDING_DIMENSION")

	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.Model, "LLM_MODEL")

	setString(&c.Qdrant.Host, "QDRANT_HOST")
	setInt(&c.Qdrant.Port, "QDRANT_PORT")
	setString(&c.Qdrant.Collection, "QDRANT_COLLECTION")

	setString(&c.Segmenter.BaseURL, "SEGMENTER_BASE_URL")

	setString(&c.S3.Region, "AWS_REGION")
	setString(&c.S3.Bucket, "S3_BUCKET")
	setString(&c.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.S3.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&c.S3.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")

	// OPENAI_API_KEY 作为两个客户端的兜底密钥
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = v
		}
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = v
		}
	}
}

// Validate 校验必填项
func (c *Config) Validate() error {
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding api key is required")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm api key is required")
	}
	if c.Qdrant.Collection == "" {
		return fmt.Errorf("qdrant collection name is required")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// NewDatabaseConfig 创建数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewEmbeddingConfig 创建向量化配置
func NewEmbeddingConfig(cfg *Config) *EmbeddingConfig {
	return &cfg.Embedding
}

// NewLLMConfig 创建大模型配置
func NewLLMConfig(cfg *Config) *LLMConfig {
	return &cfg.LLM
}

// NewQdrantConfig 创建向量数据库配置
func NewQdrantConfig(cfg *Config) *QdrantConfig {
	return &cfg.Qdrant
}

// NewSegmenterConfig 创建分段服务配置
func NewSegmenterConfig(cfg *Config) *SegmenterConfig {
	return &cfg.Segmenter
}

// NewS3Config 创建对象存储配置
func NewS3Config(cfg *Config) *S3Config {
	return &cfg.S3
}

// NewPipelineConfig 创建管线配置
func NewPipelineConfig(cfg *Config) *PipelineConfig {
	return &cfg.Pipeline
}
