package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"paperlens-papers"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`

	SemanticScholarAPIKey string `envconfig:"S2_API_KEY"`

	// Chunking
	ChunkSize     int `envconfig:"CHUNK_SIZE" default:"30000"`
	ChunkLookback int `envconfig:"CHUNK_LOOKBACK" default:"2000"`

	// Pipeline
	StageWorkers  int `envconfig:"STAGE_WORKERS" default:"4"`
	MaxStageInput int `envconfig:"MAX_STAGE_INPUT" default:"100000"`
	MaxRetries    int `envconfig:"MAX_RETRIES" default:"3"`

	// Uploads
	MaxFileSizeMB  int64 `envconfig:"MAX_FILE_SIZE_MB" default:"50"`
	UploadsPerHour int   `envconfig:"UPLOADS_PER_HOUR" default:"20"`

	ReportDir string `envconfig:"REPORT_DIR" default:"reports"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("PAPERLENS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxFileSizeMB * 1024 * 1024
}
