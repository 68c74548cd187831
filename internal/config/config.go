package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RedisURL    string `env:"REDIS_URL,required=true"`

	AWSRegion        string `env:"ACADEMY_AWS_REGION,required=true"`
	S3Bucket         string `env:"ACADEMY_S3_BUCKET,required=true"`
	ResourcesDomain  string `env:"ACADEMY_RESOURCES_DOMAIN,required=true"`
	SQSQueueURL      string `env:"ACADEMY_SQS_DIPLOMA_GENERATION,required=true"`
	InternalAPIParam string `env:"ACADEMY_API_KEY_PARAM_NAME,required=true"`

	// Header carrying the worker shared secret.
	InternalAPIHeader string `env:"ACADEMY_INTERNAL_API_HEADER,default=api-key-pohualizcalli"`

	MaxUploadBytes        int `env:"MAX_UPLOAD_BYTES,default=20971520"`
	UploadRateLimitPerSec int `env:"UPLOAD_RATE_LIMIT_PER_SEC,default=5"`
	StuckBatchMinutes     int `env:"STUCK_BATCH_MINUTES,default=30"`
	SessionTTLMinutes     int `env:"SESSION_TTL_MINUTES,default=720"`

	APIPort  int    `env:"API_PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
