package types

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	RedisURL    string `envconfig:"REDIS_URL" default:"redis://localhost:6379"`

	// Queue
	QueueKey string `envconfig:"QUEUE_KEY" default:"uploadsToProcess"`

	// Filesystem roots
	FileStoragePath string `envconfig:"FILE_STORAGE_PATH"`
	TempPath        string `envconfig:"TEMP_PATH" default:"/tmp/fichebox"`

	// Pipeline tuning
	ExtractWorkers   int  `envconfig:"EXTRACT_WORKERS" default:"8"`
	NestedDepthLimit int  `envconfig:"NESTED_DEPTH_LIMIT" default:"16"`
	UploadTimeoutSec uint `envconfig:"UPLOAD_TIMEOUT_SEC" default:"900"`
}
