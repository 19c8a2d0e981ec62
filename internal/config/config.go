package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

const (
	StorageS3  = "s3"
	StorageGCS = "gcs"

	MetadataPostgres  = "postgres"
	MetadataFirestore = "firestore"
)

type S3 struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Secure    bool
	// PublicBaseURL overrides https://<endpoint>/<bucket> in public links.
	PublicBaseURL string
}

type Config struct {
	Port         string
	DatabaseURL  string
	AuthSecret   string
	PublicOrigin string

	StorageBackend string
	S3             S3
	GCSBucket      string

	MetadataBackend     string
	FirestoreProject    string
	FirestoreCollection string

	MaxUploadBytes int64
	MaxFiles       int
	RenderWidth    int
	RenderTimeout  time.Duration
	RenderParallel int
	UploadParallel int

	ErrorBotToken string
	AdminChatID   int64
}

// GetEnv reads an environment variable or returns a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         GetEnv("PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		AuthSecret:   os.Getenv("AUTH_SECRET"),
		PublicOrigin: strings.TrimRight(os.Getenv("PUBLIC_ORIGIN"), "/"),

		StorageBackend: strings.ToLower(GetEnv("STORAGE_BACKEND", StorageS3)),
		S3: S3{
			Endpoint:      os.Getenv("S3_ENDPOINT"),
			AccessKey:     os.Getenv("S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("S3_SECRET_KEY"),
			Bucket:        GetEnv("S3_BUCKET", "flipbook"),
			Region:        os.Getenv("S3_REGION"),
			PublicBaseURL: strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/"),
		},
		GCSBucket: os.Getenv("GCS_BUCKET"),

		MetadataBackend:     strings.ToLower(GetEnv("METADATA_BACKEND", MetadataPostgres)),
		FirestoreProject:    os.Getenv("FIRESTORE_PROJECT"),
		FirestoreCollection: GetEnv("FIRESTORE_COLLECTION", "ebooks"),

		ErrorBotToken: os.Getenv("ERROR_BOT_TOKEN"),
	}

	var err error

	if cfg.S3.Secure, err = strconv.ParseBool(GetEnv("S3_SECURE", "true")); err != nil {
		return nil, fmt.Errorf("S3_SECURE: %w", err)
	}

	size, err := humanize.ParseBytes(GetEnv("MAX_UPLOAD_BYTES", "50MB"))
	if err != nil {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
	}
	cfg.MaxUploadBytes = int64(size)

	if cfg.MaxFiles, err = intEnv("MAX_FILES", 200); err != nil {
		return nil, err
	}
	if cfg.RenderWidth, err = intEnv("PDF_RENDER_WIDTH", 800); err != nil {
		return nil, err
	}
	if cfg.RenderParallel, err = intEnv("PDF_RENDER_PARALLEL", 4); err != nil {
		return nil, err
	}
	if cfg.UploadParallel, err = intEnv("UPLOAD_PARALLEL", 4); err != nil {
		return nil, err
	}
	if cfg.RenderTimeout, err = time.ParseDuration(GetEnv("PDF_RENDER_TIMEOUT", "2m")); err != nil {
		return nil, fmt.Errorf("PDF_RENDER_TIMEOUT: %w", err)
	}
	if v := os.Getenv("ADMIN_CHAT_ID"); v != "" {
		if cfg.AdminChatID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("ADMIN_CHAT_ID: %w", err)
		}
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is not set")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	switch c.StorageBackend {
	case StorageS3:
		if c.S3.Endpoint == "" {
			return fmt.Errorf("S3_ENDPOINT is not set")
		}
	case StorageGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is not set")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.MetadataBackend {
	case MetadataPostgres:
	case MetadataFirestore:
		if c.FirestoreProject == "" {
			return fmt.Errorf("FIRESTORE_PROJECT is not set")
		}
	default:
		return fmt.Errorf("unknown METADATA_BACKEND %q", c.MetadataBackend)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
