package storage

import (
	"os"
	"strconv"
)

// MinIOConfig carries the credentials and bucket for the snapshot store.
// An empty Endpoint means snapshot archiving is disabled.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// LoadMinIOConfig reads the MINIO_* environment variables. Unset values fall
// back to a disabled store with the default bucket name.
func LoadMinIOConfig() *MinIOConfig {
	ssl, _ := strconv.ParseBool(os.Getenv("MINIO_USE_SSL"))
	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "coedit-snapshots"
	}
	return &MinIOConfig{
		Endpoint:  os.Getenv("MINIO_ENDPOINT"),
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		UseSSL:    ssl,
		Bucket:    bucket,
	}
}
