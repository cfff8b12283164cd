package miniowr

import "time"

// Config defines the configuration options for the MinIO blob store.
// Empty Endpoint, AccessKey, SecretKey or Bucket leave the store unconfigured:
// the client is still constructed but refuses uploads.
type Config struct {
	// Endpoint is the MinIO server endpoint (e.g., "localhost:9000").
	Endpoint string `yaml:"endpoint"`

	// AccessKey is the access key for authentication.
	AccessKey string `yaml:"access_key"`

	// SecretKey is the secret key for authentication.
	SecretKey string `yaml:"secret_key" mask:"true"`

	// Bucket is the bucket transient uploads are written to.
	Bucket string `yaml:"bucket"`

	// Region avoids a bucket-location lookup before presigning.
	Region string `yaml:"region" default:"us-east-1"`

	// UseSSL enables HTTPS connection to MinIO server.
	UseSSL bool `yaml:"use_ssl" default:"false"`

	// PublicBaseURL, when set, is the prefix of public blob URLs (anonymous-read bucket or CDN).
	// When empty, presigned GET URLs are issued.
	PublicBaseURL string `yaml:"public_base_url" validate:"omitempty,url"`

	// PresignExpiry is the validity of presigned URLs. It must outlive the longest cleanup delay.
	PresignExpiry time.Duration `yaml:"presign_expiry" default:"24h"`

	// DeleteTimeout bounds a single delete call.
	DeleteTimeout time.Duration `yaml:"delete_timeout" default:"10s"`
}

func (c Config) configured() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}
