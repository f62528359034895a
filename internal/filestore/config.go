package filestore

// Provider identifies the object storage implementation.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// Config holds the settings needed to reach an object store.
type Config struct {
	Provider Provider `mapstructure:"provider" yaml:"provider"`

	// Endpoint is the host:port of the storage server, e.g. "localhost:9000".
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`

	UseSSL bool `mapstructure:"use_ssl" yaml:"use_ssl"`

	// Region is only needed by region-aware services such as AWS S3.
	Region string `mapstructure:"region" yaml:"region"`

	// DefaultBucket, when set, is the bucket Ping checks for.
	DefaultBucket string `mapstructure:"default_bucket" yaml:"default_bucket"`
}

// DefaultConfig returns a local-dev config for MinIO.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Provider:  ProviderMinIO,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		UseSSL:    false,
	}
}
