package storage

// Config holds configuration for the storage provider.
type Config struct {
	// Enabled turns source download and archiving on.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Endpoint is the URL of the storage service.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket is the name of the bucket holding exports and archives.
	Bucket string `mapstructure:"bucket" default:"roster-sync"`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// ArchivePrefix is the key prefix for archived sources and run reports.
	ArchivePrefix string `mapstructure:"archive_prefix" default:"archive"`
	// ArchiveKeep is the number of archived runs to retain. Zero keeps everything.
	ArchiveKeep int `mapstructure:"archive_keep" default:"0"`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
