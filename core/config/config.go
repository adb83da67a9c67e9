package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"roster-sync/core/airtable"
	"roster-sync/core/database"
	"roster-sync/core/logger"
	"roster-sync/core/reconcile"
	"roster-sync/core/server"
	"roster-sync/core/storage"
	"roster-sync/feature/roster"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server and the schedule.
	Server server.Config `mapstructure:"server"`
	// Airtable holds the credentials and table of the remote roster.
	Airtable airtable.Config `mapstructure:"airtable"`
	// Sync holds reconciliation settings.
	Sync reconcile.Config `mapstructure:"sync"`
	// Roster holds the export location and its column mapping.
	Roster roster.Config `mapstructure:"roster"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the run journal database.
	Database database.Config `mapstructure:"database"`
}

// LoadConfig loads configuration from config.yaml, the .env file and environment
// variables, in increasing order of precedence.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Map environment variables to nested keys (e.g. AIRTABLE_API_KEY -> airtable.api_key)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the sections every command depends on.
func (c *Config) Validate() error {
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	if err := c.Roster.Validate(); err != nil {
		return err
	}
	if err := c.Server.ValidateSchedule(); err != nil {
		return err
	}
	if c.Airtable.PageSize < 1 || c.Airtable.PageSize > 100 {
		return fmt.Errorf("airtable page_size must be between 1 and 100, got %d", c.Airtable.PageSize)
	}
	switch c.Database.Driver {
	case database.DriverSQLite, database.DriverMySQL:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

// RequireAirtable checks the credentials needed to reach the remote table.
func (c *Config) RequireAirtable() error {
	var missing []string
	if c.Airtable.APIKey == "" {
		missing = append(missing, "AIRTABLE_API_KEY")
	}
	if c.Airtable.BaseID == "" {
		missing = append(missing, "AIRTABLE_BASE_ID")
	}
	if c.Airtable.TableName == "" {
		missing = append(missing, "AIRTABLE_TABLE_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		switch field.Type.Kind() {
		case reflect.Struct:
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		case reflect.Slice:
			// String lists are registered so "a,b" env values decode; struct lists come from config.yaml only.
			if field.Type.Elem().Kind() == reflect.String {
				v.SetDefault(key, []string{})
			}
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
