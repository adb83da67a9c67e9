package airtable

// Config holds configuration for the Airtable API.
type Config struct {
	// APIKey is the personal access token sent as a bearer token.
	APIKey string `mapstructure:"api_key" default:""`
	// BaseID is the Airtable base identifier (appXXXXXXXXXXXXXX).
	BaseID string `mapstructure:"base_id" default:""`
	// TableName is the table name or table identifier inside the base.
	TableName string `mapstructure:"table_name" default:""`
	// BaseURL is the API root.
	BaseURL string `mapstructure:"base_url" default:"https://api.airtable.com/v0"`
	// View restricts listing to a view when set.
	View string `mapstructure:"view" default:""`
	// PageSize is the number of records requested per list page (max 100).
	PageSize int `mapstructure:"page_size" default:"100"`
	// Typecast lets Airtable coerce string values into select options and numbers.
	Typecast bool `mapstructure:"typecast" default:"false"`
	// TimeoutSeconds is the connection and response-header timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
