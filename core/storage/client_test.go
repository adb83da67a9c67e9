package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		endpoint   string
		useSSL     bool
		wantHost   string
		wantSecure bool
		wantErr    bool
	}{
		{"Bare", "localhost:9000", false, "localhost:9000", false, false},
		{"BareWithSSL", "minio.internal:9000", true, "minio.internal:9000", true, false},
		{"HTTP", "http://localhost:9000/", false, "localhost:9000", false, false},
		{"HTTPSForcesTLS", "https://s3.amazonaws.com", false, "s3.amazonaws.com", true, false},
		{"Empty", "  ", false, "", false, true},
		{"WithPath", "http://localhost:9000/bucket", false, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, secure, err := splitEndpoint(tt.endpoint, tt.useSSL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantSecure, secure)
		})
	}
}

// TestNewClient tests that client creation does not touch the network.
func TestNewClient(t *testing.T) {
	client, err := NewClient(Config{
		Endpoint:  "http://localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "roster-sync",
	})
	require.NoError(t, err)
	assert.NotNil(t, client)

	_, err = NewClient(Config{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "bucket is required")
}
