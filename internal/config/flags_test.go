package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected  *Config
		name      string
		args      []string
		expectErr bool
	}{
		{
			name: "all flags",
			args: []string{
				"-d", "db", "-s", "secret", "-t", "1", "-n", "60",
				"-l", "debug", "-f", "json", "-k", "k1:9092, k2:9092", "-q", "topic",
				"-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
				"-u", "user", "-p", "password", "-x", "archive/",
			},
			expected: &Config{
				DatabaseDSN:    "db",
				SecretKey:      "secret",
				AccessTokenTTL: 1 * time.Minute,
				AnchorTTL:      time.Hour,
				LogLevel:       "debug",
				LogFormat:      "json",
				KafkaBrokers:   []string{"k1:9092", "k2:9092"},
				KafkaTopic:     "topic",
				S3Bucket:       "bucket",
				S3Region:       "us-west-1",
				S3BaseEndpoint: "http://endpoint",
				S3AccessKey:    "user",
				S3SecretKey:    "password",
				S3Prefix:       "archive/",
			},
		},
		{
			name:     "command flags are ignored",
			args:     []string{"proposal", "transition", "--as", "u1", "-d", "memory://"},
			expected: &Config{DatabaseDSN: "memory://"},
		},
		{
			name:      "bad integer",
			args:      []string{"-t", "soon"},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			err := parseFlags(config, tt.args)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b "))
}
