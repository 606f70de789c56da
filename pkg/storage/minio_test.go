package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMinioStoreRequiresEndpointAndBucket(t *testing.T) {
	_, err := NewMinioStore(MinioConfig{Bucket: "backups"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewMinioStore(MinioConfig{Endpoint: "localhost:9000"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestKeyPrefix(t *testing.T) {
	s, err := NewMinioStore(MinioConfig{Endpoint: "localhost:9000", Bucket: "b", Prefix: "/hershield/backups/"})
	require.NoError(t, err)
	assert.Equal(t, "hershield/backups/users_1.db", s.Key("users_1.db"))

	bare, err := NewMinioStore(MinioConfig{Endpoint: "localhost:9000", Bucket: "b"})
	require.NoError(t, err)
	assert.Equal(t, "users_1.db", bare.Key("users_1.db"))
}
