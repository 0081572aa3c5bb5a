package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		suffix   string
	}{
		{"Plain", "plan.pdf", "-plan.pdf"},
		{"StripsDirectories", "../../etc/passwd", "-passwd"},
		{"WindowsPath", `C:\Users\jane\notes.docx`, "-notes.docx"},
		{"Empty", "", "-file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := ObjectKey(42, tt.fileName)
			assert.True(t, strings.HasPrefix(key, "change-requests/42/"), key)
			assert.True(t, strings.HasSuffix(key, tt.suffix), key)
		})
	}

	t.Run("Unique", func(t *testing.T) {
		assert.NotEqual(t, ObjectKey(1, "a.txt"), ObjectKey(1, "a.txt"))
	})
}

func TestNewS3Store(t *testing.T) {
	t.Run("RequiresBucket", func(t *testing.T) {
		_, err := NewS3Store(context.Background(), S3Config{})
		assert.Error(t, err)
	})

	t.Run("StaticCredentials", func(t *testing.T) {
		s, err := NewS3Store(context.Background(), S3Config{
			Bucket:          "dcr",
			Endpoint:        "http://localhost:9000",
			AccessKeyID:     "minio",
			SecretAccessKey: "minio123",
		})
		require.NoError(t, err)
		assert.Equal(t, "dcr", s.bucket)
	})
}
