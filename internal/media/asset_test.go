package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"versioned", "https://host/upload/v1699999999/abc123.mp4", "abc123"},
		{"unversioned", "https://host/upload/abc123.png", "abc123"},
		{"nested folders", "https://host/upload/v1/videos/abc.mp4", "videos/abc"},
		{"no extension", "https://host/upload/v12/abc", "abc"},
		{"query string", "https://host/upload/v3/abc.jpg?w=200", "abc"},
		{"dot in folder only", "https://host/upload/v3/some.dir/abc", "some.dir/abc"},
		{"last marker wins", "https://host/upload/x/video/upload/v9/def.mp4", "def"},
		{"version-like id kept", "https://host/upload/v99.png", "v99"},
		{"s3 layout", "https://cdn.example.com/video/upload/v1700000000/3f1c.mp4", "3f1c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AssetID(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssetIDErrors(t *testing.T) {
	_, err := AssetID("https://host/media/abc.mp4")
	assert.ErrorIs(t, err, ErrNoUploadMarker)

	_, err = AssetID("https://host/upload/")
	assert.ErrorIs(t, err, ErrEmptyAssetID)

	_, err = AssetID("")
	assert.ErrorIs(t, err, ErrNoUploadMarker)
}
