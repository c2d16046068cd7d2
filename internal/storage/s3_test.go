package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// CONTENT TYPE TESTS
// =============================================================================

func TestImageContentType(t *testing.T) {
	tests := []struct {
		extension string
		expected  string
	}{
		{".jpg", "image/jpeg"},
		{".JPG", "image/jpeg"},
		{".jpeg", "image/jpeg"},
		{".png", "image/png"},
		{".PNG", "image/png"},
		{".gif", "image/gif"},
		{".webp", "image/webp"},
		{".unknown", "application/octet-stream"},
		{"", "application/octet-stream"},
		{".bmp", "application/octet-stream"}, // Not supported
	}

	for _, tt := range tests {
		t.Run(tt.extension, func(t *testing.T) {
			result := imageContentType(tt.extension)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMediaContentType(t *testing.T) {
	tests := []struct {
		extension string
		expected  string
	}{
		{".mp4", "video/mp4"},
		{".MP4", "video/mp4"},
		{".webm", "video/webm"},
		{".mov", "video/quicktime"},
		{".mp3", "audio/mpeg"},
		{".wav", "audio/wav"},
		{".ogg", "audio/ogg"},
		{".m4a", "audio/mp4"},
		{".png", "image/png"},
		{".flac", "application/octet-stream"}, // Not explicitly mapped
	}

	for _, tt := range tests {
		t.Run(tt.extension, func(t *testing.T) {
			result := mediaContentType(tt.extension)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMediaType(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"photo.jpg", "image"},
		{"photo.PNG", "image"},
		{"clip.mp4", "video"},
		{"voice.mp3", "audio"},
		{"notes.pdf", "file"},
		{"no-extension", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, MediaType(tt.filename))
		})
	}
}

// =============================================================================
// UPLOAD RESULT TESTS
// =============================================================================

func TestUploadResultStruct(t *testing.T) {
	result := UploadResult{
		Key:    "media/2026/01/user123/abc123.png",
		URL:    "https://cdn.example.com/media/2026/01/user123/abc123.png",
		Bucket: "my-bucket",
		Region: "us-east-1",
		Size:   1024000,
	}

	assert.Equal(t, "media/2026/01/user123/abc123.png", result.Key)
	assert.Equal(t, "https://cdn.example.com/media/2026/01/user123/abc123.png", result.URL)
	assert.Equal(t, "my-bucket", result.Bucket)
	assert.Equal(t, "us-east-1", result.Region)
	assert.Equal(t, int64(1024000), result.Size)
}

// =============================================================================
// S3 UPLOADER STRUCT TESTS
// =============================================================================

func TestS3UploaderStruct(t *testing.T) {
	uploader := &S3Uploader{
		bucket:  "test-bucket",
		region:  "us-west-2",
		baseURL: "https://cdn.test.com",
	}

	assert.Equal(t, "test-bucket", uploader.bucket)
	assert.Equal(t, "us-west-2", uploader.region)
	assert.Equal(t, "https://cdn.test.com", uploader.baseURL)
}
