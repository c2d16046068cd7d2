package storage

import (
	"context"
	"mime/multipart"
)

// MediaUploader defines the interface handlers use for uploads
// This interface allows for easy mocking in tests
type MediaUploader interface {
	UploadAvatar(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID string) (*UploadResult, error)
	UploadPostMedia(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID string) (*UploadResult, error)
}

// Ensure S3Uploader implements MediaUploader
var _ MediaUploader = (*S3Uploader)(nil)
