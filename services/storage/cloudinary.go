package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore stores documents as raw assets.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cld *cloudinary.Cloudinary) *CloudinaryStore {
	return &CloudinaryStore{cld: cld}
}

func (s *CloudinaryStore) Upload(ctx context.Context, r io.Reader, filename, folder string) (*UploadResult, error) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	params := uploader.UploadParams{
		Folder:         folder,
		PublicID:       fmt.Sprintf("%s_%d", base, time.Now().UnixNano()),
		ResourceType:   "raw",
		UniqueFilename: api.Bool(false),
	}
	result, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return nil, fmt.Errorf("CloudinaryStore: failed to upload file: %w", err)
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("CloudinaryStore: upload rejected: %s", result.Error.Message)
	}
	if result.PublicID == "" {
		return nil, fmt.Errorf("CloudinaryStore: no public ID returned")
	}
	return &UploadResult{PublicID: result.PublicID, SecureURL: result.SecureURL, Bytes: int64(result.Bytes)}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "raw",
	})
	if err != nil {
		return fmt.Errorf("CloudinaryStore: failed to delete file: %w", err)
	}
	return nil
}
