package storage

import (
	"context"
	"fmt"
	"io"

	documentRepo "expertmeet/database/repository/document"
	messageRepo "expertmeet/database/repository/message"
	profileRepo "expertmeet/database/repository/profile"
	"expertmeet/models"
	"expertmeet/services/usage"

	"go.uber.org/zap"
)

// UploadResult identifies a stored blob.
type UploadResult struct {
	PublicID  string
	SecureURL string
	Bytes     int64
}

// BlobStore keeps document contents outside the database.
type BlobStore interface {
	Upload(ctx context.Context, r io.Reader, filename, folder string) (*UploadResult, error)
	Delete(ctx context.Context, publicID string) error
}

// DocumentService uploads documents against the provider's storage quota.
type DocumentService interface {
	UploadDocument(ctx context.Context, in UploadInput) (*models.Document, error)
	ListDocuments(ctx context.Context, userID string) ([]models.Document, error)
}

// UploadInput describes one upload. ProviderID is ignored when the owner is a
// provider and required otherwise.
type UploadInput struct {
	OwnerID    string
	ProviderID string
	Filename   string
	SizeBytes  int64
	Content    io.Reader
}

type DefaultDocumentService struct {
	Blobs     BlobStore
	Documents documentRepo.DocumentRepository
	Messages  messageRepo.MessageRepository
	Profiles  profileRepo.ProfileRepository
	Usage     usage.UsageService
	Folder    string
	Logger    *zap.Logger
}

func NewDefaultDocumentService(
	blobs BlobStore,
	docs documentRepo.DocumentRepository,
	msgs messageRepo.MessageRepository,
	profiles profileRepo.ProfileRepository,
	usageSvc usage.UsageService,
	folder string,
	logger *zap.Logger,
) (*DefaultDocumentService, error) {
	if blobs == nil || docs == nil || msgs == nil || profiles == nil || usageSvc == nil {
		return nil, fmt.Errorf("document service initialization error: a dependency is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultDocumentService{
		Blobs:     blobs,
		Documents: docs,
		Messages:  msgs,
		Profiles:  profiles,
		Usage:     usageSvc,
		Folder:    folder,
		Logger:    logger,
	}, nil
}
