package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expertmeet/models"
	"expertmeet/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const bytesPerMb = 1024 * 1024

// UploadDocument meters the upload against the provider's storage quota,
// stores the blob and saves its metadata. A client upload is also posted to
// the provider's conversation as a document message.
func (s *DefaultDocumentService) UploadDocument(ctx context.Context, in UploadInput) (*models.Document, error) {
	if in.Content == nil || in.SizeBytes <= 0 {
		return nil, utils.NewAppError(utils.KindInvalidArgument, "document is empty")
	}
	owner, err := s.profile(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}
	providerID := in.ProviderID
	if owner.Role == models.RoleProvider {
		providerID = owner.ID
	} else {
		if providerID == "" {
			return nil, utils.NewAppError(utils.KindInvalidArgument, "providerId is required for client uploads")
		}
		provider, err := s.profile(ctx, providerID)
		if err != nil {
			return nil, err
		}
		if provider.Role != models.RoleProvider {
			return nil, utils.NewAppError(utils.KindNotFound, "provider %s not found", providerID)
		}
	}

	delta := models.UsageDelta{SizeMb: float64(in.SizeBytes) / bytesPerMb}
	if err := s.Usage.CheckLimit(ctx, providerID, models.UsageStorage, delta); err != nil {
		return nil, err
	}

	blob, err := s.Blobs.Upload(ctx, in.Content, in.Filename, s.Folder)
	if err != nil {
		return nil, fmt.Errorf("UploadDocument: %w", err)
	}

	doc := &models.Document{
		ID:         uuid.New().String(),
		OwnerID:    owner.ID,
		ProviderID: providerID,
		Name:       in.Filename,
		URL:        blob.SecureURL,
		PublicID:   blob.PublicID,
		SizeBytes:  in.SizeBytes,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Documents.Create(ctx, doc); err != nil {
		if delErr := s.Blobs.Delete(ctx, blob.PublicID); delErr != nil {
			s.Logger.Warn("failed to remove orphaned blob", zap.String("publicId", blob.PublicID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("UploadDocument: %w", err)
	}

	if err := s.Usage.RecordUsage(ctx, providerID, models.UsageStorage, delta); err != nil {
		s.Logger.Warn("failed to record storage usage", zap.String("providerId", providerID), zap.Error(err))
	}
	if owner.ID != providerID {
		msg := &models.Message{
			ID:          uuid.New().String(),
			SenderID:    owner.ID,
			RecipientID: providerID,
			Kind:        models.MessageDocument,
			Content:     doc.Name,
			DocumentID:  doc.ID,
			CreatedAt:   doc.CreatedAt,
		}
		if err := s.Messages.Create(ctx, msg); err != nil {
			s.Logger.Warn("failed to post document message", zap.String("documentId", doc.ID), zap.Error(err))
		}
	}
	return doc, nil
}

func (s *DefaultDocumentService) ListDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	docs, err := s.Documents.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListDocuments: %w", err)
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

func (s *DefaultDocumentService) profile(ctx context.Context, id string) (*models.Profile, error) {
	p, err := s.Profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewAppError(utils.KindNotFound, "user %s not found", id)
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}
