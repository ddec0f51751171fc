package messaging

import (
	"context"
	"fmt"

	messageRepo "expertmeet/database/repository/message"
	profileRepo "expertmeet/database/repository/profile"
	"expertmeet/models"
	"expertmeet/services/callroom"
	"expertmeet/services/lead"
	"expertmeet/services/usage"

	"go.uber.org/zap"
)

const (
	DefaultConversationLimit = 50
	MaxConversationLimit     = 200
)

// MessagingService carries two-party conversations and call invitations.
type MessagingService interface {
	SendMessage(ctx context.Context, senderID, recipientID, content string) (*models.Message, error)
	StartCall(ctx context.Context, senderID, recipientID string) (*models.Message, error)
	Conversation(ctx context.Context, userID, otherID string, limit int64) ([]models.Message, error)
}

// Pusher is the push capability used to alert the recipient. Optional.
type Pusher interface {
	SendPushNotification(ctx context.Context, profileID, title, body string, data map[string]string) error
}

type DefaultMessagingService struct {
	Messages messageRepo.MessageRepository
	Profiles profileRepo.ProfileRepository
	Usage    usage.UsageService
	Leads    lead.LeadService
	Rooms    callroom.Provisioner
	Pusher   Pusher
	Logger   *zap.Logger
}

func NewDefaultMessagingService(
	msgs messageRepo.MessageRepository,
	profiles profileRepo.ProfileRepository,
	usageSvc usage.UsageService,
	leads lead.LeadService,
	rooms callroom.Provisioner,
	logger *zap.Logger,
) (*DefaultMessagingService, error) {
	if msgs == nil || profiles == nil || usageSvc == nil || leads == nil || rooms == nil {
		return nil, fmt.Errorf("messaging service initialization error: a dependency is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultMessagingService{
		Messages: msgs,
		Profiles: profiles,
		Usage:    usageSvc,
		Leads:    leads,
		Rooms:    rooms,
		Logger:   logger,
	}, nil
}
