package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expertmeet/models"
	"expertmeet/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SendMessage persists a text message from senderID to recipientID.
func (s *DefaultMessagingService) SendMessage(ctx context.Context, senderID, recipientID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, utils.NewAppError(utils.KindInvalidArgument, "message content is empty")
	}
	return s.post(ctx, &models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Kind:        models.MessageText,
		Content:     content,
	})
}

// StartCall provisions a room and posts a call invitation that carries its id.
func (s *DefaultMessagingService) StartCall(ctx context.Context, senderID, recipientID string) (*models.Message, error) {
	roomID, err := s.Rooms.Provision(ctx)
	if err != nil {
		if utils.KindOf(err) == "" {
			err = utils.WrapAppError(utils.KindCallProvisioning, err, "could not allocate a call room")
		}
		return nil, err
	}
	return s.post(ctx, &models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Kind:        models.MessageCallInvitation,
		Content:     "Video call invitation",
		RoomID:      roomID,
	})
}

// post is shared by every message kind. A client opening a conversation with a
// provider is gated by the provider's chat quota, and counted afterwards.
func (s *DefaultMessagingService) post(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if msg.SenderID == msg.RecipientID {
		return nil, utils.NewAppError(utils.KindInvalidArgument, "cannot message yourself")
	}
	sender, err := s.profile(ctx, msg.SenderID)
	if err != nil {
		return nil, err
	}
	recipient, err := s.profile(ctx, msg.RecipientID)
	if err != nil {
		return nil, err
	}

	opensConversation := false
	if sender.Role == models.RoleClient && recipient.Role == models.RoleProvider {
		prior, err := s.Messages.ExistsBetween(ctx, sender.ID, recipient.ID, "")
		if err != nil {
			return nil, fmt.Errorf("failed to check conversation history: %w", err)
		}
		if !prior {
			opensConversation = true
			delta := models.UsageDelta{PartnerID: sender.ID}
			if err := s.Usage.CheckLimit(ctx, recipient.ID, models.UsageChat, delta); err != nil {
				return nil, err
			}
		}
	}

	msg.ID = uuid.New().String()
	msg.CreatedAt = time.Now().UTC()
	if err := s.Messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	if opensConversation {
		if err := s.Usage.RecordUsage(ctx, recipient.ID, models.UsageChat, models.UsageDelta{PartnerID: sender.ID}); err != nil {
			s.Logger.Warn("failed to record chat usage", zap.String("providerId", recipient.ID), zap.Error(err))
		}
		if _, _, err := s.Leads.EmitLead(ctx, models.LeadInput{
			ProviderID: recipient.ID,
			ClientID:   sender.ID,
			Source:     models.LeadFromMessage,
			SourceID:   msg.ID,
		}); err != nil {
			s.Logger.Warn("failed to emit lead", zap.String("providerId", recipient.ID), zap.Error(err))
		}
	}

	if s.Pusher != nil {
		s.push(ctx, sender, msg)
	}
	return msg, nil
}

func (s *DefaultMessagingService) push(ctx context.Context, sender *models.Profile, msg *models.Message) {
	title := "New message from " + sender.DisplayName
	data := map[string]string{"type": string(msg.Kind), "messageId": msg.ID, "senderId": sender.ID}
	if msg.Kind == models.MessageCallInvitation {
		title = sender.DisplayName + " is calling"
		data["roomId"] = msg.RoomID
	}
	if err := s.Pusher.SendPushNotification(ctx, msg.RecipientID, title, msg.Content, data); err != nil {
		s.Logger.Debug("message push skipped", zap.String("recipientId", msg.RecipientID), zap.Error(err))
	}
}

func (s *DefaultMessagingService) profile(ctx context.Context, id string) (*models.Profile, error) {
	p, err := s.Profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewAppError(utils.KindNotFound, "user %s not found", id)
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

// Conversation returns up to limit of the latest messages between the two
// users, oldest first.
func (s *DefaultMessagingService) Conversation(ctx context.Context, userID, otherID string, limit int64) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultConversationLimit
	}
	if limit > MaxConversationLimit {
		limit = MaxConversationLimit
	}
	msgs, err := s.Messages.Conversation(ctx, userID, otherID, limit)
	if err != nil {
		return nil, fmt.Errorf("Conversation: %w", err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}
