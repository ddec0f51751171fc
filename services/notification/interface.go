package notification

import (
	"context"
	"errors"
	"fmt"

	profileRepo "expertmeet/database/repository/profile"
	"expertmeet/models"

	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrNoPushTarget means the recipient has not registered a device token.
var ErrNoPushTarget = errors.New("recipient has no FCM token")

// NotificationService defines methods for sending FCM pushes.
type NotificationService interface {
	SendPushNotification(ctx context.Context, profileID, title, body string, data map[string]string) error
	NotifyAppointmentBooked(ctx context.Context, appt models.Appointment, client models.Profile) error
	NotifyAppointmentStatus(ctx context.Context, appt models.Appointment, recipientID string) error
}

// Sender is the part of *messaging.Client this service uses.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	Profiles profileRepo.ProfileRepository
	FCM      Sender
	Logger   *zap.Logger
}

func NewDefaultNotificationService(profiles profileRepo.ProfileRepository, fcm Sender, logger *zap.Logger) (*DefaultNotificationService, error) {
	if profiles == nil || fcm == nil {
		return nil, fmt.Errorf("notification service initialization error: profile repository or FCM sender is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultNotificationService{Profiles: profiles, FCM: fcm, Logger: logger}, nil
}

// SendPushNotification looks up a profile's FCM token and sends a push.
func (s *DefaultNotificationService) SendPushNotification(ctx context.Context, profileID, title, body string, data map[string]string) error {
	p, err := s.Profiles.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("SendPushNotification: profile %s not found: %w", profileID, err)
		}
		return fmt.Errorf("SendPushNotification: %w", err)
	}
	if p.FCMToken == "" {
		return fmt.Errorf("SendPushNotification: profile %s: %w", profileID, ErrNoPushTarget)
	}

	if data == nil {
		data = map[string]string{}
	}
	if _, ok := data["role"]; !ok {
		data["role"] = string(p.Role)
	}

	msg := &messaging.Message{
		Token: p.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	id, err := s.FCM.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("SendPushNotification: failed to send FCM message: %w", err)
	}
	s.Logger.Debug("push sent", zap.String("profileId", profileID), zap.String("messageId", id))
	return nil
}

func (s *DefaultNotificationService) NotifyAppointmentBooked(ctx context.Context, appt models.Appointment, client models.Profile) error {
	title := "New appointment request"
	body := fmt.Sprintf("%s requested %s on %s at %s (%s).", client.DisplayName, appt.Service, appt.Date, appt.Time, appt.Method)
	return s.SendPushNotification(ctx, appt.ProviderID, title, body, map[string]string{
		"type":          "appointment_booked",
		"appointmentId": appt.ID,
	})
}

func (s *DefaultNotificationService) NotifyAppointmentStatus(ctx context.Context, appt models.Appointment, recipientID string) error {
	title := "Appointment " + string(appt.Status)
	body := fmt.Sprintf("Your %s appointment on %s at %s is now %s.", appt.Service, appt.Date, appt.Time, appt.Status)
	return s.SendPushNotification(ctx, recipientID, title, body, map[string]string{
		"type":          "appointment_status",
		"appointmentId": appt.ID,
		"status":        string(appt.Status),
	})
}
