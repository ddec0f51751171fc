package payment

import (
	"context"
	"errors"
	"fmt"

	appointmentRepo "expertmeet/database/repository/appointment"
	profileRepo "expertmeet/database/repository/profile"
	"expertmeet/models"
	"expertmeet/utils"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// PaymentService prices appointments and opens Stripe payment intents for them.
type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, clientID, appointmentID string) (*models.PaymentIntentResponse, error)
}

// IntentCreator is paymentintent.New in production.
type IntentCreator func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)

type StripePaymentService struct {
	Appointments appointmentRepo.AppointmentRepository
	Profiles     profileRepo.ProfileRepository
	Currency     string
	NewIntent    IntentCreator
	Logger       *zap.Logger
}

// NewStripePaymentService sets the global Stripe key and returns the service.
func NewStripePaymentService(appts appointmentRepo.AppointmentRepository, profiles profileRepo.ProfileRepository, key, currency string, logger *zap.Logger) (*StripePaymentService, error) {
	if appts == nil || profiles == nil {
		return nil, fmt.Errorf("payment service initialization error: a repository is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = "usd"
	}
	stripe.Key = key
	return &StripePaymentService{
		Appointments: appts,
		Profiles:     profiles,
		Currency:     currency,
		NewIntent:    paymentintent.New,
		Logger:       logger,
	}, nil
}

// AmountCents converts a decimal hourly rate in major units into cents.
func AmountCents(hourlyRate string) (int64, error) {
	if hourlyRate == "" {
		return 0, utils.NewAppError(utils.KindInvalidArgument, "provider has no hourly rate")
	}
	rate, err := decimal.NewFromString(hourlyRate)
	if err != nil {
		return 0, utils.WrapAppError(utils.KindInvalidArgument, err, "invalid hourly rate %q", hourlyRate)
	}
	cents := rate.Mul(decimal.NewFromInt(100)).Round(0)
	if !cents.IsPositive() {
		return 0, utils.NewAppError(utils.KindInvalidArgument, "hourly rate must be positive")
	}
	return cents.IntPart(), nil
}

func (s *StripePaymentService) CreatePaymentIntent(ctx context.Context, clientID, appointmentID string) (*models.PaymentIntentResponse, error) {
	appt, err := s.Appointments.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewAppError(utils.KindNotFound, "appointment %s not found", appointmentID)
		}
		return nil, fmt.Errorf("CreatePaymentIntent: %w", err)
	}
	if appt.ClientID != clientID {
		return nil, utils.NewAppError(utils.KindNotFound, "appointment %s not found", appointmentID)
	}
	if appt.Status.IsTerminal() {
		return nil, utils.NewAppError(utils.KindInvalidArgument, "appointment is %s", appt.Status)
	}

	provider, err := s.Profiles.GetByID(ctx, appt.ProviderID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewAppError(utils.KindNotFound, "provider %s not found", appt.ProviderID)
		}
		return nil, fmt.Errorf("CreatePaymentIntent: %w", err)
	}
	amount, err := AmountCents(provider.HourlyRate)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(s.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String(fmt.Sprintf("%s with %s on %s %s", appt.Service, provider.DisplayName, appt.Date, appt.Time)),
	}
	params.Context = ctx
	params.AddMetadata("appointmentId", appt.ID)
	params.AddMetadata("providerId", appt.ProviderID)
	params.AddMetadata("clientId", appt.ClientID)
	params.SetIdempotencyKey("appointment-" + appt.ID)

	pi, err := s.NewIntent(params)
	if err != nil {
		s.Logger.Error("stripe payment intent failed", zap.String("appointmentId", appt.ID), zap.Error(err))
		return nil, fmt.Errorf("CreatePaymentIntent: %w", err)
	}
	return &models.PaymentIntentResponse{
		PaymentIntentID: pi.ID,
		ClientSecret:    pi.ClientSecret,
		AmountCents:     pi.Amount,
		Currency:        string(pi.Currency),
	}, nil
}
