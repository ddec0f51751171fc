package payment

import (
	"context"
	"errors"
	"testing"

	memoryRepo "expertmeet/database/repository/memory"
	"expertmeet/models"
	"expertmeet/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func TestAmountCents(t *testing.T) {
	cents, err := AmountCents("120.505")
	require.NoError(t, err)
	assert.Equal(t, int64(12051), cents)

	_, err = AmountCents("")
	assert.True(t, errors.Is(err, utils.ErrInvalidArgument))
	_, err = AmountCents("abc")
	assert.True(t, errors.Is(err, utils.ErrInvalidArgument))
	_, err = AmountCents("0")
	assert.True(t, errors.Is(err, utils.ErrInvalidArgument))
}

func TestCreatePaymentIntent(t *testing.T) {
	ctx := context.Background()
	appts := memoryRepo.NewAppointmentRepo()
	require.NoError(t, appts.Create(ctx, &models.Appointment{
		ID: "a1", ClientID: "c1", ProviderID: "p1", Service: "Audit", Date: "2025-03-10", Time: "09:00",
		Status: models.AppointmentPending,
	}))
	profiles := memoryRepo.NewProfileRepo(models.Profile{ID: "p1", Role: models.RoleProvider, HourlyRate: "85.00"})

	svc, err := NewStripePaymentService(appts, profiles, "sk_test_x", "eur", nil)
	require.NoError(t, err)

	var got *stripe.PaymentIntentParams
	svc.NewIntent = func(p *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
		got = p
		return &stripe.PaymentIntent{ID: "pi_1", ClientSecret: "secret", Amount: *p.Amount, Currency: stripe.Currency(*p.Currency)}, nil
	}

	resp, err := svc.CreatePaymentIntent(ctx, "c1", "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(8500), resp.AmountCents)
	assert.Equal(t, "eur", resp.Currency)
	assert.Equal(t, "a1", got.Metadata["appointmentId"])

	_, err = svc.CreatePaymentIntent(ctx, "c2", "a1")
	assert.True(t, errors.Is(err, utils.ErrNotFound))
}
