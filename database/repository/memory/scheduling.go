package memoryRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"expertmeet/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

type AvailabilityRepo struct {
	mu    sync.RWMutex
	rules []models.AvailabilityRule
}

func NewAvailabilityRepo() *AvailabilityRepo { return &AvailabilityRepo{} }

func (r *AvailabilityRepo) Create(_ context.Context, rule *models.AvailabilityRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	r.rules = append(r.rules, *rule)
	return nil
}

func (r *AvailabilityRepo) Delete(_ context.Context, providerID, ruleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rule := range r.rules {
		if rule.ID == ruleID && rule.ProviderID == providerID {
			r.rules = append(r.rules[:i], r.rules[i+1:]...)
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *AvailabilityRepo) ListByProvider(_ context.Context, providerID string) ([]models.AvailabilityRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.AvailabilityRule{}
	for _, rule := range r.rules {
		if rule.ProviderID == providerID {
			out = append(out, rule)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *AvailabilityRepo) ListByProviderAndDay(_ context.Context, providerID string, dayOfWeek int) ([]models.AvailabilityRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.AvailabilityRule{}
	for _, rule := range r.rules {
		if rule.ProviderID == providerID && rule.DayOfWeek == dayOfWeek {
			out = append(out, rule)
		}
	}
	return out, nil
}

type AppointmentRepo struct {
	mu    sync.RWMutex
	appts []*models.Appointment
}

func NewAppointmentRepo() *AppointmentRepo { return &AppointmentRepo{} }

func (r *AppointmentRepo) Create(_ context.Context, appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	appt.CreatedAt, appt.UpdatedAt = now, now
	cp := *appt
	r.appts = append(r.appts, &cp)
	return nil
}

func (r *AppointmentRepo) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.appts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *AppointmentRepo) UpdateStatus(_ context.Context, id string, to models.AppointmentStatus, allowedFrom ...models.AppointmentStatus) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appts {
		if a.ID != id {
			continue
		}
		if len(allowedFrom) > 0 && !containsStatus(allowedFrom, a.Status) {
			return nil, mongo.ErrNoDocuments
		}
		a.Status = to
		a.UpdatedAt = time.Now().UTC()
		cp := *a
		return &cp, nil
	}
	return nil, mongo.ErrNoDocuments
}

func containsStatus(list []models.AppointmentStatus, s models.AppointmentStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *AppointmentRepo) ListByClient(_ context.Context, clientID string) ([]models.Appointment, error) {
	return r.filter(func(a *models.Appointment) bool { return a.ClientID == clientID }), nil
}

func (r *AppointmentRepo) ListByProvider(_ context.Context, providerID string) ([]models.Appointment, error) {
	return r.filter(func(a *models.Appointment) bool { return a.ProviderID == providerID }), nil
}

func (r *AppointmentRepo) filter(keep func(*models.Appointment) bool) []models.Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Appointment{}
	for _, a := range r.appts {
		if keep(a) {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out
}

func (r *AppointmentRepo) ExistsBetween(_ context.Context, clientID, providerID, excludeID string) (bool, error) {
	found := r.filter(func(a *models.Appointment) bool {
		return a.ClientID == clientID && a.ProviderID == providerID && a.ID != excludeID
	})
	return len(found) > 0, nil
}

func (r *AppointmentRepo) GetByRoomID(_ context.Context, roomID string) (*models.Appointment, error) {
	found := r.filter(func(a *models.Appointment) bool { return a.CallRoomID != nil && *a.CallRoomID == roomID })
	if len(found) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &found[0], nil
}

func (r *AppointmentRepo) CompleteConfirmedBefore(_ context.Context, date string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.appts {
		if a.Status == models.AppointmentConfirmed && a.Date < date {
			a.Status = models.AppointmentCompleted
			a.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored appointments.
func (r *AppointmentRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.appts)
}
