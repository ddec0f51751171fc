package memoryRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"expertmeet/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

type UsageRepo struct {
	mu      sync.Mutex
	periods map[string]*models.UsagePeriod
}

func NewUsageRepo() *UsageRepo {
	return &UsageRepo{periods: make(map[string]*models.UsagePeriod)}
}

func periodKey(providerID string, month, year int) string {
	return fmt.Sprintf("%s/%04d-%02d", providerID, year, month)
}

// getOrCreateLocked must be called with mu held.
func (r *UsageRepo) getOrCreateLocked(providerID string, month, year int) *models.UsagePeriod {
	key := periodKey(providerID, month, year)
	p, ok := r.periods[key]
	if !ok {
		now := time.Now().UTC()
		p = &models.UsagePeriod{
			ID:                 uuid.New().String(),
			ProviderID:         providerID,
			Month:              month,
			Year:               year,
			UniqueChatPartners: []string{},
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		r.periods[key] = p
	}
	return p
}

func (r *UsageRepo) GetOrCreate(_ context.Context, providerID string, month, year int) (*models.UsagePeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := *r.getOrCreateLocked(providerID, month, year)
	p.UniqueChatPartners = append([]string{}, p.UniqueChatPartners...)
	return &p, nil
}

func (r *UsageRepo) Increment(_ context.Context, providerID string, month, year int, inc models.UsageIncrement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.getOrCreateLocked(providerID, month, year)
	p.AppointmentsUsed += inc.Appointments
	p.StorageUsedMb += inc.StorageMb
	p.ChatsUsed += inc.Chats
	if inc.ChatPartner != "" && !p.HasPartner(inc.ChatPartner) {
		p.UniqueChatPartners = append(p.UniqueChatPartners, inc.ChatPartner)
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// PeriodCount returns how many period records exist.
func (r *UsageRepo) PeriodCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.periods)
}

type PlanRepo struct {
	mu    sync.RWMutex
	plans map[string]models.SubscriptionPlan
	subs  map[string]models.ProviderSubscription
}

func NewPlanRepo(plans ...models.SubscriptionPlan) *PlanRepo {
	r := &PlanRepo{
		plans: make(map[string]models.SubscriptionPlan),
		subs:  make(map[string]models.ProviderSubscription),
	}
	for _, p := range plans {
		r.plans[p.ID] = p
	}
	return r
}

func (r *PlanRepo) GetByID(_ context.Context, id string) (*models.SubscriptionPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &p, nil
}

func (r *PlanRepo) GetByName(_ context.Context, name string) (*models.SubscriptionPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plans {
		if p.Name == name {
			cp := p
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *PlanRepo) List(_ context.Context) ([]models.SubscriptionPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.SubscriptionPlan, 0, len(r.plans))
	for _, p := range r.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceCents < out[j].PriceCents })
	return out, nil
}

func (r *PlanRepo) Upsert(_ context.Context, plan models.SubscriptionPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.ID] = plan
	return nil
}

func (r *PlanRepo) GetSubscription(_ context.Context, providerID string) (*models.ProviderSubscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subs[providerID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &s, nil
}

func (r *PlanRepo) AssignIfAbsent(_ context.Context, providerID, planID string) (*models.ProviderSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.subs[providerID]; ok {
		return &s, nil
	}
	s := models.ProviderSubscription{
		ProviderID: providerID,
		PlanID:     planID,
		Status:     models.SubscriptionActive,
		AssignedAt: time.Now().UTC(),
	}
	r.subs[providerID] = s
	return &s, nil
}
