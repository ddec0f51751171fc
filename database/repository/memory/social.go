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

type LeadRepo struct {
	mu    sync.RWMutex
	leads []*models.Lead
}

func NewLeadRepo() *LeadRepo { return &LeadRepo{} }

func (r *LeadRepo) InsertIfAbsent(_ context.Context, lead *models.Lead) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.ProviderID == lead.ProviderID && l.ClientID == lead.ClientID {
			return false, nil
		}
	}
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	lead.CreatedAt, lead.UpdatedAt = now, now
	cp := *lead
	r.leads = append(r.leads, &cp)
	return true, nil
}

func (r *LeadRepo) ExistsFor(_ context.Context, providerID, clientID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.leads {
		if l.ProviderID == providerID && l.ClientID == clientID {
			return true, nil
		}
	}
	return false, nil
}

func (r *LeadRepo) ListByProvider(_ context.Context, providerID string) ([]models.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Lead{}
	for i := len(r.leads) - 1; i >= 0; i-- {
		if r.leads[i].ProviderID == providerID {
			out = append(out, *r.leads[i])
		}
	}
	return out, nil
}

func (r *LeadRepo) UpdateStatus(_ context.Context, providerID, leadID string, status models.LeadStatus) (*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.ID == leadID && l.ProviderID == providerID {
			l.Status = status
			l.UpdatedAt = time.Now().UTC()
			cp := *l
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

type MessageRepo struct {
	mu   sync.RWMutex
	msgs []models.Message
}

func NewMessageRepo() *MessageRepo { return &MessageRepo{} }

func (r *MessageRepo) Create(_ context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	r.msgs = append(r.msgs, *msg)
	return nil
}

func isPair(m models.Message, a, b string) bool {
	return (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)
}

func (r *MessageRepo) ExistsBetween(_ context.Context, a, b, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.msgs {
		if isPair(m, a, b) && m.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MessageRepo) Conversation(_ context.Context, a, b string, limit int64) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Message{}
	for _, m := range r.msgs {
		if isPair(m, a, b) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[int64(len(out))-limit:]
	}
	return out, nil
}

func (r *MessageRepo) GetByRoomID(_ context.Context, roomID string) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.msgs {
		if m.Kind == models.MessageCallInvitation && m.RoomID == roomID {
			cp := m
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

type ProfileRepo struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
}

func NewProfileRepo(profiles ...models.Profile) *ProfileRepo {
	r := &ProfileRepo{profiles: make(map[string]models.Profile)}
	for _, p := range profiles {
		r.profiles[p.ID] = p
	}
	return r
}

func (r *ProfileRepo) GetByID(_ context.Context, id string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &p, nil
}

func (r *ProfileRepo) Upsert(_ context.Context, p *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	existing, ok := r.profiles[p.ID]
	if ok {
		p.CreatedAt = existing.CreatedAt
		p.FCMToken = existing.FCMToken
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.profiles[p.ID] = *p
	return nil
}

func (r *ProfileRepo) UpdateFCMToken(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	p.FCMToken = token
	r.profiles[id] = p
	return nil
}

type DocumentRepo struct {
	mu   sync.RWMutex
	docs []models.Document
}

func NewDocumentRepo() *DocumentRepo { return &DocumentRepo{} }

func (r *DocumentRepo) Create(_ context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.CreatedAt = time.Now().UTC()
	r.docs = append(r.docs, *doc)
	return nil
}

func (r *DocumentRepo) ListForUser(_ context.Context, userID string) ([]models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Document{}
	for i := len(r.docs) - 1; i >= 0; i-- {
		if r.docs[i].OwnerID == userID || r.docs[i].ProviderID == userID {
			out = append(out, r.docs[i])
		}
	}
	return out, nil
}
