package principals

import (
	"context"
	"sync"
	"time"

	"github.com/dpavlenko/authd/internal/common"
	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-memory Repository. It backs the
// workflow tests and serves as a development fallback when no database DSN
// is configured.
type MemoryRepository struct {
	mu      sync.Mutex
	byID    map[string]*Principal
	byEmail map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*Principal),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, p *Principal) (*Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[p.Email]; exists {
		return nil, common.ErrorConflict
	}

	now := time.Now()
	stored := clone(p)
	stored.ID = uuid.NewString()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	return clone(stored), nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(p), nil
}

func (r *MemoryRepository) SetRefreshTokenHash(ctx context.Context, id string, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.RefreshTokenHash = hash
	p.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) RotateRefreshTokenHash(ctx context.Context, id string, oldHash, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok || p.RefreshTokenHash != oldHash {
		return common.ErrorNotFound
	}
	p.RefreshTokenHash = newHash
	p.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) ClearRefreshTokenHash(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.byID[id]; ok {
		p.RefreshTokenHash = ""
		p.UpdatedAt = time.Now()
	}
	return nil
}

func (r *MemoryRepository) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Phone != nil {
		p.Phone = *upd.Phone
	}
	p.UpdatedAt = time.Now()
	return clone(p), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byEmail, p.Email)
	delete(r.byID, id)
	return nil
}

func clone(p *Principal) *Principal {
	c := *p
	return &c
}
