package store

import (
	"context"
	"sort"
	"sync"

	identity "clubid/internal/identity/models"
	"clubid/internal/rolerequest/models"
	id "clubid/pkg/domain"
)

type pendingKey struct {
	person id.PersonID
	role   identity.Role
}

// InMemory mirrors the partial unique index on pending requests with a
// secondary map.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.RoleRequestID]*models.Request
	pending  map[pendingKey]id.RoleRequestID
}

func NewInMemory() *InMemory {
	return &InMemory{
		requests: make(map[id.RoleRequestID]*models.Request),
		pending:  make(map[pendingKey]id.RoleRequestID),
	}
}

func (s *InMemory) Create(_ context.Context, r *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pendingKey{r.PersonID, r.Role}
	if r.IsPending() {
		if _, exists := s.pending[key]; exists {
			return ErrConflict
		}
		s.pending[key] = r.ID
	}
	s.requests[r.ID] = r.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.RoleRequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemory) FindByIDForUpdate(ctx context.Context, requestID id.RoleRequestID) (*models.Request, error) {
	return s.FindByID(ctx, requestID)
}

func (s *InMemory) FindPending(_ context.Context, person id.PersonID, role identity.Role) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rid, ok := s.pending[pendingKey{person, role}]
	if !ok {
		return nil, ErrNotFound
	}
	return s.requests[rid].Clone(), nil
}

func (s *InMemory) Update(_ context.Context, r *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; !ok {
		return ErrNotFound
	}
	key := pendingKey{r.PersonID, r.Role}
	if !r.IsPending() && s.pending[key] == r.ID {
		delete(s.pending, key)
	}
	s.requests[r.ID] = r.Clone()
	return nil
}

func (s *InMemory) ListByPerson(_ context.Context, person id.PersonID) ([]*models.Request, error) {
	return s.list(func(r *models.Request) bool { return r.PersonID == person }, 0), nil
}

func (s *InMemory) ListByStatus(_ context.Context, status models.Status, limit int) ([]*models.Request, error) {
	return s.list(func(r *models.Request) bool { return r.Status == status }, limit), nil
}

func (s *InMemory) list(match func(*models.Request) bool, limit int) []*models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Request
	for _, r := range s.requests {
		if match(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
