package store

import (
	"context"
	"sort"
	"sync"

	"clubid/internal/integration/models"
	id "clubid/pkg/domain"
)

type pendingKey struct {
	person id.PersonID
	target id.EntityRef
}

// InMemory mirrors the one-pending-per-(person, entity) index with a
// secondary map.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.IntegrationRequestID]*models.Request
	pending  map[pendingKey]id.IntegrationRequestID
}

func NewInMemory() *InMemory {
	return &InMemory{
		requests: make(map[id.IntegrationRequestID]*models.Request),
		pending:  make(map[pendingKey]id.IntegrationRequestID),
	}
}

func (s *InMemory) Create(_ context.Context, r *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pendingKey{r.PersonID, r.Target}
	if r.IsPending() {
		if _, exists := s.pending[key]; exists {
			return ErrConflict
		}
		s.pending[key] = r.ID
	}
	s.requests[r.ID] = r.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.IntegrationRequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemory) FindByIDForUpdate(ctx context.Context, requestID id.IntegrationRequestID) (*models.Request, error) {
	return s.FindByID(ctx, requestID)
}

func (s *InMemory) FindPending(_ context.Context, person id.PersonID, target id.EntityRef) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rid, ok := s.pending[pendingKey{person, target}]
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
	key := pendingKey{r.PersonID, r.Target}
	if !r.IsPending() && s.pending[key] == r.ID {
		delete(s.pending, key)
	}
	s.requests[r.ID] = r.Clone()
	return nil
}

// ListByPersonAndStatusForUpdate returns every match; batch callers need
// the whole set.
func (s *InMemory) ListByPersonAndStatusForUpdate(_ context.Context, person id.PersonID, status models.Status) ([]*models.Request, error) {
	return s.list(0, func(r *models.Request) bool { return r.PersonID == person && r.Status == status }), nil
}

func (s *InMemory) HasApproved(_ context.Context, person id.PersonID, target id.EntityRef) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.PersonID == person && r.Target.Equal(target) && r.Status == models.StatusApproved {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) ListForPerson(_ context.Context, person id.PersonID) ([]*models.Request, error) {
	return s.list(DefaultListLimit, func(r *models.Request) bool { return r.PersonID == person }), nil
}

func (s *InMemory) ListInitiatedBy(_ context.Context, person id.PersonID) ([]*models.Request, error) {
	return s.list(DefaultListLimit, func(r *models.Request) bool { return r.InitiatedBy == person }), nil
}

func (s *InMemory) ListForEntity(_ context.Context, target id.EntityRef) ([]*models.Request, error) {
	return s.list(DefaultListLimit, func(r *models.Request) bool { return r.Target.Equal(target) }), nil
}

// list returns matches oldest first. A limit of 0 means no limit.
func (s *InMemory) list(limit int, match func(*models.Request) bool) []*models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Request
	for _, r := range s.requests {
		if match(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
