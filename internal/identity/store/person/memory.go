package person

import (
	"context"
	"sync"

	"clubid/internal/identity/models"
	id "clubid/pkg/domain"
)

type codeKey struct {
	role models.Role
	code models.IdentityCode
}

// InMemoryStore guards people with a RWMutex and indexes codes per role so the
// uniqueness rule matches the Postgres index.
type InMemoryStore struct {
	mu      sync.RWMutex
	persons map[id.PersonID]*models.Person
	codes   map[codeKey]id.PersonID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		persons: make(map[id.PersonID]*models.Person),
		codes:   make(map[codeKey]id.PersonID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[p.ID]; ok {
		return ErrConflict
	}
	if err := s.checkCodes(p); err != nil {
		return err
	}
	s.put(p)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, personID id.PersonID) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.persons[personID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// FindByIDForUpdate is FindByID; serialization comes from the tx runner's lock key.
func (s *InMemoryStore) FindByIDForUpdate(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	return s.FindByID(ctx, personID)
}

func (s *InMemoryStore) Save(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.persons[p.ID]
	if !ok {
		return ErrNotFound
	}
	if err := s.checkCodes(p); err != nil {
		return err
	}
	for r, g := range old.Roles {
		delete(s.codes, codeKey{r, g.Code})
	}
	s.put(p)
	return nil
}

func (s *InMemoryStore) checkCodes(p *models.Person) error {
	for r, g := range p.Roles {
		if holder, taken := s.codes[codeKey{r, g.Code}]; taken && holder != p.ID {
			return ErrConflict
		}
	}
	return nil
}

func (s *InMemoryStore) put(p *models.Person) {
	c := p.Clone()
	s.persons[p.ID] = c
	for r, g := range c.Roles {
		s.codes[codeKey{r, g.Code}] = p.ID
	}
}
