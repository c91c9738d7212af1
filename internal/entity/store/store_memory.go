package store

import (
	"context"
	"sort"
	"sync"

	"clubid/internal/entity/models"
	id "clubid/pkg/domain"
)

type membershipKey struct {
	entity id.EntityRef
	person id.PersonID
}

// InMemory is the store used when no database is configured.
type InMemory struct {
	mu          sync.RWMutex
	entities    map[id.EntityRef]*models.Entity
	memberships map[membershipKey]*models.Membership
	profiles    map[id.PersonID]*models.AthleteProfile
}

func NewInMemory() *InMemory {
	return &InMemory{
		entities:    make(map[id.EntityRef]*models.Entity),
		memberships: make(map[membershipKey]*models.Membership),
		profiles:    make(map[id.PersonID]*models.AthleteProfile),
	}
}

func (s *InMemory) CreateEntity(_ context.Context, e *models.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[e.Ref]; ok {
		return ErrConflict
	}
	cp := *e
	s.entities[e.Ref] = &cp
	return nil
}

func (s *InMemory) FindEntity(_ context.Context, ref id.EntityRef) (*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[ref]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *InMemory) ListByAdmin(_ context.Context, admin id.PersonID) ([]*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Entity
	for _, e := range s.entities {
		if e.AdminID == admin {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref.String() < out[j].Ref.String() })
	return out, nil
}

func (s *InMemory) UpsertMembership(_ context.Context, m *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey{m.Entity, m.PersonID}
	if existing, ok := s.memberships[key]; ok {
		existing.Role = m.Role
		existing.UpdatedAt = m.UpdatedAt
		return nil
	}
	cp := *m
	s.memberships[key] = &cp
	return nil
}

func (s *InMemory) DeleteMembershipsOfKind(_ context.Context, person id.PersonID, kind id.EntityKind, except id.EntityRef) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.memberships {
		if key.person == person && key.entity.Kind == kind && !key.entity.Equal(except) {
			delete(s.memberships, key)
			n++
		}
	}
	return n, nil
}

func (s *InMemory) DeleteMembership(_ context.Context, ref id.EntityRef, person id.PersonID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey{ref, person}
	if _, ok := s.memberships[key]; !ok {
		return false, nil
	}
	delete(s.memberships, key)
	return true, nil
}

func (s *InMemory) ListMembers(_ context.Context, ref id.EntityRef) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Membership
	for key, m := range s.memberships {
		if key.entity == ref {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (s *InMemory) ListMemberships(_ context.Context, person id.PersonID) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Membership
	for key, m := range s.memberships {
		if key.person == person {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (s *InMemory) FindAthleteProfile(_ context.Context, person id.PersonID) (*models.AthleteProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[person]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProfile(p), nil
}

func (s *InMemory) SaveAthleteProfile(_ context.Context, p *models.AthleteProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.PersonID] = cloneProfile(p)
	return nil
}

func cloneProfile(p *models.AthleteProfile) *models.AthleteProfile {
	cp := *p
	if p.ClubID != nil {
		v := *p.ClubID
		cp.ClubID = &v
	}
	if p.SchoolID != nil {
		v := *p.SchoolID
		cp.SchoolID = &v
	}
	return &cp
}
