package memory

import (
	"context"
	"sync"

	"tramita/internal/process/models"
	id "tramita/pkg/domain"
	"tramita/pkg/platform/sentinel"
)

// CaseStatusStore holds workflow status reference data.
type CaseStatusStore struct {
	mu    sync.RWMutex
	items map[id.CaseStatusID]*models.CaseStatus
}

func NewCaseStatusStore() *CaseStatusStore {
	return &CaseStatusStore{items: map[id.CaseStatusID]*models.CaseStatus{}}
}

// Seed loads reference statuses, replacing any same-id entries.
func (s *CaseStatusStore) Seed(statuses ...*models.CaseStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, status := range statuses {
		cp := *status
		s.items[status.ID] = &cp
	}
}

func (s *CaseStatusStore) FindByID(_ context.Context, statusID id.CaseStatusID) (*models.CaseStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.items[statusID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *status
	return &cp, nil
}

func (s *CaseStatusStore) FindByCode(_ context.Context, code string) (*models.CaseStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, status := range s.items {
		if status.Code == code {
			cp := *status
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// TemplateStore holds document template reference data.
type TemplateStore struct {
	mu    sync.RWMutex
	items map[id.TemplateID]*models.DocumentTemplate
}

func NewTemplateStore() *TemplateStore {
	return &TemplateStore{items: map[id.TemplateID]*models.DocumentTemplate{}}
}

func (s *TemplateStore) Seed(templates ...*models.DocumentTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range templates {
		cp := *t
		cp.Requirements = append([]models.DocumentRequirement{}, t.Requirements...)
		s.items[t.ID] = &cp
	}
}

func (s *TemplateStore) ListByAuthType(_ context.Context, authTypeID id.AuthorizationTypeID) ([]*models.DocumentTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.DocumentTemplate
	for _, t := range s.items {
		if t.AuthTypeID == authTypeID {
			cp := *t
			cp.Requirements = append([]models.DocumentRequirement{}, t.Requirements...)
			out = append(out, &cp)
		}
	}
	return out, nil
}

// GroupStore holds collective process records.
type GroupStore struct {
	mu    sync.RWMutex
	items map[id.GroupID]*models.Group
}

func NewGroupStore() *GroupStore {
	return &GroupStore{items: map[id.GroupID]*models.Group{}}
}

func (s *GroupStore) Seed(groups ...*models.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range groups {
		cp := *g
		s.items[g.ID] = &cp
	}
}

func (s *GroupStore) FindByID(_ context.Context, groupID id.GroupID) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.items[groupID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

// AuthTypeStore holds authorization type reference data.
type AuthTypeStore struct {
	mu    sync.RWMutex
	items map[id.AuthorizationTypeID]*models.AuthorizationType
}

func NewAuthTypeStore() *AuthTypeStore {
	return &AuthTypeStore{items: map[id.AuthorizationTypeID]*models.AuthorizationType{}}
}

func (s *AuthTypeStore) Seed(types ...*models.AuthorizationType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range types {
		cp := *t
		s.items[t.ID] = &cp
	}
}

func (s *AuthTypeStore) FindByID(_ context.Context, authTypeID id.AuthorizationTypeID) (*models.AuthorizationType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.items[authTypeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// UserStore holds the user directory slice read for notification fan-out.
type UserStore struct {
	mu    sync.RWMutex
	items map[id.UserID]*models.User
}

func NewUserStore() *UserStore {
	return &UserStore{items: map[id.UserID]*models.User{}}
}

func (s *UserStore) Seed(users ...*models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		cp := *u
		s.items[u.ID] = &cp
	}
}

func (s *UserStore) ListByCompany(_ context.Context, companyID id.CompanyID) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.User
	for _, u := range s.items {
		if u.CompanyID == companyID {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}
