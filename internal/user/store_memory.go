package user

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps unit tests fast and dependency-free. It mirrors the
// postgres store's semantics, including the uniqueness guarantees, under a
// single mutex.
type InMemoryStore struct {
	mu        sync.Mutex
	byID      map[string]User
	bySubject map[string]string
	byEmail   map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:      make(map[string]User),
		bySubject: make(map[string]string),
		byEmail:   make(map[string]string),
	}
}

func (s *InMemoryStore) Upsert(_ context.Context, params UpsertParams) (User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if id, ok := s.bySubject[params.SubjectID]; ok {
		u := s.byID[id]
		if params.Email != "" {
			if owner, taken := s.byEmail[normalize(params.Email)]; taken && owner != id {
				return User{}, false, ErrEmailTaken
			}
		}
		oldEmail := normalize(u.Email)
		applyProfile(&u, params)
		u.UpdatedAt = now
		u.LastLoginAt = now
		s.byID[id] = u
		if newEmail := normalize(u.Email); newEmail != oldEmail {
			delete(s.byEmail, oldEmail)
			s.byEmail[newEmail] = id
		}
		return u, false, nil
	}

	if _, taken := s.byEmail[normalize(params.Email)]; taken {
		return User{}, false, ErrEmailTaken
	}

	u := User{
		ID:          uuid.NewString(),
		SubjectID:   params.SubjectID,
		Email:       params.Email,
		FirstName:   params.FirstName,
		LastName:    params.LastName,
		DisplayName: params.DisplayName,
		AvatarURL:   params.AvatarURL,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLoginAt: now,
	}
	s.byID[u.ID] = u
	s.bySubject[u.SubjectID] = u.ID
	s.byEmail[normalize(u.Email)] = u.ID
	return u, true, nil
}

func (s *InMemoryStore) Create(_ context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[normalize(u.Email)]; taken {
		return User{}, ErrEmailTaken
	}
	if _, taken := s.bySubject[u.SubjectID]; taken {
		return User{}, ErrEmailTaken
	}

	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	s.byID[u.ID] = u
	s.bySubject[u.SubjectID] = u.ID
	s.byEmail[normalize(u.Email)] = u.ID
	return u, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return User{}, ErrNotFound
}

func (s *InMemoryStore) FindBySubject(_ context.Context, subjectID string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.bySubject[subjectID]; ok {
		return s.byID[id], nil
	}
	return User{}, ErrNotFound
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byEmail[normalize(email)]; ok {
		return s.byID[id], nil
	}
	return User{}, ErrNotFound
}

// applyProfile refreshes provider-supplied fields, keeping existing values
// when the provider sends nothing. Repeated calls with identical input are
// a no-op apart from timestamps.
func applyProfile(u *User, params UpsertParams) {
	if params.Email != "" {
		u.Email = params.Email
	}
	if params.DisplayName != "" && params.DisplayName != u.DisplayName {
		u.DisplayName = params.DisplayName
		u.FirstName = params.FirstName
		u.LastName = params.LastName
	}
	if params.AvatarURL != "" {
		u.AvatarURL = params.AvatarURL
	}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
