package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayush/credential-service/internal/models"
)

var errDuplicate = errors.New("username or email taken")

// MemoryStore keeps users in process memory. Indexes on username and email
// are updated under the same lock as the records, so uniqueness holds for
// concurrent callers.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]models.User
	byUsername map[string]string
	byEmail    map[string]string
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]models.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, opError("find by username", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	u := s.byID[id]
	return &u, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, opError("find by id", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) Create(ctx context.Context, nu NewUser) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, opError("create user", err)
	}
	role, err := roleOrDefault(nu.Role)
	if err != nil {
		return nil, opError("create user", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[nu.Username]; taken {
		return nil, duplicateError("create user", errDuplicate)
	}
	if _, taken := s.byEmail[nu.Email]; taken {
		return nil, duplicateError("create user", errDuplicate)
	}

	now := s.now()
	u := models.User{
		ID:        uuid.NewString(),
		Username:  nu.Username,
		Email:     nu.Email,
		Password:  nu.Password,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[u.ID] = u
	s.byUsername[u.Username] = u.ID
	s.byEmail[u.Email] = u.ID
	return &u, nil
}

func (s *MemoryStore) UpdateByID(ctx context.Context, id string, upd UserUpdate) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, opError("update user", err)
	}
	if upd.Empty() {
		return s.FindByID(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	if upd.Username != nil && *upd.Username != u.Username {
		if _, taken := s.byUsername[*upd.Username]; taken {
			return nil, duplicateError("update user", errDuplicate)
		}
		delete(s.byUsername, u.Username)
		u.Username = *upd.Username
		s.byUsername[u.Username] = u.ID
	}
	if upd.Password != nil {
		u.Password = *upd.Password
	}
	u.UpdatedAt = s.now()
	s.byID[id] = u
	return &u, nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, opError("delete user", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byUsername, u.Username)
	delete(s.byEmail, u.Email)
	return &u, nil
}

// List returns all users, oldest first.
func (s *MemoryStore) List(ctx context.Context) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, opError("list users", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

var _ UserStore = (*MemoryStore)(nil)
