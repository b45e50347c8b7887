package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"vet-clinic-api/internal/domain/users"
)

type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]users.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{items: make(map[string]users.User)}
}

var _ users.Repository = (*UsersRepo)(nil)

func (r *UsersRepo) Create(_ context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[u.ID] = u
	return nil
}

func (r *UsersRepo) Update(_ context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[u.ID]; !ok {
		return ErrNotFound
	}
	r.items[u.ID] = u
	return nil
}

func (r *UsersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.items[id]
	if !ok {
		return users.User{}, ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.items {
		if strings.ToLower(u.Email) == email {
			return u, nil
		}
	}
	return users.User{}, ErrNotFound
}

func (r *UsersRepo) GetByUsername(_ context.Context, username string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	username = strings.ToLower(strings.TrimSpace(username))
	for _, u := range r.items {
		if strings.ToLower(u.Username) == username {
			return u, nil
		}
	}
	return users.User{}, ErrNotFound
}

func (r *UsersRepo) List(_ context.Context, filter users.ListFilter) ([]users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]users.User, 0, len(r.items))
	for _, u := range r.items {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		if q != "" && !matchesUserQuery(u, q) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matchesUserQuery(u users.User, q string) bool {
	for _, field := range []string{u.Username, u.Email, u.FirstName, u.LastName, u.LicenseNumber} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
