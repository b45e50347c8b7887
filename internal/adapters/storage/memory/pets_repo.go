package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"vet-clinic-api/internal/domain/pets"
)

type PetsRepo struct {
	mu    sync.RWMutex
	items map[string]pets.Pet
}

func NewPetsRepo() *PetsRepo {
	return &PetsRepo{items: make(map[string]pets.Pet)}
}

var _ pets.Repository = (*PetsRepo)(nil)

func (r *PetsRepo) Create(_ context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = p
	return nil
}

func (r *PetsRepo) Update(_ context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		return ErrNotFound
	}
	r.items[p.ID] = p
	return nil
}

func (r *PetsRepo) GetByID(_ context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return pets.Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *PetsRepo) GetByOwnerAndName(_ context.Context, ownerID, name string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range r.items {
		if p.OwnerID == ownerID && strings.ToLower(p.Name) == name {
			return p, nil
		}
	}
	return pets.Pet{}, ErrNotFound
}

func (r *PetsRepo) ListByOwner(_ context.Context, ownerID string) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]pets.Pet, 0)
	for _, p := range r.items {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *PetsRepo) CountByBreed(_ context.Context, breedID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.items {
		if p.BreedID == breedID {
			n++
		}
	}
	return n, nil
}

func (r *PetsRepo) CountByType(_ context.Context, typeID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.items {
		if p.TypeID == typeID {
			n++
		}
	}
	return n, nil
}
