package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"vet-clinic-api/internal/domain/catalog"
)

type CatalogRepo struct {
	mu     sync.RWMutex
	types  map[string]catalog.AnimalType
	breeds map[string]catalog.Breed
}

func NewCatalogRepo() *CatalogRepo {
	return &CatalogRepo{
		types:  make(map[string]catalog.AnimalType),
		breeds: make(map[string]catalog.Breed),
	}
}

var _ catalog.Repository = (*CatalogRepo)(nil)

func (r *CatalogRepo) CreateType(_ context.Context, t catalog.AnimalType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.ID] = t
	return nil
}

func (r *CatalogRepo) UpdateType(_ context.Context, t catalog.AnimalType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[t.ID]; !ok {
		return ErrNotFound
	}
	r.types[t.ID] = t
	return nil
}

func (r *CatalogRepo) DeleteType(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[id]; !ok {
		return ErrNotFound
	}
	delete(r.types, id)
	return nil
}

func (r *CatalogRepo) GetTypeByID(_ context.Context, id string) (catalog.AnimalType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[id]
	if !ok {
		return catalog.AnimalType{}, ErrNotFound
	}
	return t, nil
}

func (r *CatalogRepo) GetTypeByName(_ context.Context, name string) (catalog.AnimalType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range r.types {
		if strings.ToLower(t.Name) == name {
			return t, nil
		}
	}
	return catalog.AnimalType{}, ErrNotFound
}

func (r *CatalogRepo) ListTypes(_ context.Context, onlyActive bool) ([]catalog.AnimalType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]catalog.AnimalType, 0, len(r.types))
	for _, t := range r.types {
		if onlyActive && !t.Active {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CatalogRepo) CreateBreed(_ context.Context, b catalog.Breed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breeds[b.ID] = b
	return nil
}

func (r *CatalogRepo) UpdateBreed(_ context.Context, b catalog.Breed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.breeds[b.ID]; !ok {
		return ErrNotFound
	}
	r.breeds[b.ID] = b
	return nil
}

func (r *CatalogRepo) DeleteBreed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.breeds[id]; !ok {
		return ErrNotFound
	}
	delete(r.breeds, id)
	return nil
}

func (r *CatalogRepo) GetBreedByID(_ context.Context, id string) (catalog.Breed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.breeds[id]
	if !ok {
		return catalog.Breed{}, ErrNotFound
	}
	return b, nil
}

func (r *CatalogRepo) GetBreedByTypeAndName(_ context.Context, typeID, name string) (catalog.Breed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name = strings.ToLower(strings.TrimSpace(name))
	for _, b := range r.breeds {
		if b.TypeID == typeID && strings.ToLower(b.Name) == name {
			return b, nil
		}
	}
	return catalog.Breed{}, ErrNotFound
}

func (r *CatalogRepo) ListBreeds(_ context.Context, filter catalog.BreedFilter) ([]catalog.Breed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]catalog.Breed, 0, len(r.breeds))
	for _, b := range r.breeds {
		if filter.TypeID != "" && b.TypeID != filter.TypeID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(b.Name), q) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CatalogRepo) CountBreedsByType(_ context.Context, typeID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, b := range r.breeds {
		if b.TypeID == typeID {
			n++
		}
	}
	return n, nil
}
