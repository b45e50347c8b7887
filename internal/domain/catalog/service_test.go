package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type testRepo struct {
	types  map[string]AnimalType
	breeds map[string]Breed
}

func newTestRepo() *testRepo {
	return &testRepo{
		types:  make(map[string]AnimalType),
		breeds: make(map[string]Breed),
	}
}

var errRepoNotFound = errors.New("not found")

func (r *testRepo) CreateType(_ context.Context, t AnimalType) error {
	r.types[t.ID] = t
	return nil
}

func (r *testRepo) UpdateType(_ context.Context, t AnimalType) error {
	if _, ok := r.types[t.ID]; !ok {
		return errRepoNotFound
	}
	r.types[t.ID] = t
	return nil
}

func (r *testRepo) DeleteType(_ context.Context, id string) error {
	if _, ok := r.types[id]; !ok {
		return errRepoNotFound
	}
	delete(r.types, id)
	return nil
}

func (r *testRepo) GetTypeByID(_ context.Context, id string) (AnimalType, error) {
	t, ok := r.types[id]
	if !ok {
		return AnimalType{}, errRepoNotFound
	}
	return t, nil
}

func (r *testRepo) GetTypeByName(_ context.Context, name string) (AnimalType, error) {
	for _, t := range r.types {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return AnimalType{}, errRepoNotFound
}

func (r *testRepo) ListTypes(_ context.Context, onlyActive bool) ([]AnimalType, error) {
	out := []AnimalType{}
	for _, t := range r.types {
		if onlyActive && !t.Active {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *testRepo) CreateBreed(_ context.Context, b Breed) error {
	r.breeds[b.ID] = b
	return nil
}

func (r *testRepo) UpdateBreed(_ context.Context, b Breed) error {
	if _, ok := r.breeds[b.ID]; !ok {
		return errRepoNotFound
	}
	r.breeds[b.ID] = b
	return nil
}

func (r *testRepo) DeleteBreed(_ context.Context, id string) error {
	if _, ok := r.breeds[id]; !ok {
		return errRepoNotFound
	}
	delete(r.breeds, id)
	return nil
}

func (r *testRepo) GetBreedByID(_ context.Context, id string) (Breed, error) {
	b, ok := r.breeds[id]
	if !ok {
		return Breed{}, errRepoNotFound
	}
	return b, nil
}

func (r *testRepo) GetBreedByTypeAndName(_ context.Context, typeID, name string) (Breed, error) {
	for _, b := range r.breeds {
		if b.TypeID == typeID && strings.EqualFold(b.Name, name) {
			return b, nil
		}
	}
	return Breed{}, errRepoNotFound
}

func (r *testRepo) ListBreeds(_ context.Context, filter BreedFilter) ([]Breed, error) {
	out := []Breed{}
	for _, b := range r.breeds {
		if filter.TypeID != "" && b.TypeID != filter.TypeID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *testRepo) CountBreedsByType(_ context.Context, typeID string) (int, error) {
	n := 0
	for _, b := range r.breeds {
		if b.TypeID == typeID {
			n++
		}
	}
	return n, nil
}

type fixedPetCounter struct {
	byBreed int
	byType  int
}

func (c fixedPetCounter) CountByBreed(_ context.Context, _ string) (int, error) {
	return c.byBreed, nil
}

func (c fixedPetCounter) CountByType(_ context.Context, _ string) (int, error) {
	return c.byType, nil
}

func newTestService(pets PetCounter) (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo, pets)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestCreateTypeDuplicateName(t *testing.T) {
	svc, _ := newTestService(fixedPetCounter{})
	ctx := context.Background()

	if _, err := svc.CreateType(ctx, TypeInput{Name: "Dog"}); err != nil {
		t.Fatalf("create type: %v", err)
	}
	if _, err := svc.CreateType(ctx, TypeInput{Name: "dog"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestBreedUniquePerType(t *testing.T) {
	svc, _ := newTestService(fixedPetCounter{})
	ctx := context.Background()

	dog, _ := svc.CreateType(ctx, TypeInput{Name: "Dog"})
	cat, _ := svc.CreateType(ctx, TypeInput{Name: "Cat"})

	if _, err := svc.CreateBreed(ctx, BreedInput{TypeID: dog.ID, Name: "Siames"}); err != nil {
		t.Fatalf("create breed: %v", err)
	}
	// Mismo nombre bajo otro tipo sí vale.
	if _, err := svc.CreateBreed(ctx, BreedInput{TypeID: cat.ID, Name: "Siames"}); err != nil {
		t.Fatalf("same name under other type: %v", err)
	}
	if _, err := svc.CreateBreed(ctx, BreedInput{TypeID: dog.ID, Name: "siames"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestDeleteBreedWithPets(t *testing.T) {
	svc, repo := newTestService(fixedPetCounter{byBreed: 2})
	ctx := context.Background()

	dog, _ := svc.CreateType(ctx, TypeInput{Name: "Dog"})
	b, err := svc.CreateBreed(ctx, BreedInput{TypeID: dog.ID, Name: "Beagle"})
	if err != nil {
		t.Fatalf("create breed: %v", err)
	}

	err = svc.DeleteBreed(ctx, b.ID)
	var inUse *InUseError
	if !errors.As(err, &inUse) {
		t.Fatalf("expected InUseError, got %v", err)
	}
	if inUse.Count != 2 {
		t.Fatalf("expected count 2, got %d", inUse.Count)
	}
	if _, ok := repo.breeds[b.ID]; !ok {
		t.Fatalf("breed should not have been deleted")
	}
}

func TestDeleteTypeCountsBreedsAndPets(t *testing.T) {
	svc, repo := newTestService(fixedPetCounter{byType: 1})
	ctx := context.Background()

	dog, _ := svc.CreateType(ctx, TypeInput{Name: "Dog"})
	if _, err := svc.CreateBreed(ctx, BreedInput{TypeID: dog.ID, Name: "Beagle"}); err != nil {
		t.Fatalf("create breed: %v", err)
	}

	err := svc.DeleteType(ctx, dog.ID)
	var inUse *InUseError
	if !errors.As(err, &inUse) {
		t.Fatalf("expected InUseError, got %v", err)
	}
	if inUse.Count != 2 {
		t.Fatalf("expected 1 breed + 1 pet = 2, got %d", inUse.Count)
	}
	if _, ok := repo.types[dog.ID]; !ok {
		t.Fatalf("type should not have been deleted")
	}
}

func TestDeleteTypeWithoutDependents(t *testing.T) {
	svc, repo := newTestService(fixedPetCounter{})
	ctx := context.Background()

	bird, _ := svc.CreateType(ctx, TypeInput{Name: "Bird"})
	if err := svc.DeleteType(ctx, bird.ID); err != nil {
		t.Fatalf("delete type: %v", err)
	}
	if _, ok := repo.types[bird.ID]; ok {
		t.Fatalf("type should have been deleted")
	}
}
