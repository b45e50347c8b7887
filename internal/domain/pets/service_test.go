package pets

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type testRepo struct {
	items map[string]Pet
}

func newTestRepo() *testRepo {
	return &testRepo{items: make(map[string]Pet)}
}

var errRepoNotFound = errors.New("not found")

func (r *testRepo) Create(_ context.Context, p Pet) error {
	r.items[p.ID] = p
	return nil
}

func (r *testRepo) Update(_ context.Context, p Pet) error {
	if _, ok := r.items[p.ID]; !ok {
		return errRepoNotFound
	}
	r.items[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Pet, error) {
	p, ok := r.items[id]
	if !ok {
		return Pet{}, errRepoNotFound
	}
	return p, nil
}

func (r *testRepo) GetByOwnerAndName(_ context.Context, ownerID, name string) (Pet, error) {
	for _, p := range r.items {
		if p.OwnerID == ownerID && strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Pet{}, errRepoNotFound
}

func (r *testRepo) ListByOwner(_ context.Context, ownerID string) ([]Pet, error) {
	out := []Pet{}
	for _, p := range r.items {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *testRepo) CountByBreed(_ context.Context, breedID string) (int, error) {
	n := 0
	for _, p := range r.items {
		if p.BreedID == breedID {
			n++
		}
	}
	return n, nil
}

func (r *testRepo) CountByType(_ context.Context, typeID string) (int, error) {
	n := 0
	for _, p := range r.items {
		if p.TypeID == typeID {
			n++
		}
	}
	return n, nil
}

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestCreateDuplicateNamePerOwner(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in := CreateInput{Name: "Firulais", TypeID: "type-1", BreedID: "breed-1"}
	if _, err := svc.Create(ctx, "owner-1", in); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "owner-1", in); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	// Otro dueño puede repetir el nombre.
	if _, err := svc.Create(ctx, "owner-2", in); err != nil {
		t.Fatalf("other owner same name: %v", err)
	}
}

func TestCreateDefaultsSexUnknown(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), "owner-1", CreateInput{
		Name: "Michi", TypeID: "type-1", BreedID: "breed-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Sex != SexUnknown {
		t.Fatalf("expected unknown sex, got %s", p.Sex)
	}
}

func TestUpdateBirthDatePatch(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	bd := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	p, err := svc.Create(ctx, "owner-1", CreateInput{
		Name: "Firulais", TypeID: "type-1", BreedID: "breed-1", BirthDate: &bd,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Sin el campo no se toca.
	updated, err := svc.UpdateProfile(ctx, p.ID, UpdateInput{})
	if err != nil || updated.BirthDate == nil {
		t.Fatalf("birth date should be untouched, got %v err=%v", updated.BirthDate, err)
	}

	// Null explícito la limpia.
	updated, err = svc.UpdateProfile(ctx, p.ID, UpdateInput{BirthDate: BirthDatePatch{Present: true}})
	if err != nil || updated.BirthDate != nil {
		t.Fatalf("birth date should be cleared, got %v err=%v", updated.BirthDate, err)
	}
}

func TestDeactivateIsIdempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, "owner-1", CreateInput{
		Name: "Firulais", TypeID: "type-1", BreedID: "breed-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := svc.Deactivate(ctx, p.ID)
	if err != nil || first.Active {
		t.Fatalf("deactivate: active=%v err=%v", first.Active, err)
	}
	second, err := svc.Deactivate(ctx, p.ID)
	if err != nil || second.Active {
		t.Fatalf("second deactivate: active=%v err=%v", second.Active, err)
	}
}

func TestAgeYears(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	bd := time.Date(2020, 3, 11, 0, 0, 0, 0, time.UTC)
	p := Pet{BirthDate: &bd}
	if got := p.AgeYears(today); got == nil || *got != 5 {
		t.Fatalf("day before birthday: expected 5, got %v", got)
	}

	bd = time.Date(2020, 3, 10, 0, 0, 0, 0, time.UTC)
	if got := p.AgeYears(today); got == nil || *got != 6 {
		t.Fatalf("on birthday: expected 6, got %v", got)
	}

	var noBD Pet
	if got := noBD.AgeYears(today); got != nil {
		t.Fatalf("expected nil age without birth date, got %v", got)
	}
}
