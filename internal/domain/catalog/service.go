package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("already exists")
)

// InUseError rechaza el borrado de un tipo/raza con registros dependientes.
// El conteo viaja en el mensaje; los registros quedan intactos.
type InUseError struct {
	Resource string
	Count    int
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("cannot delete %s: %d dependent record(s)", e.Resource, e.Count)
}

// PetCounter cuenta mascotas que referencian una raza o un tipo.
// Lo implementa el repositorio de pets.
type PetCounter interface {
	CountByBreed(ctx context.Context, breedID string) (int, error)
	CountByType(ctx context.Context, typeID string) (int, error)
}

type Service struct {
	repo Repository
	pets PetCounter
	now  func() time.Time
}

func NewService(repo Repository, pets PetCounter) *Service {
	return &Service{
		repo: repo,
		pets: pets,
		now:  time.Now,
	}
}

type TypeInput struct {
	Name   string
	Icon   string
	Active *bool
}

func (s *Service) CreateType(ctx context.Context, in TypeInput) (AnimalType, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return AnimalType{}, ErrInvalidInput
	}
	if _, err := s.repo.GetTypeByName(ctx, name); err == nil {
		return AnimalType{}, ErrDuplicate
	}

	now := s.now()
	t := AnimalType{
		ID:        uuid.NewString(),
		Name:      name,
		Icon:      strings.TrimSpace(in.Icon),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Active != nil {
		t.Active = *in.Active
	}

	if err := s.repo.CreateType(ctx, t); err != nil {
		return AnimalType{}, err
	}
	return t, nil
}

func (s *Service) UpdateType(ctx context.Context, id string, in TypeInput) (AnimalType, error) {
	t, err := s.repo.GetTypeByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return AnimalType{}, ErrNotFound
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return AnimalType{}, ErrInvalidInput
	}
	if name != t.Name {
		if other, err := s.repo.GetTypeByName(ctx, name); err == nil && other.ID != t.ID {
			return AnimalType{}, ErrDuplicate
		}
	}

	t.Name = name
	t.Icon = strings.TrimSpace(in.Icon)
	if in.Active != nil {
		t.Active = *in.Active
	}
	t.UpdatedAt = s.now()

	if err := s.repo.UpdateType(ctx, t); err != nil {
		return AnimalType{}, err
	}
	return t, nil
}

// DeleteType aplica el guard de integridad: razas o mascotas dependientes
// bloquean el borrado con un error descriptivo.
func (s *Service) DeleteType(ctx context.Context, id string) error {
	t, err := s.repo.GetTypeByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return ErrNotFound
	}

	breeds, err := s.repo.CountBreedsByType(ctx, t.ID)
	if err != nil {
		return err
	}
	petCount := 0
	if s.pets != nil {
		petCount, err = s.pets.CountByType(ctx, t.ID)
		if err != nil {
			return err
		}
	}
	if n := breeds + petCount; n > 0 {
		return &InUseError{Resource: "animal type", Count: n}
	}

	return s.repo.DeleteType(ctx, t.ID)
}

func (s *Service) GetType(ctx context.Context, id string) (AnimalType, error) {
	t, err := s.repo.GetTypeByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return AnimalType{}, ErrNotFound
	}
	return t, nil
}

func (s *Service) ListTypes(ctx context.Context, onlyActive bool) ([]AnimalType, error) {
	return s.repo.ListTypes(ctx, onlyActive)
}

type BreedInput struct {
	TypeID    string
	Name      string
	CareNotes string
	Active    *bool
}

func (s *Service) CreateBreed(ctx context.Context, in BreedInput) (Breed, error) {
	typeID := strings.TrimSpace(in.TypeID)
	name := strings.TrimSpace(in.Name)
	if typeID == "" || name == "" {
		return Breed{}, ErrInvalidInput
	}

	if _, err := s.repo.GetTypeByID(ctx, typeID); err != nil {
		return Breed{}, ErrNotFound
	}
	// (tipo, nombre) único
	if _, err := s.repo.GetBreedByTypeAndName(ctx, typeID, name); err == nil {
		return Breed{}, ErrDuplicate
	}

	now := s.now()
	b := Breed{
		ID:        uuid.NewString(),
		TypeID:    typeID,
		Name:      name,
		CareNotes: strings.TrimSpace(in.CareNotes),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Active != nil {
		b.Active = *in.Active
	}

	if err := s.repo.CreateBreed(ctx, b); err != nil {
		return Breed{}, err
	}
	return b, nil
}

func (s *Service) UpdateBreed(ctx context.Context, id string, in BreedInput) (Breed, error) {
	b, err := s.repo.GetBreedByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Breed{}, ErrNotFound
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Breed{}, ErrInvalidInput
	}

	typeID := b.TypeID
	if v := strings.TrimSpace(in.TypeID); v != "" {
		if _, err := s.repo.GetTypeByID(ctx, v); err != nil {
			return Breed{}, ErrNotFound
		}
		typeID = v
	}

	if name != b.Name || typeID != b.TypeID {
		if other, err := s.repo.GetBreedByTypeAndName(ctx, typeID, name); err == nil && other.ID != b.ID {
			return Breed{}, ErrDuplicate
		}
	}

	b.TypeID = typeID
	b.Name = name
	b.CareNotes = strings.TrimSpace(in.CareNotes)
	if in.Active != nil {
		b.Active = *in.Active
	}
	b.UpdatedAt = s.now()

	if err := s.repo.UpdateBreed(ctx, b); err != nil {
		return Breed{}, err
	}
	return b, nil
}

// DeleteBreed rechaza el borrado cuando existen mascotas de la raza.
func (s *Service) DeleteBreed(ctx context.Context, id string) error {
	b, err := s.repo.GetBreedByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return ErrNotFound
	}

	if s.pets != nil {
		n, err := s.pets.CountByBreed(ctx, b.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return &InUseError{Resource: "breed", Count: n}
		}
	}

	return s.repo.DeleteBreed(ctx, b.ID)
}

func (s *Service) GetBreed(ctx context.Context, id string) (Breed, error) {
	b, err := s.repo.GetBreedByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Breed{}, ErrNotFound
	}
	return b, nil
}

func (s *Service) ListBreeds(ctx context.Context, filter BreedFilter) ([]Breed, error) {
	return s.repo.ListBreeds(ctx, filter)
}
