package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("owner already has a pet with that name")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name      string
	TypeID    string
	BreedID   string
	Sex       string
	BirthDate *time.Time
	Notes     string
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (Pet, error) {
	ownerID = strings.TrimSpace(ownerID)
	name := strings.TrimSpace(in.Name)
	typeID := strings.TrimSpace(in.TypeID)
	breedID := strings.TrimSpace(in.BreedID)

	if ownerID == "" || name == "" || typeID == "" || breedID == "" {
		return Pet{}, ErrInvalidInput
	}

	sex := Sex(strings.TrimSpace(in.Sex))
	if sex == "" {
		sex = SexUnknown
	}
	if !ValidSex(sex) {
		return Pet{}, ErrInvalidInput
	}

	// (dueño, nombre) único
	if _, err := s.repo.GetByOwnerAndName(ctx, ownerID, name); err == nil {
		return Pet{}, ErrDuplicateName
	}

	now := s.now()
	p := Pet{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		TypeID:    typeID,
		BreedID:   breedID,
		Sex:       sex,
		BirthDate: in.BirthDate,
		Notes:     strings.TrimSpace(in.Notes),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// BirthDatePatch distingue "no enviado" de "enviar null para limpiar".
type BirthDatePatch struct {
	Present bool
	Value   *time.Time
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name      *string
	TypeID    *string
	BreedID   *string
	Sex       *string
	BirthDate BirthDatePatch
	Notes     *string
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateInput) (Pet, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Pet{}, ErrNotFound
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Pet{}, ErrInvalidInput
		}
		if name != p.Name {
			if other, err := s.repo.GetByOwnerAndName(ctx, p.OwnerID, name); err == nil && other.ID != p.ID {
				return Pet{}, ErrDuplicateName
			}
			p.Name = name
		}
	}
	if in.TypeID != nil {
		v := strings.TrimSpace(*in.TypeID)
		if v == "" {
			return Pet{}, ErrInvalidInput
		}
		p.TypeID = v
	}
	if in.BreedID != nil {
		v := strings.TrimSpace(*in.BreedID)
		if v == "" {
			return Pet{}, ErrInvalidInput
		}
		p.BreedID = v
	}
	if in.Sex != nil {
		sex := Sex(strings.TrimSpace(*in.Sex))
		if !ValidSex(sex) {
			return Pet{}, ErrInvalidInput
		}
		p.Sex = sex
	}
	if in.BirthDate.Present {
		p.BirthDate = in.BirthDate.Value
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// Deactivate marca la mascota como inactiva (no se borra).
func (s *Service) Deactivate(ctx context.Context, id string) (Pet, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Pet{}, ErrNotFound
	}
	if !p.Active {
		return p, nil
	}
	p.Active = false
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrInvalidInput
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}
