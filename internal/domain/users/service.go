package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrEmailTaken    = errors.New("email already in use")
	ErrUsernameTaken = errors.New("username already in use")
	ErrSelfDisable   = errors.New("cannot deactivate own account")
)

// InUseError bloquea el borrado de un veterinario con consultas vigentes.
// Lleva la cantidad de dependientes para el mensaje al usuario.
type InUseError struct {
	Count int
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("veterinarian has %d open appointment(s)", e.Count)
}

// AppointmentCounter cuenta consultas que referencian a un veterinario y
// no están canceladas ni marcadas como falta. Lo implementa el módulo de
// consultas; acá solo importa el contrato.
type AppointmentCounter interface {
	CountOpenByVet(ctx context.Context, vetID string) (int, error)
}

type Service struct {
	repo  Repository
	appts AppointmentCounter
	now   func() time.Time
}

func NewService(repo Repository, appts AppointmentCounter) *Service {
	return &Service{
		repo:  repo,
		appts: appts,
		now:   time.Now,
	}
}

type CreateInput struct {
	Username      string
	Email         string
	FirstName     string
	LastName      string
	Role          Role
	Phone         string
	LicenseNumber string
	Specialty     string
	PasswordHash  string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if username == "" || email == "" {
		return User{}, ErrInvalidInput
	}
	if !strings.Contains(email, "@") {
		return User{}, ErrInvalidInput
	}

	role := in.Role
	if role == "" {
		role = RoleClient
	}
	if !ValidRole(role) {
		return User{}, ErrInvalidInput
	}

	// Veterinario sin matrícula no entra al sistema.
	if role == RoleVeterinarian && strings.TrimSpace(in.LicenseNumber) == "" {
		return User{}, ErrInvalidInput
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return User{}, ErrUsernameTaken
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	}

	now := s.now()
	u := User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Role:          role,
		Phone:         strings.TrimSpace(in.Phone),
		LicenseNumber: strings.TrimSpace(in.LicenseNumber),
		Specialty:     strings.TrimSpace(in.Specialty),
		PasswordHash:  in.PasswordHash,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Username      *string
	Email         *string
	FirstName     *string
	LastName      *string
	Role          *Role
	Phone         *string
	LicenseNumber *string
	Specialty     *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrInvalidInput
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, ErrNotFound
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return User{}, ErrInvalidInput
		}
		if username != u.Username {
			if other, err := s.repo.GetByUsername(ctx, username); err == nil && other.ID != u.ID {
				return User{}, ErrUsernameTaken
			}
			u.Username = username
		}
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" || !strings.Contains(email, "@") {
			return User{}, ErrInvalidInput
		}
		if email != u.Email {
			if other, err := s.repo.GetByEmail(ctx, email); err == nil && other.ID != u.ID {
				return User{}, ErrEmailTaken
			}
			u.Email = email
		}
	}
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Role != nil {
		if !ValidRole(*in.Role) {
			return User{}, ErrInvalidInput
		}
		u.Role = *in.Role
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.LicenseNumber != nil {
		u.LicenseNumber = strings.TrimSpace(*in.LicenseNumber)
	}
	if in.Specialty != nil {
		u.Specialty = strings.TrimSpace(*in.Specialty)
	}

	if u.Role == RoleVeterinarian && u.LicenseNumber == "" {
		return User{}, ErrInvalidInput
	}

	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// ToggleActive activa/desactiva una cuenta. Un usuario no puede
// desactivarse a sí mismo.
func (s *Service) ToggleActive(ctx context.Context, id, actorID string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrInvalidInput
	}
	if id == strings.TrimSpace(actorID) {
		return User{}, ErrSelfDisable
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, ErrNotFound
	}

	u.Active = !u.Active
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Delete borra la cuenta. Para veterinarios aplica el guard de integridad:
// si existen consultas no canceladas que lo referencian, no se borra y se
// devuelve InUseError con la cantidad bloqueante.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}

	if u.IsVeterinarian() && s.appts != nil {
		n, err := s.appts.CountOpenByVet(ctx, u.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return &InUseError{Count: n}
		}
	}

	return s.repo.Delete(ctx, u.ID)
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrInvalidInput
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return User{}, ErrInvalidInput
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, ErrInvalidInput
	}
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return User{}, ErrNotFound
	}
	return u, nil
}

// SetPasswordHash reemplaza el hash de contraseña. Con esto una cuenta
// creada vía OAuth deja de ser "sin contraseña".
func (s *Service) SetPasswordHash(ctx context.Context, id, hash string) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now()
	return s.repo.Update(ctx, u)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]User, error) {
	return s.repo.List(ctx, filter)
}

// IsVeterinarian verifica rol para los cross-checks de otros módulos
// (p.ej. agendar una consulta exige un usuario con rol veterinario activo).
func (s *Service) IsVeterinarian(ctx context.Context, id string) (bool, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return u.Active && u.IsVeterinarian(), nil
}
