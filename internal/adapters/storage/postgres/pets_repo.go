package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vet-clinic-api/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

var _ pets.Repository = (*PetsRepo)(nil)

const petColumns = `id, owner_id, name, type_id, breed_id, sex, birth_date, notes,
	active, created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	const q = `
		INSERT INTO pets (` + petColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, q,
		p.ID, p.OwnerID, p.Name, p.TypeID, p.BreedID, string(p.Sex), p.BirthDate,
		p.Notes, p.Active, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create pet: %w", err)
	}
	return nil
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	const q = `
		UPDATE pets SET
			name = $2, type_id = $3, breed_id = $4, sex = $5, birth_date = $6,
			notes = $7, active = $8, updated_at = $9
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q,
		p.ID, p.Name, p.TypeID, p.BreedID, string(p.Sex), p.BirthDate,
		p.Notes, p.Active, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: update pet: %w", err)
	}
	return checkAffected(res)
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	q := `SELECT ` + petColumns + ` FROM pets WHERE id = $1`
	return scanPet(r.db.QueryRowContext(ctx, q, id))
}

func (r *PetsRepo) GetByOwnerAndName(ctx context.Context, ownerID, name string) (pets.Pet, error) {
	q := `SELECT ` + petColumns + ` FROM pets WHERE owner_id = $1 AND LOWER(name) = LOWER($2)`
	return scanPet(r.db.QueryRowContext(ctx, q, ownerID, name))
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerID string) ([]pets.Pet, error) {
	q := `SELECT ` + petColumns + ` FROM pets WHERE owner_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pets: %w", err)
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PetsRepo) CountByBreed(ctx context.Context, breedID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pets WHERE breed_id = $1`, breedID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count pets by breed: %w", err)
	}
	return n, nil
}

func (r *PetsRepo) CountByType(ctx context.Context, typeID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pets WHERE type_id = $1`, typeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count pets by type: %w", err)
	}
	return n, nil
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var p pets.Pet
	var sex string
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.TypeID, &p.BreedID, &sex,
		&p.BirthDate, &p.Notes, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return pets.Pet{}, ErrNotFound
	}
	if err != nil {
		return pets.Pet{}, fmt.Errorf("postgres: scan pet: %w", err)
	}
	p.Sex = pets.Sex(sex)
	return p, nil
}
