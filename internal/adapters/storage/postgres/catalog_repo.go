package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"vet-clinic-api/internal/domain/catalog"
)

type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

var _ catalog.Repository = (*CatalogRepo)(nil)

func (r *CatalogRepo) CreateType(ctx context.Context, t catalog.AnimalType) error {
	const q = `
		INSERT INTO animal_types (id, name, icon, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, q, t.ID, t.Name, t.Icon, t.Active, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create animal type: %w", err)
	}
	return nil
}

func (r *CatalogRepo) UpdateType(ctx context.Context, t catalog.AnimalType) error {
	const q = `
		UPDATE animal_types SET name = $2, icon = $3, active = $4, updated_at = $5
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, t.ID, t.Name, t.Icon, t.Active, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: update animal type: %w", err)
	}
	return checkAffected(res)
}

func (r *CatalogRepo) DeleteType(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM animal_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete animal type: %w", err)
	}
	return checkAffected(res)
}

func (r *CatalogRepo) GetTypeByID(ctx context.Context, id string) (catalog.AnimalType, error) {
	return r.getType(ctx, `id = $1`, id)
}

func (r *CatalogRepo) GetTypeByName(ctx context.Context, name string) (catalog.AnimalType, error) {
	return r.getType(ctx, `LOWER(name) = LOWER($1)`, name)
}

func (r *CatalogRepo) getType(ctx context.Context, where string, arg any) (catalog.AnimalType, error) {
	q := `SELECT id, name, icon, active, created_at, updated_at FROM animal_types WHERE ` + where
	var t catalog.AnimalType
	err := r.db.QueryRowContext(ctx, q, arg).
		Scan(&t.ID, &t.Name, &t.Icon, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.AnimalType{}, ErrNotFound
	}
	if err != nil {
		return catalog.AnimalType{}, fmt.Errorf("postgres: get animal type: %w", err)
	}
	return t, nil
}

func (r *CatalogRepo) ListTypes(ctx context.Context, onlyActive bool) ([]catalog.AnimalType, error) {
	q := `SELECT id, name, icon, active, created_at, updated_at FROM animal_types`
	if onlyActive {
		q += ` WHERE active`
	}
	q += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("postgres: list animal types: %w", err)
	}
	defer rows.Close()

	out := make([]catalog.AnimalType, 0)
	for rows.Next() {
		var t catalog.AnimalType
		if err := rows.Scan(&t.ID, &t.Name, &t.Icon, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan animal type: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) CreateBreed(ctx context.Context, b catalog.Breed) error {
	const q = `
		INSERT INTO breeds (id, type_id, name, care_notes, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, q, b.ID, b.TypeID, b.Name, b.CareNotes, b.Active, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create breed: %w", err)
	}
	return nil
}

func (r *CatalogRepo) UpdateBreed(ctx context.Context, b catalog.Breed) error {
	const q = `
		UPDATE breeds SET type_id = $2, name = $3, care_notes = $4, active = $5, updated_at = $6
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, b.ID, b.TypeID, b.Name, b.CareNotes, b.Active, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: update breed: %w", err)
	}
	return checkAffected(res)
}

func (r *CatalogRepo) DeleteBreed(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM breeds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete breed: %w", err)
	}
	return checkAffected(res)
}

func (r *CatalogRepo) GetBreedByID(ctx context.Context, id string) (catalog.Breed, error) {
	return r.getBreed(ctx, `id = $1`, id)
}

func (r *CatalogRepo) GetBreedByTypeAndName(ctx context.Context, typeID, name string) (catalog.Breed, error) {
	q := `SELECT id, type_id, name, care_notes, active, created_at, updated_at
		FROM breeds WHERE type_id = $1 AND LOWER(name) = LOWER($2)`
	var b catalog.Breed
	err := r.db.QueryRowContext(ctx, q, typeID, name).
		Scan(&b.ID, &b.TypeID, &b.Name, &b.CareNotes, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Breed{}, ErrNotFound
	}
	if err != nil {
		return catalog.Breed{}, fmt.Errorf("postgres: get breed: %w", err)
	}
	return b, nil
}

func (r *CatalogRepo) getBreed(ctx context.Context, where string, arg any) (catalog.Breed, error) {
	q := `SELECT id, type_id, name, care_notes, active, created_at, updated_at FROM breeds WHERE ` + where
	var b catalog.Breed
	err := r.db.QueryRowContext(ctx, q, arg).
		Scan(&b.ID, &b.TypeID, &b.Name, &b.CareNotes, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Breed{}, ErrNotFound
	}
	if err != nil {
		return catalog.Breed{}, fmt.Errorf("postgres: get breed: %w", err)
	}
	return b, nil
}

func (r *CatalogRepo) ListBreeds(ctx context.Context, filter catalog.BreedFilter) ([]catalog.Breed, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, type_id, name, care_notes, active, created_at, updated_at
		FROM breeds WHERE 1=1`)
	args := make([]any, 0, 2)

	if filter.TypeID != "" {
		args = append(args, filter.TypeID)
		fmt.Fprintf(&sb, " AND type_id = $%d", len(args))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		fmt.Fprintf(&sb, " AND name ILIKE $%d", len(args))
	}
	sb.WriteString(" ORDER BY name")

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list breeds: %w", err)
	}
	defer rows.Close()

	out := make([]catalog.Breed, 0)
	for rows.Next() {
		var b catalog.Breed
		if err := rows.Scan(&b.ID, &b.TypeID, &b.Name, &b.CareNotes, &b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan breed: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) CountBreedsByType(ctx context.Context, typeID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM breeds WHERE type_id = $1`, typeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count breeds: %w", err)
	}
	return n, nil
}
