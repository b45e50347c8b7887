package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"vet-clinic-api/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

var _ users.Repository = (*UsersRepo)(nil)

const userColumns = `id, username, email, first_name, last_name, role, phone,
	license_number, specialty, password_hash, active, created_at, updated_at`

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	const q = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.ExecContext(ctx, q,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, string(u.Role), u.Phone,
		u.LicenseNumber, u.Specialty, u.PasswordHash, u.Active, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create user: %w", err)
	}
	return nil
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	const q = `
		UPDATE users SET
			username = $2, email = $3, first_name = $4, last_name = $5, role = $6,
			phone = $7, license_number = $8, specialty = $9, password_hash = $10,
			active = $11, updated_at = $12
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, string(u.Role),
		u.Phone, u.LicenseNumber, u.Specialty, u.PasswordHash, u.Active, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: update user: %w", err)
	}
	return checkAffected(res)
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete user: %w", err)
	}
	return checkAffected(res)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	return r.getBy(ctx, `id = $1`, id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	return r.getBy(ctx, `LOWER(email) = LOWER($1)`, email)
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	return r.getBy(ctx, `LOWER(username) = LOWER($1)`, username)
}

func (r *UsersRepo) getBy(ctx context.Context, where string, arg any) (users.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	row := r.db.QueryRowContext(ctx, q, arg)
	return scanUser(row)
}

func (r *UsersRepo) List(ctx context.Context, filter users.ListFilter) ([]users.User, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + userColumns + ` FROM users WHERE 1=1`)
	args := make([]any, 0, 4)

	if filter.Role != "" {
		args = append(args, string(filter.Role))
		fmt.Fprintf(&sb, " AND role = $%d", len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		fmt.Fprintf(&sb, " AND active = $%d", len(args))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		fmt.Fprintf(&sb, ` AND (username ILIKE $%d OR email ILIKE $%d OR first_name ILIKE $%d
			OR last_name ILIKE $%d OR license_number ILIKE $%d)`, n, n, n, n, n)
	}

	sb.WriteString(" ORDER BY username")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list users: %w", err)
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (users.User, error) {
	var u users.User
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &role,
		&u.Phone, &u.LicenseNumber, &u.Specialty, &u.PasswordHash, &u.Active,
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, ErrNotFound
	}
	if err != nil {
		return users.User{}, fmt.Errorf("postgres: scan user: %w", err)
	}
	u.Role = users.Role(role)
	return u, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
