package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"vet-clinic-api/internal/domain/store"
)

type StoreRepo struct {
	db *sql.DB
}

func NewStoreRepo(db *sql.DB) *StoreRepo {
	return &StoreRepo{db: db}
}

var _ store.Repository = (*StoreRepo)(nil)

const productColumns = `id, name, description, price_cents, stock, category, image_url,
	active, created_at, updated_at`

const cartItemColumns = `id, cart_id, product_id, quantity, price_cents, created_at, updated_at`

func (r *StoreRepo) CreateProduct(ctx context.Context, p store.Product) error {
	const q = `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, q,
		p.ID, p.Name, p.Description, p.PriceCents, p.Stock, p.Category, p.ImageURL,
		p.Active, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create product: %w", err)
	}
	return nil
}

func (r *StoreRepo) UpdateProduct(ctx context.Context, p store.Product) error {
	const q = `
		UPDATE products SET
			name = $2, description = $3, price_cents = $4, stock = $5, category = $6,
			image_url = $7, active = $8, updated_at = $9
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q,
		p.ID, p.Name, p.Description, p.PriceCents, p.Stock, p.Category,
		p.ImageURL, p.Active, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: update product: %w", err)
	}
	return checkAffected(res)
}

func (r *StoreRepo) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete product: %w", err)
	}
	return checkAffected(res)
}

func (r *StoreRepo) GetProductByID(ctx context.Context, id string) (store.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(r.db.QueryRowContext(ctx, q, id))
}

func (r *StoreRepo) ListProducts(ctx context.Context, filter store.ProductFilter) ([]store.Product, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + productColumns + ` FROM products WHERE 1=1`)
	args := make([]any, 0, 3)

	if filter.OnlyActive {
		sb.WriteString(" AND active")
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		fmt.Fprintf(&sb, " AND LOWER(category) = LOWER($%d)", len(args))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		fmt.Fprintf(&sb, " AND (name ILIKE $%d OR description ILIKE $%d)", n, n)
	}
	sb.WriteString(" ORDER BY name")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	defer rows.Close()

	out := make([]store.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *StoreRepo) GetCartByUser(ctx context.Context, userID string) (store.Cart, error) {
	const q = `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`
	var c store.Cart
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Cart{}, ErrNotFound
	}
	if err != nil {
		return store.Cart{}, fmt.Errorf("postgres: get cart: %w", err)
	}
	return c, nil
}

func (r *StoreRepo) CreateCart(ctx context.Context, c store.Cart) error {
	const q = `INSERT INTO carts (id, user_id, created_at, updated_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, q, c.ID, c.UserID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create cart: %w", err)
	}
	return nil
}

func (r *StoreRepo) TouchCart(ctx context.Context, c store.Cart) error {
	res, err := r.db.ExecContext(ctx, `UPDATE carts SET updated_at = $2 WHERE id = $1`, c.ID, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: touch cart: %w", err)
	}
	return checkAffected(res)
}

func (r *StoreRepo) GetItem(ctx context.Context, cartID, productID string) (store.CartItem, error) {
	q := `SELECT ` + cartItemColumns + ` FROM cart_items WHERE cart_id = $1 AND product_id = $2`
	return scanCartItem(r.db.QueryRowContext(ctx, q, cartID, productID))
}

func (r *StoreRepo) GetItemByID(ctx context.Context, id string) (store.CartItem, error) {
	q := `SELECT ` + cartItemColumns + ` FROM cart_items WHERE id = $1`
	return scanCartItem(r.db.QueryRowContext(ctx, q, id))
}

func (r *StoreRepo) CreateItem(ctx context.Context, i store.CartItem) error {
	const q = `
		INSERT INTO cart_items (` + cartItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, q,
		i.ID, i.CartID, i.ProductID, i.Quantity, i.PriceCents, i.CreatedAt, i.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create cart item: %w", err)
	}
	return nil
}

func (r *StoreRepo) UpdateItem(ctx context.Context, i store.CartItem) error {
	const q = `UPDATE cart_items SET quantity = $2, price_cents = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, i.ID, i.Quantity, i.PriceCents, i.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: update cart item: %w", err)
	}
	return checkAffected(res)
}

func (r *StoreRepo) DeleteItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete cart item: %w", err)
	}
	return checkAffected(res)
}

func (r *StoreRepo) ListItems(ctx context.Context, cartID string) ([]store.CartItem, error) {
	q := `SELECT ` + cartItemColumns + ` FROM cart_items WHERE cart_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, cartID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list cart items: %w", err)
	}
	defer rows.Close()

	out := make([]store.CartItem, 0)
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *StoreRepo) ClearCart(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("postgres: clear cart: %w", err)
	}
	return nil
}

func scanProduct(row rowScanner) (store.Product, error) {
	var p store.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Stock,
		&p.Category, &p.ImageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Product{}, ErrNotFound
	}
	if err != nil {
		return store.Product{}, fmt.Errorf("postgres: scan product: %w", err)
	}
	return p, nil
}

func scanCartItem(row rowScanner) (store.CartItem, error) {
	var i store.CartItem
	err := row.Scan(&i.ID, &i.CartID, &i.ProductID, &i.Quantity, &i.PriceCents,
		&i.CreatedAt, &i.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.CartItem{}, ErrNotFound
	}
	if err != nil {
		return store.CartItem{}, fmt.Errorf("postgres: scan cart item: %w", err)
	}
	return i, nil
}
