package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"vet-clinic-api/internal/domain/store"
)

type StoreRepo struct {
	mu         sync.RWMutex
	products   map[string]store.Product
	carts      map[string]store.Cart // por cart ID
	cartByUser map[string]string
	items      map[string]store.CartItem
}

func NewStoreRepo() *StoreRepo {
	return &StoreRepo{
		products:   make(map[string]store.Product),
		carts:      make(map[string]store.Cart),
		cartByUser: make(map[string]string),
		items:      make(map[string]store.CartItem),
	}
}

var _ store.Repository = (*StoreRepo)(nil)

func (r *StoreRepo) CreateProduct(_ context.Context, p store.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return nil
}

func (r *StoreRepo) UpdateProduct(_ context.Context, p store.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return ErrNotFound
	}
	r.products[p.ID] = p
	return nil
}

func (r *StoreRepo) DeleteProduct(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *StoreRepo) GetProductByID(_ context.Context, id string) (store.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return store.Product{}, ErrNotFound
	}
	return p, nil
}

func (r *StoreRepo) ListProducts(_ context.Context, filter store.ProductFilter) ([]store.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]store.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.OnlyActive && !p.Active {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(p.Category, filter.Category) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *StoreRepo) GetCartByUser(_ context.Context, userID string) (store.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.cartByUser[userID]
	if !ok {
		return store.Cart{}, ErrNotFound
	}
	return r.carts[id], nil
}

func (r *StoreRepo) CreateCart(_ context.Context, c store.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[c.ID] = c
	r.cartByUser[c.UserID] = c.ID
	return nil
}

func (r *StoreRepo) TouchCart(_ context.Context, c store.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.carts[c.ID]; !ok {
		return ErrNotFound
	}
	r.carts[c.ID] = c
	return nil
}

func (r *StoreRepo) GetItem(_ context.Context, cartID, productID string) (store.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.items {
		if it.CartID == cartID && it.ProductID == productID {
			return it, nil
		}
	}
	return store.CartItem{}, ErrNotFound
}

func (r *StoreRepo) GetItemByID(_ context.Context, id string) (store.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return store.CartItem{}, ErrNotFound
	}
	return it, nil
}

func (r *StoreRepo) CreateItem(_ context.Context, i store.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[i.ID] = i
	return nil
}

func (r *StoreRepo) UpdateItem(_ context.Context, i store.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[i.ID]; !ok {
		return ErrNotFound
	}
	r.items[i.ID] = i
	return nil
}

func (r *StoreRepo) DeleteItem(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *StoreRepo) ListItems(_ context.Context, cartID string) ([]store.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]store.CartItem, 0)
	for _, it := range r.items {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *StoreRepo) ClearCart(_ context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, it := range r.items {
		if it.CartID == cartID {
			delete(r.items, id)
		}
	}
	return nil
}
