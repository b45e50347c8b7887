package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrProductNotFound    = errors.New("product not found")
	ErrItemNotFound       = errors.New("cart item not found")
	ErrInsufficientStock  = errors.New("not enough stock for the requested quantity")
	ErrProductUnavailable = errors.New("product is not available")
)

const maxItemQuantity = 99

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

type ProductInput struct {
	Name        string
	Description string
	PriceCents  int64
	Stock       int
	Category    string
	ImageURL    string
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.PriceCents <= 0 || in.Stock < 0 {
		return Product{}, ErrInvalidInput
	}

	now := s.now()
	p := Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		PriceCents:  in.PriceCents,
		Stock:       in.Stock,
		Category:    strings.TrimSpace(in.Category),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

type ProductUpdate struct {
	// Punteros para PATCH real: nil = no tocar.
	Name        *string
	Description *string
	PriceCents  *int64
	Stock       *int
	Category    *string
	ImageURL    *string
	Active      *bool
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductUpdate) (Product, error) {
	p, err := s.repo.GetProductByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Product{}, ErrProductNotFound
	}

	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return Product{}, ErrInvalidInput
		}
		p.Name = v
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.PriceCents != nil {
		if *in.PriceCents <= 0 {
			return Product{}, ErrInvalidInput
		}
		p.PriceCents = *in.PriceCents
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return Product{}, ErrInvalidInput
		}
		p.Stock = *in.Stock
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.Active != nil {
		p.Active = *in.Active
	}

	p.UpdatedAt = s.now()
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// DeleteProduct saca el producto del catálogo. Las líneas de carrito que
// lo referencian no se tocan: sobreviven con el precio capturado al
// agregarlas.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.repo.GetProductByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return ErrProductNotFound
	}
	return s.repo.DeleteProduct(ctx, p.ID)
}

func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	p, err := s.repo.GetProductByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	return s.repo.ListProducts(ctx, filter)
}

// CartView es el carrito resuelto: líneas con su producto y totales.
type CartView struct {
	Cart       Cart
	Items      []CartItemView
	TotalCents int64
}

type CartItemView struct {
	Item    CartItem
	Product Product
}

// AddItem agrega un producto al carrito del usuario. Si el producto ya
// está, las cantidades se suman; no se pisa la línea existente.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (CartView, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || quantity <= 0 || quantity > maxItemQuantity {
		return CartView{}, ErrInvalidInput
	}

	p, err := s.repo.GetProductByID(ctx, strings.TrimSpace(productID))
	if err != nil {
		return CartView{}, ErrProductNotFound
	}
	if !p.Active {
		return CartView{}, ErrProductUnavailable
	}

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return CartView{}, err
	}

	now := s.now()
	item, err := s.repo.GetItem(ctx, cart.ID, p.ID)
	if err != nil {
		if p.Stock < quantity {
			return CartView{}, ErrInsufficientStock
		}
		item = CartItem{
			ID:         uuid.NewString(),
			CartID:     cart.ID,
			ProductID:  p.ID,
			Quantity:   quantity,
			PriceCents: p.PriceCents,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return CartView{}, err
		}
	} else {
		merged := item.Quantity + quantity
		if merged > maxItemQuantity {
			merged = maxItemQuantity
		}
		if p.Stock < merged {
			return CartView{}, ErrInsufficientStock
		}
		item.Quantity = merged
		item.UpdatedAt = now
		if err := s.repo.UpdateItem(ctx, item); err != nil {
			return CartView{}, err
		}
	}

	cart.UpdatedAt = now
	if err := s.repo.TouchCart(ctx, cart); err != nil {
		return CartView{}, err
	}
	return s.buildView(ctx, cart)
}

// SetItemQuantity fija la cantidad de una línea; cero la elimina.
func (s *Service) SetItemQuantity(ctx context.Context, userID, itemID string, quantity int) (CartView, error) {
	if quantity < 0 || quantity > maxItemQuantity {
		return CartView{}, ErrInvalidInput
	}

	cart, item, err := s.getOwnedItem(ctx, userID, itemID)
	if err != nil {
		return CartView{}, err
	}

	if quantity == 0 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return CartView{}, err
		}
	} else {
		p, err := s.repo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return CartView{}, ErrProductNotFound
		}
		if p.Stock < quantity {
			return CartView{}, ErrInsufficientStock
		}
		item.Quantity = quantity
		item.UpdatedAt = s.now()
		if err := s.repo.UpdateItem(ctx, item); err != nil {
			return CartView{}, err
		}
	}

	cart.UpdatedAt = s.now()
	if err := s.repo.TouchCart(ctx, cart); err != nil {
		return CartView{}, err
	}
	return s.buildView(ctx, cart)
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (CartView, error) {
	return s.SetItemQuantity(ctx, userID, itemID, 0)
}

func (s *Service) ClearCart(ctx context.Context, userID string) (CartView, error) {
	cart, err := s.getOrCreateCart(ctx, strings.TrimSpace(userID))
	if err != nil {
		return CartView{}, err
	}
	if err := s.repo.ClearCart(ctx, cart.ID); err != nil {
		return CartView{}, err
	}
	cart.UpdatedAt = s.now()
	if err := s.repo.TouchCart(ctx, cart); err != nil {
		return CartView{}, err
	}
	return s.buildView(ctx, cart)
}

func (s *Service) GetCart(ctx context.Context, userID string) (CartView, error) {
	cart, err := s.getOrCreateCart(ctx, strings.TrimSpace(userID))
	if err != nil {
		return CartView{}, err
	}
	return s.buildView(ctx, cart)
}

func (s *Service) getOrCreateCart(ctx context.Context, userID string) (Cart, error) {
	if userID == "" {
		return Cart{}, ErrInvalidInput
	}
	cart, err := s.repo.GetCartByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	now := s.now()
	cart = Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateCart(ctx, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

func (s *Service) getOwnedItem(ctx context.Context, userID, itemID string) (Cart, CartItem, error) {
	userID = strings.TrimSpace(userID)
	itemID = strings.TrimSpace(itemID)
	if userID == "" || itemID == "" {
		return Cart{}, CartItem{}, ErrInvalidInput
	}
	cart, err := s.repo.GetCartByUser(ctx, userID)
	if err != nil {
		return Cart{}, CartItem{}, ErrItemNotFound
	}
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil || item.CartID != cart.ID {
		return Cart{}, CartItem{}, ErrItemNotFound
	}
	return cart, item, nil
}

func (s *Service) buildView(ctx context.Context, cart Cart) (CartView, error) {
	items, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return CartView{}, err
	}

	view := CartView{Cart: cart, Items: make([]CartItemView, 0, len(items))}
	for _, it := range items {
		// Si el producto ya no existe la línea sigue valiendo con el
		// precio capturado; Product queda en cero.
		iv := CartItemView{Item: it}
		if p, err := s.repo.GetProductByID(ctx, it.ProductID); err == nil {
			iv.Product = p
		}
		view.Items = append(view.Items, iv)
		view.TotalCents += it.SubtotalCents()
	}
	return view, nil
}
