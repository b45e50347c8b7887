package store

import "context"

type Repository interface {
	CreateProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id string) error
	GetProductByID(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)

	GetCartByUser(ctx context.Context, userID string) (Cart, error)
	CreateCart(ctx context.Context, c Cart) error
	TouchCart(ctx context.Context, c Cart) error

	GetItem(ctx context.Context, cartID, productID string) (CartItem, error)
	GetItemByID(ctx context.Context, id string) (CartItem, error)
	CreateItem(ctx context.Context, i CartItem) error
	UpdateItem(ctx context.Context, i CartItem) error
	DeleteItem(ctx context.Context, id string) error
	ListItems(ctx context.Context, cartID string) ([]CartItem, error)
	ClearCart(ctx context.Context, cartID string) error
}

type ProductFilter struct {
	Category   string
	Query      string
	OnlyActive bool
	Limit      int
}
