package users

import "context"

type Repository interface {
	Create(ctx context.Context, u User) error
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	List(ctx context.Context, filter ListFilter) ([]User, error)
}

type ListFilter struct {
	Role   Role
	Active *bool
	Query  string // busca en username, email, nombres y license number
	Limit  int
}
