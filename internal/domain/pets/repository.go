package pets

import "context"

type Repository interface {
	Create(ctx context.Context, p Pet) error
	Update(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	GetByOwnerAndName(ctx context.Context, ownerID, name string) (Pet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Pet, error)

	// Conteos para los guards de borrado del catálogo.
	CountByBreed(ctx context.Context, breedID string) (int, error)
	CountByType(ctx context.Context, typeID string) (int, error)
}
