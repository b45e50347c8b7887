package catalog

import "context"

type Repository interface {
	CreateType(ctx context.Context, t AnimalType) error
	UpdateType(ctx context.Context, t AnimalType) error
	DeleteType(ctx context.Context, id string) error
	GetTypeByID(ctx context.Context, id string) (AnimalType, error)
	GetTypeByName(ctx context.Context, name string) (AnimalType, error)
	ListTypes(ctx context.Context, onlyActive bool) ([]AnimalType, error)

	CreateBreed(ctx context.Context, b Breed) error
	UpdateBreed(ctx context.Context, b Breed) error
	DeleteBreed(ctx context.Context, id string) error
	GetBreedByID(ctx context.Context, id string) (Breed, error)
	GetBreedByTypeAndName(ctx context.Context, typeID, name string) (Breed, error)
	ListBreeds(ctx context.Context, filter BreedFilter) ([]Breed, error)

	CountBreedsByType(ctx context.Context, typeID string) (int, error)
}

type BreedFilter struct {
	TypeID string
	Query  string
}
