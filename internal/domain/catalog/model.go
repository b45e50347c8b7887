package catalog

import "time"

// AnimalType es la especie soportada (perro, gato, ave...).
type AnimalType struct {
	ID     string
	Name   string
	Icon   string
	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Breed pertenece a exactamente un AnimalType; (TypeID, Name) es único.
type Breed struct {
	ID     string
	TypeID string
	Name   string

	// Observaciones de manejo/cuidado propias de la raza.
	CareNotes string
	Active    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
