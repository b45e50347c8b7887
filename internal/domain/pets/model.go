package pets

import "time"

// Sex define el sexo de la mascota.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

func ValidSex(s Sex) bool {
	switch s {
	case SexMale, SexFemale, SexUnknown:
		return true
	}
	return false
}

// Pet es una mascota registrada: pertenece a un dueño y a una raza del
// catálogo (la raza fija también el tipo de animal).
// (OwnerID, Name) es único: un dueño no repite nombre.
type Pet struct {
	ID      string
	OwnerID string

	Name    string
	TypeID  string
	BreedID string
	Sex     Sex

	BirthDate *time.Time
	Notes     string

	// Las mascotas no se borran: se desactivan.
	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AgeYears calcula la edad en años cumplidos; nil sin fecha de nacimiento.
func (p Pet) AgeYears(today time.Time) *int {
	if p.BirthDate == nil {
		return nil
	}
	bd := *p.BirthDate
	years := today.Year() - bd.Year()
	if today.Month() < bd.Month() || (today.Month() == bd.Month() && today.Day() < bd.Day()) {
		years--
	}
	if years < 0 {
		years = 0
	}
	return &years
}
