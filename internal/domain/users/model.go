package users

import "time"

// Role define los tipos de usuario del sistema.
// @Enum admin, client, staff, veterinarian
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleClient       Role = "client"
	RoleStaff        Role = "staff"
	RoleVeterinarian Role = "veterinarian"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleClient, RoleStaff, RoleVeterinarian:
		return true
	}
	return false
}

// User es una sola entidad con campos opcionales por rol: los campos de
// veterinario (LicenseNumber, Specialty) quedan vacíos para el resto.
// PasswordHash vacío significa cuenta creada vía OAuth que todavía no
// definió contraseña local.
type User struct {
	ID string

	Username string
	Email    string

	FirstName string
	LastName  string

	Role  Role
	Phone string

	// Solo veterinarios
	LicenseNumber string
	Specialty     string

	PasswordHash string
	Active       bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword reporta si la cuenta tiene contraseña local usable.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

func (u User) IsVeterinarian() bool {
	return u.Role == RoleVeterinarian
}
