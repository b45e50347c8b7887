package auth

// Claims representa la identidad extraída del token de sesión.
// Role viaja dentro del token para aplicar gates por rol sin ir a la DB
// en cada request; la verdad definitiva sigue siendo el registro de usuario.
type Claims struct {
	UserID string
	Email  string
	Role   string
}
