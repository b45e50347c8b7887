package auth

import "context"

// AuthVerifier verifica un token de sesión y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer emite un token de sesión firmado para un usuario ya autenticado.
type TokenIssuer interface {
	Issue(claims Claims) (string, error)
}
