package oauth

import (
	"context"
	"errors"
)

var (
	// ErrExchangeFailed cubre cualquier falla al canjear el code
	// (red, status no-2xx, respuesta sin access_token).
	ErrExchangeFailed = errors.New("oauth: code exchange failed")

	// ErrProfileFailed cubre fallas al traer el perfil con el access token.
	ErrProfileFailed = errors.New("oauth: profile fetch failed")
)

// Token es el resultado de canjear un authorization code.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int
}

// Profile es la información de perfil que expone el proveedor externo.
type Profile struct {
	Email         string
	VerifiedEmail bool
	GivenName     string
	FamilyName    string
	Picture       string
}

// Provider abstrae un proveedor OAuth2 externo (Google en producción).
// Todas las llamadas salientes deben aplicar timeout acotado y devolver
// una falla definida en lugar de colgarse.
type Provider interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (Token, error)
	FetchProfile(ctx context.Context, tok Token) (Profile, error)
}
