package middleware

import (
	"context"
	"net/http"
	"strings"

	"vet-clinic-api/internal/ports/auth"
)

type contextKey string

const claimsKey contextKey = "authClaims"

// RequestClaims es la identidad resuelta para la request.
type RequestClaims struct {
	UserID string
	Email  string
	Role   string
}

// AuthContext resuelve el token Bearer con el verificador y deja los
// claims en el contexto. Sin token (o con token inválido) la request
// sigue sin identidad; cada handler decide si la exige.
//
// Con verificador nil (modo desarrollo) los Bearer se ignoran. Las
// cabeceras X-Debug-User-ID y X-Debug-Role solo se miran cuando no hay
// un Bearer verificable.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token != "" && verifier != nil {
				claims, err := verifier.Verify(r.Context(), token)
				if err == nil {
					ctx := context.WithValue(r.Context(), claimsKey, RequestClaims{
						UserID: claims.UserID,
						Email:  claims.Email,
						Role:   claims.Role,
					})
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if id := strings.TrimSpace(r.Header.Get("X-Debug-User-ID")); id != "" {
				role := strings.TrimSpace(r.Header.Get("X-Debug-Role"))
				if role == "" {
					role = "client"
				}
				ctx := context.WithValue(r.Context(), claimsKey, RequestClaims{
					UserID: id,
					Role:   role,
				})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetClaims devuelve los claims de la request, si los hay.
func GetClaims(ctx context.Context) (RequestClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(RequestClaims)
	return claims, ok
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
