package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"vet-clinic-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/signup", signUpHandler(svc))
		ar.Post("/login", loginHandler(svc))
		ar.Post("/password", setPasswordHandler(svc))

		ar.Get("/google/login", googleLoginHandler(svc))
		ar.Get("/google/callback", googleCallbackHandler(svc))
	})
}

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	// Login acepta username o email.
	Login    string `json:"login"`
	Password string `json:"password"`
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

type sessionResponse struct {
	Token         string `json:"token"`
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	NeedsPassword bool   `json:"needs_password,omitempty"`
}

// signUpHandler godoc
// @Summary Registro local
// @Description Crea una cuenta local (rol client). Si el email pertenece a una cuenta Google sin contraseña devuelve 409 con el mensaje específico.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body signUpRequest true "Datos de registro"
// @Success 201
// @Failure 400
// @Failure 409
// @Router /auth/signup [post]
func signUpHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.SignUp(r.Context(), SignUpInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			writeAuthError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"user_id":  u.ID,
			"username": u.Username,
			"email":    u.Email,
		})
	}
}

func loginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, tok, err := svc.Login(r.Context(), req.Login, req.Password)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, sessionResponse{
			Token:    tok,
			UserID:   u.ID,
			Username: u.Username,
			Email:    u.Email,
			Role:     string(u.Role),
		})
	}
}

func setPasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req setPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := svc.SetPassword(r.Context(), claims.UserID, req.Password); err != nil {
			writeAuthError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// oauthStateCookie lleva el state del flujo de Google entre el redirect
// y el callback; el callback exige que coincida con el query param.
const oauthStateCookie = "oauth_state"

func googleLoginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    state,
			Path:     "/auth/google",
			MaxAge:   300,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, svc.AuthURL(state), http.StatusFound)
	}
}

// googleCallbackHandler concilia la identidad de Google con la cuenta
// local. Una cuenta sin contraseña recibe needs_password=true para que el
// cliente la dirija al paso de definir contraseña antes de usar la app.
func googleCallbackHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		cookie, err := r.Cookie(oauthStateCookie)
		if err != nil || state == "" || cookie.Value != state {
			http.Error(w, "invalid oauth state", http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		if strings.TrimSpace(code) == "" {
			http.Error(w, ErrProviderFailure.Error(), http.StatusBadRequest)
			return
		}

		res, err := svc.OAuthCallback(r.Context(), code)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		status := http.StatusOK
		if res.Created {
			status = http.StatusCreated
		}
		writeJSON(w, status, sessionResponse{
			Token:         res.Token,
			UserID:        res.User.ID,
			Username:      res.User.Username,
			Email:         res.User.Email,
			Role:          string(res.User.Role),
			NeedsPassword: res.NeedsPassword,
		})
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken), errors.Is(err, ErrAccountNeedsPassword):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrEmailNotVerified):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrProviderFailure):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
