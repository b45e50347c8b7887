package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"vet-clinic-api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/admin/users", func(ur chi.Router) {
		ur.Get("/", listUsersHandler(svc))
		ur.Post("/", createUserHandler(svc))
		ur.Get("/{userID}", getUserHandler(svc))
		ur.Put("/{userID}", updateUserHandler(svc))
		ur.Delete("/{userID}", deleteUserHandler(svc))
		ur.Post("/{userID}/toggle", toggleUserHandler(svc))
	})
}

type createUserRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Role          string `json:"role"`
	Phone         string `json:"phone"`
	LicenseNumber string `json:"license_number"`
	Specialty     string `json:"specialty"`
}

type updateUserRequest struct {
	Username      *string `json:"username"`
	Email         *string `json:"email"`
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	Role          *string `json:"role"`
	Phone         *string `json:"phone"`
	LicenseNumber *string `json:"license_number"`
	Specialty     *string `json:"specialty"`
}

type userResponse struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Role          string    `json:"role"`
	Phone         string    `json:"phone,omitempty"`
	LicenseNumber string    `json:"license_number,omitempty"`
	Specialty     string    `json:"specialty,omitempty"`
	HasPassword   bool      `json:"has_password"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// adminOnly corta el request si el actor no es admin. Devuelve los claims
// cuando el gate pasa.
func adminOnly(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	if claims.Role != string(RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return "", false
	}
	return claims.UserID, true
}

func createUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := adminOnly(w, r); !ok {
			return
		}

		var req createUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.Create(r.Context(), CreateInput{
			Username:      req.Username,
			Email:         req.Email,
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			Role:          Role(req.Role),
			Phone:         req.Phone,
			LicenseNumber: req.LicenseNumber,
			Specialty:     req.Specialty,
		})
		if err != nil {
			writeUserError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toUserResponse(u))
	}
}

func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := adminOnly(w, r); !ok {
			return
		}

		filter := ListFilter{
			Role:  Role(strings.TrimSpace(r.URL.Query().Get("role"))),
			Query: r.URL.Query().Get("search"),
		}
		switch r.URL.Query().Get("status") {
		case "active":
			v := true
			filter.Active = &v
		case "inactive":
			v := false
			filter.Active = &v
		}

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := adminOnly(w, r); !ok {
			return
		}

		u, err := svc.GetByID(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func updateUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := adminOnly(w, r); !ok {
			return
		}

		var req updateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var role *Role
		if req.Role != nil {
			v := Role(*req.Role)
			role = &v
		}

		u, err := svc.Update(r.Context(), chi.URLParam(r, "userID"), UpdateInput{
			Username:      req.Username,
			Email:         req.Email,
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			Role:          role,
			Phone:         req.Phone,
			LicenseNumber: req.LicenseNumber,
			Specialty:     req.Specialty,
		})
		if err != nil {
			writeUserError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func deleteUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := adminOnly(w, r); !ok {
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "userID")); err != nil {
			writeUserError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toggleUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := adminOnly(w, r)
		if !ok {
			return
		}

		u, err := svc.ToggleActive(r.Context(), chi.URLParam(r, "userID"), actorID)
		if err != nil {
			writeUserError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func writeUserError(w http.ResponseWriter, err error) {
	var inUse *InUseError
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrUsernameTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrSelfDisable):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &inUse):
		http.Error(w, inUse.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          string(u.Role),
		Phone:         u.Phone,
		LicenseNumber: u.LicenseNumber,
		Specialty:     u.Specialty,
		HasPassword:   u.HasPassword(),
		Active:        u.Active,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
