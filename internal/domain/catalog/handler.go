package catalog

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
	r.Route("/catalog", func(cr chi.Router) {
		cr.Get("/types", listTypesHandler(svc))
		cr.Post("/types", createTypeHandler(svc))
		cr.Put("/types/{typeID}", updateTypeHandler(svc))
		cr.Delete("/types/{typeID}", deleteTypeHandler(svc))

		cr.Get("/breeds", listBreedsHandler(svc))
		cr.Post("/breeds", createBreedHandler(svc))
		cr.Put("/breeds/{breedID}", updateBreedHandler(svc))
		cr.Delete("/breeds/{breedID}", deleteBreedHandler(svc))
	})
}

type typeRequest struct {
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Active *bool  `json:"active"`
}

type typeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type breedRequest struct {
	TypeID    string `json:"type_id"`
	Name      string `json:"name"`
	CareNotes string `json:"care_notes"`
	Active    *bool  `json:"active"`
}

type breedResponse struct {
	ID        string    `json:"id"`
	TypeID    string    `json:"type_id"`
	Name      string    `json:"name"`
	CareNotes string    `json:"care_notes,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// staffOnly: altas/bajas del catálogo son de admin o staff.
// Las lecturas quedan abiertas a cualquier usuario autenticado.
func staffOnly(w http.ResponseWriter, r *http.Request) bool {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	if claims.Role != "admin" && claims.Role != "staff" {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func authenticated(w http.ResponseWriter, r *http.Request) bool {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func listTypesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authenticated(w, r) {
			return
		}

		onlyActive := r.URL.Query().Get("all") == ""
		items, err := svc.ListTypes(r.Context(), onlyActive)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]typeResponse, 0, len(items))
		for _, t := range items {
			out = append(out, toTypeResponse(t))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createTypeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !staffOnly(w, r) {
			return
		}

		var req typeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t, err := svc.CreateType(r.Context(), TypeInput{Name: req.Name, Icon: req.Icon, Active: req.Active})
		if err != nil {
			writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toTypeResponse(t))
	}
}

func updateTypeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !staffOnly(w, r) {
			return
		}

		var req typeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t, err := svc.UpdateType(r.Context(), chi.URLParam(r, "typeID"), TypeInput{Name: req.Name, Icon: req.Icon, Active: req.Active})
		if err != nil {
			writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTypeResponse(t))
	}
}

func deleteTypeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !staffOnly(w, r) {
			return
		}

		if err := svc.DeleteType(r.Context(), chi.URLParam(r, "typeID")); err != nil {
			writeCatalogError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listBreedsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authenticated(w, r) {
			return
		}

		items, err := svc.ListBreeds(r.Context(), BreedFilter{
			TypeID: r.URL.Query().Get("type"),
			Query:  r.URL.Query().Get("search"),
		})
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]breedResponse, 0, len(items))
		for _, b := range items {
			out = append(out, toBreedResponse(b))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createBreedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !staffOnly(w, r) {
			return
		}

		var req breedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		b, err := svc.CreateBreed(r.Context(), BreedInput{
			TypeID:    req.TypeID,
			Name:      req.Name,
			CareNotes: req.CareNotes,
			Active:    req.Active,
		})
		if err != nil {
			writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toBreedResponse(b))
	}
}

func updateBreedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !staffOnly(w, r) {
			return
		}

		var req breedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		b, err := svc.UpdateBreed(r.Context(), chi.URLParam(r, "breedID"), BreedInput{
			TypeID:    req.TypeID,
			Name:      req.Name,
			CareNotes: req.CareNotes,
			Active:    req.Active,
		})
		if err != nil {
			writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBreedResponse(b))
	}
}

func deleteBreedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !staffOnly(w, r) {
			return
		}

		if err := svc.DeleteBreed(r.Context(), chi.URLParam(r, "breedID")); err != nil {
			writeCatalogError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeCatalogError(w http.ResponseWriter, err error) {
	var inUse *InUseError
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrDuplicate):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &inUse):
		http.Error(w, inUse.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toTypeResponse(t AnimalType) typeResponse {
	return typeResponse{
		ID:        t.ID,
		Name:      t.Name,
		Icon:      t.Icon,
		Active:    t.Active,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toBreedResponse(b Breed) breedResponse {
	return breedResponse{
		ID:        b.ID,
		TypeID:    b.TypeID,
		Name:      b.Name,
		CareNotes: b.CareNotes,
		Active:    b.Active,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
