package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"vet-clinic-api/internal/domain/catalog"
	"vet-clinic-api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, catalogSvc *catalog.Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc, catalogSvc))
		pr.Get("/", listPetsHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc, catalogSvc))
		pr.Post("/{petID}/deactivate", deactivatePetHandler(svc))
	})
}

type createPetRequest struct {
	Name      string `json:"name"`
	TypeID    string `json:"type_id"`
	BreedID   string `json:"breed_id"`
	Sex       string `json:"sex"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD opcional
	Notes     string `json:"notes"`
}

type updatePetRequest struct {
	Name    *string `json:"name"`
	TypeID  *string `json:"type_id"`
	BreedID *string `json:"breed_id"`
	Sex     *string `json:"sex"`
	Notes   *string `json:"notes"`
}

type petResponse struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Name      string     `json:"name"`
	TypeID    string     `json:"type_id"`
	BreedID   string     `json:"breed_id"`
	Sex       string     `json:"sex"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	AgeYears  *int       `json:"age_years,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// checkBreedMatchesType valida que la raza exista y pertenezca al tipo
// declarado. Cross-check contra el catálogo, en el handler.
func checkBreedMatchesType(r *http.Request, catalogSvc *catalog.Service, typeID, breedID string) error {
	b, err := catalogSvc.GetBreed(r.Context(), breedID)
	if err != nil {
		return errors.New("breed not found")
	}
	if b.TypeID != typeID {
		return errors.New("breed does not belong to the given animal type")
	}
	return nil
}

func createPetHandler(svc *Service, catalogSvc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := checkBreedMatchesType(r, catalogSvc, strings.TrimSpace(req.TypeID), strings.TrimSpace(req.BreedID)); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse("2006-01-02", req.BirthDate)
			if err != nil {
				http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			bd = &t
		}

		p, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:      req.Name,
			TypeID:    req.TypeID,
			BreedID:   req.BreedID,
			Sex:       req.Sex,
			BirthDate: bd,
			Notes:     req.Notes,
		})
		if err != nil {
			writePetError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

func listPetsHandler(svc *Service) http.HandlerFunc {
	// Solo las mascotas del dueño autenticado.
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	// Dueño, o personal de la clínica (staff/vet/admin).
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		if p.OwnerID != claims.UserID && !clinicRole(claims.Role) {
			// Mismo 404 que si no existiera: no filtramos existencia.
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func updatePetHandler(svc *Service, catalogSvc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		current, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil || current.OwnerID != claims.UserID {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		// Map primero para detectar presencia de birth_date (null = limpiar).
		var raw map[string]json.RawMessage
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var req updatePetRequest
		{
			b, _ := json.Marshal(raw)
			if err := json.Unmarshal(b, &req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		bd := BirthDatePatch{}
		if v, exists := raw["birth_date"]; exists {
			bd.Present = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					http.Error(w, "birth_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				t, err := time.Parse("2006-01-02", s)
				if err != nil {
					http.Error(w, "birth_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				bd.Value = &t
			}
		}

		// Si cambia tipo o raza, revalidar la correspondencia.
		if req.TypeID != nil || req.BreedID != nil {
			typeID := current.TypeID
			breedID := current.BreedID
			if req.TypeID != nil {
				typeID = strings.TrimSpace(*req.TypeID)
			}
			if req.BreedID != nil {
				breedID = strings.TrimSpace(*req.BreedID)
			}
			if err := checkBreedMatchesType(r, catalogSvc, typeID, breedID); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		updated, err := svc.UpdateProfile(r.Context(), current.ID, UpdateInput{
			Name:      req.Name,
			TypeID:    req.TypeID,
			BreedID:   req.BreedID,
			Sex:       req.Sex,
			BirthDate: bd,
			Notes:     req.Notes,
		})
		if err != nil {
			writePetError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

func deactivatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		current, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil || (current.OwnerID != claims.UserID && claims.Role != "admin") {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		p, err := svc.Deactivate(r.Context(), current.ID)
		if err != nil {
			writePetError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func clinicRole(role string) bool {
	switch role {
	case "admin", "staff", "veterinarian":
		return true
	}
	return false
}

func writePetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	case errors.Is(err, ErrDuplicateName):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		TypeID:    p.TypeID,
		BreedID:   p.BreedID,
		Sex:       string(p.Sex),
		BirthDate: p.BirthDate,
		AgeYears:  p.AgeYears(time.Now()),
		Notes:     p.Notes,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// writeJSON duplicado a propósito por módulo (ver nota en users/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
