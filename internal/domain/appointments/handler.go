package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"vet-clinic-api/internal/domain/pets"
	"vet-clinic-api/internal/domain/users"
	"vet-clinic-api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service, usersSvc *users.Service) {
	r.Route("/appointments", func(ar chi.Router) {
		ar.Post("/", scheduleHandler(svc, petsSvc, usersSvc))
		ar.Get("/", listAgendaHandler(svc))

		ar.Route("/{appointmentID}", func(dr chi.Router) {
			dr.Get("/", getAppointmentHandler(svc, petsSvc))
			dr.Patch("/", updateAppointmentHandler(svc))

			dr.Post("/confirm", transitionHandler(svc, (*Service).Confirm))
			dr.Post("/start", transitionHandler(svc, (*Service).Start))
			dr.Post("/no-show", transitionHandler(svc, (*Service).MarkNoShow))
			dr.Post("/cancel", cancelHandler(svc))

			dr.Put("/record", saveRecordHandler(svc))
			dr.Get("/record", getRecordHandler(svc))

			dr.Post("/prescriptions", addPrescriptionHandler(svc))
			dr.Get("/prescriptions", listPrescriptionsHandler(svc))
			dr.Put("/prescriptions/{prescriptionID}", updatePrescriptionHandler(svc))
			dr.Delete("/prescriptions/{prescriptionID}", deletePrescriptionHandler(svc))

			dr.Get("/history", historyHandler(svc))
			dr.Post("/notes", addNoteHandler(svc))
		})
	})

	// La agenda de una mascota la consulta su dueño (o la clínica).
	r.Get("/pets/{petID}/appointments", listByPetHandler(svc, petsSvc))
}

type scheduleRequest struct {
	PetID       string    `json:"pet_id"`
	VetID       string    `json:"vet_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Type        string    `json:"type"`
	Reason      string    `json:"reason"`
	Notes       string    `json:"notes"`
}

type updateAppointmentRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	Type        *string    `json:"type"`
	Reason      *string    `json:"reason"`
	Notes       *string    `json:"notes"`
}

type recordRequest struct {
	WeightKg        *float64 `json:"weight_kg"`
	TemperatureC    *float64 `json:"temperature_c"`
	HeartRate       *int     `json:"heart_rate"`
	RespiratoryRate *int     `json:"respiratory_rate"`
	Anamnesis       string   `json:"anamnesis"`
	PhysicalExam    string   `json:"physical_exam"`
	Diagnosis       string   `json:"diagnosis"`
	Treatment       string   `json:"treatment"`
	Notes           string   `json:"notes"`
}

type prescriptionRequest struct {
	Drug         string `json:"drug"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Route        string `json:"route"`
	Instructions string `json:"instructions"`
}

type appointmentResponse struct {
	ID          string    `json:"id"`
	PetID       string    `json:"pet_id"`
	VetID       string    `json:"vet_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason"`
	Notes       string    `json:"notes,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type recordResponse struct {
	ID              string    `json:"id"`
	AppointmentID   string    `json:"appointment_id"`
	WeightKg        *float64  `json:"weight_kg,omitempty"`
	TemperatureC    *float64  `json:"temperature_c,omitempty"`
	HeartRate       *int      `json:"heart_rate,omitempty"`
	RespiratoryRate *int      `json:"respiratory_rate,omitempty"`
	Anamnesis       string    `json:"anamnesis"`
	PhysicalExam    string    `json:"physical_exam"`
	Diagnosis       string    `json:"diagnosis"`
	Treatment       string    `json:"treatment"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type prescriptionResponse struct {
	ID           string    `json:"id"`
	RecordID     string    `json:"record_id"`
	Drug         string    `json:"drug"`
	Dosage       string    `json:"dosage"`
	Frequency    string    `json:"frequency"`
	Duration     string    `json:"duration,omitempty"`
	Route        string    `json:"route"`
	Instructions string    `json:"instructions,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type historyResponse struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func scheduleHandler(svc *Service, petsSvc *pets.Service, usersSvc *users.Service) http.HandlerFunc {
	// Un cliente agenda para sus mascotas; staff y admin para cualquiera.
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req scheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := petsSvc.GetByID(r.Context(), req.PetID)
		if err != nil || !p.Active {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		if p.OwnerID != claims.UserID && claims.Role != "admin" && claims.Role != "staff" {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		isVet, err := usersSvc.IsVeterinarian(r.Context(), req.VetID)
		if err != nil || !isVet {
			http.Error(w, "vet_id must reference an active veterinarian", http.StatusBadRequest)
			return
		}

		a, err := svc.Schedule(r.Context(), claims.UserID, ScheduleInput{
			PetID:       req.PetID,
			VetID:       req.VetID,
			ScheduledAt: req.ScheduledAt,
			Type:        VisitType(strings.TrimSpace(req.Type)),
			Reason:      req.Reason,
			Notes:       req.Notes,
		})
		if err != nil {
			writeAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAppointmentResponse(a))
	}
}

func listAgendaHandler(svc *Service) http.HandlerFunc {
	// La agenda del veterinario autenticado, con filtros opcionales.
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || claims.Role != "veterinarian" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		filter := ListFilter{Status: Status(r.URL.Query().Get("status"))}
		if v := r.URL.Query().Get("from"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				http.Error(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			filter.From = &t
		}
		if v := r.URL.Query().Get("to"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				http.Error(w, "to must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			end := t.Add(24 * time.Hour)
			filter.To = &end
		}

		items, err := svc.ListByVet(r.Context(), claims.UserID, filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]appointmentResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAppointmentResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getAppointmentHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	// El vet asignado, el dueño de la mascota, o staff/admin.
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "appointmentID"))
		if err != nil {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}

		if !canSeeAppointment(r, petsSvc, a, claims.UserID, claims.Role) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(a))
	}
}

func canSeeAppointment(r *http.Request, petsSvc *pets.Service, a Appointment, userID, role string) bool {
	if a.VetID == userID || role == "admin" || role == "staff" {
		return true
	}
	p, err := petsSvc.GetByID(r.Context(), a.PetID)
	return err == nil && p.OwnerID == userID
}

func updateAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var vt *VisitType
		if req.Type != nil {
			t := VisitType(strings.TrimSpace(*req.Type))
			vt = &t
		}

		a, err := svc.Update(r.Context(), claims.UserID, chi.URLParam(r, "appointmentID"), UpdateInput{
			ScheduledAt: req.ScheduledAt,
			Type:        vt,
			Reason:      req.Reason,
			Notes:       req.Notes,
		})
		if err != nil {
			writeAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(a))
	}
}

func transitionHandler(svc *Service, op func(*Service, context.Context, string, string) (Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		a, err := op(svc, r.Context(), claims.UserID, chi.URLParam(r, "appointmentID"))
		if err != nil {
			writeAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(a))
	}
}

func cancelHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req struct {
			Reason string `json:"reason"`
		}
		// Body opcional.
		_ = json.NewDecoder(r.Body).Decode(&req)

		a, err := svc.Cancel(r.Context(), claims.UserID, chi.URLParam(r, "appointmentID"), req.Reason)
		if err != nil {
			writeAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(a))
	}
}

func saveRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req recordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		rec, err := svc.SaveRecord(r.Context(), claims.UserID, chi.URLParam(r, "appointmentID"), RecordInput{
			WeightKg:        req.WeightKg,
			TemperatureC:    req.TemperatureC,
			HeartRate:       req.HeartRate,
			RespiratoryRate: req.RespiratoryRate,
			Anamnesis:       req.Anamnesis,
			PhysicalExam:    req.PhysicalExam,
			Diagnosis:       req.Diagnosis,
			Treatment:       req.Treatment,
			Notes:           req.Notes,
		})
		if err != nil {
			writeAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func getRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		rec, err := svc.GetRecord(r.Context(), claims.UserID, chi.URLParam(r, "appointmentID"))
		if err != nil {
			writeAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func addPrescriptionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req prescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.AddPrescription(r.Context(), claims.UserID, chi.URLParam(r, "appointmentID"), toPrescriptionInput(req))
		if err != nil {
			writeAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPrescriptionResponse(p))
	}
}

func updatePrescriptionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req prescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.UpdatePrescription(r.Context(), claims.UserID,
			chi.URLParam(r, "appointmentID"), chi.URLParam(r, "prescriptionID"), toPrescriptionInput(req))
		if err != nil {
			writeAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPrescriptionResponse(p))
	}
}

func deletePrescriptionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		err := svc.DeletePrescription(r.Context(), claims.UserID,
			chi.URLParam(r, "appointmentID"), chi.URLParam(r, "prescriptionID"))
		if err != nil {
			writeAppointmentError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listPrescriptionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.ListPrescriptions(r.Context(), claims.UserID, chi.URLParam(r, "appointmentID"))
		if err != nil {
			writeAppointmentError(w, err)
			return
		}
		out := make([]prescriptionResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPrescriptionResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func historyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.History(r.Context(), claims.UserID, chi.URLParam(r, "appointmentID"))
		if err != nil {
			writeAppointmentError(w, err)
			return
		}
		out := make([]historyResponse, 0, len(items))
		for _, h := range items {
			out = append(out, historyResponse{
				ID:          h.ID,
				Action:      string(h.Action),
				Description: h.Description,
				UserID:      h.UserID,
				CreatedAt:   h.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func addNoteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		h, err := svc.AddNote(r.Context(), claims.UserID, chi.URLParam(r, "appointmentID"), req.Text)
		if err != nil {
			writeAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, historyResponse{
			ID:          h.ID,
			Action:      string(h.Action),
			Description: h.Description,
			UserID:      h.UserID,
			CreatedAt:   h.CreatedAt,
		})
	}
}

func listByPetHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := petsSvc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		if p.OwnerID != claims.UserID && claims.Role != "admin" && claims.Role != "staff" && claims.Role != "veterinarian" {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		items, err := svc.ListByPet(r.Context(), p.ID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]appointmentResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAppointmentResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeAppointmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrPastDate), errors.Is(err, ErrTooSoon):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, ErrBadState):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toPrescriptionInput(req prescriptionRequest) PrescriptionInput {
	return PrescriptionInput{
		Drug:         req.Drug,
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		Duration:     req.Duration,
		Route:        Route(strings.TrimSpace(req.Route)),
		Instructions: req.Instructions,
	}
}

func toAppointmentResponse(a Appointment) appointmentResponse {
	return appointmentResponse{
		ID:          a.ID,
		PetID:       a.PetID,
		VetID:       a.VetID,
		ScheduledAt: a.ScheduledAt,
		Type:        string(a.Type),
		Status:      string(a.Status),
		Reason:      a.Reason,
		Notes:       a.Notes,
		CreatedBy:   a.CreatedBy,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toRecordResponse(rec MedicalRecord) recordResponse {
	return recordResponse{
		ID:              rec.ID,
		AppointmentID:   rec.AppointmentID,
		WeightKg:        rec.WeightKg,
		TemperatureC:    rec.TemperatureC,
		HeartRate:       rec.HeartRate,
		RespiratoryRate: rec.RespiratoryRate,
		Anamnesis:       rec.Anamnesis,
		PhysicalExam:    rec.PhysicalExam,
		Diagnosis:       rec.Diagnosis,
		Treatment:       rec.Treatment,
		Notes:           rec.Notes,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}

func toPrescriptionResponse(p Prescription) prescriptionResponse {
	return prescriptionResponse{
		ID:           p.ID,
		RecordID:     p.RecordID,
		Drug:         p.Drug,
		Dosage:       p.Dosage,
		Frequency:    p.Frequency,
		Duration:     p.Duration,
		Route:        string(p.Route),
		Instructions: p.Instructions,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// writeJSON duplicado a propósito por módulo (ver nota en users/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
