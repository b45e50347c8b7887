package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("appointment not found")
	ErrBadState     = errors.New("appointment state does not allow this operation")
	ErrPastDate     = errors.New("appointment date cannot be in the past")
	ErrTooSoon      = errors.New("same-day appointments need at least 5 minutes of margin")
)

const sameDayMargin = 5 * time.Minute

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type ScheduleInput struct {
	PetID       string
	VetID       string
	ScheduledAt time.Time
	Type        VisitType
	Reason      string
	Notes       string
}

// Schedule crea la consulta en estado scheduled. Quién puede agendar para
// qué mascota y si el veterinario existe se valida en el handler; acá van
// las reglas de la consulta misma.
func (s *Service) Schedule(ctx context.Context, createdBy string, in ScheduleInput) (Appointment, error) {
	petID := strings.TrimSpace(in.PetID)
	vetID := strings.TrimSpace(in.VetID)
	createdBy = strings.TrimSpace(createdBy)
	if petID == "" || vetID == "" || createdBy == "" || in.ScheduledAt.IsZero() {
		return Appointment{}, ErrInvalidInput
	}
	if !ValidVisitType(in.Type) {
		return Appointment{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Reason) == "" {
		return Appointment{}, ErrInvalidInput
	}

	now := s.now()
	if err := checkScheduleTime(in.ScheduledAt, now); err != nil {
		return Appointment{}, err
	}

	a := Appointment{
		ID:          uuid.NewString(),
		PetID:       petID,
		VetID:       vetID,
		ScheduledAt: in.ScheduledAt,
		Type:        in.Type,
		Status:      StatusScheduled,
		Reason:      strings.TrimSpace(in.Reason),
		Notes:       strings.TrimSpace(in.Notes),
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	h := s.entry(a.ID, HistoryScheduled, fmt.Sprintf("appointment scheduled for %s", a.ScheduledAt.Format("2006-01-02 15:04")), createdBy)
	if err := s.repo.Create(ctx, a, h); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

// checkScheduleTime: fechas pasadas se rechazan; el mismo día exige al
// menos 5 minutos de margen (exactamente 5 pasa). Para días futuros la
// hora no se valida.
func checkScheduleTime(at, now time.Time) error {
	at = at.In(now.Location())
	ay, am, ad := at.Date()
	ny, nm, nd := now.Date()
	aday := time.Date(ay, am, ad, 0, 0, 0, 0, now.Location())
	nday := time.Date(ny, nm, nd, 0, 0, 0, 0, now.Location())

	if aday.Before(nday) {
		return ErrPastDate
	}
	if aday.Equal(nday) && at.Before(now.Add(sameDayMargin)) {
		return ErrTooSoon
	}
	return nil
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	ScheduledAt *time.Time
	Type        *VisitType
	Reason      *string
	Notes       *string
}

// Update edita una consulta todavía no iniciada. Solo el veterinario
// asignado puede hacerlo. La validación de fecha (pasado, margen del
// mismo día) aplica únicamente al crear; reagendar no la repite.
func (s *Service) Update(ctx context.Context, actorID, id string, in UpdateInput) (Appointment, error) {
	a, err := s.getOwned(ctx, actorID, id)
	if err != nil {
		return Appointment{}, err
	}
	if !a.Status.CanEdit() {
		return Appointment{}, ErrBadState
	}

	if in.ScheduledAt != nil {
		if in.ScheduledAt.IsZero() {
			return Appointment{}, ErrInvalidInput
		}
		a.ScheduledAt = *in.ScheduledAt
	}
	if in.Type != nil {
		if !ValidVisitType(*in.Type) {
			return Appointment{}, ErrInvalidInput
		}
		a.Type = *in.Type
	}
	if in.Reason != nil {
		v := strings.TrimSpace(*in.Reason)
		if v == "" {
			return Appointment{}, ErrInvalidInput
		}
		a.Reason = v
	}
	if in.Notes != nil {
		a.Notes = strings.TrimSpace(*in.Notes)
	}

	a.UpdatedAt = s.now()
	h := s.entry(a.ID, HistoryUpdated, "appointment details updated", actorID)
	if err := s.repo.Update(ctx, a, h); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

// Confirm pasa la consulta de scheduled a confirmed.
func (s *Service) Confirm(ctx context.Context, actorID, id string) (Appointment, error) {
	return s.transition(ctx, actorID, id, []Status{StatusScheduled}, StatusConfirmed,
		HistoryConfirmed, "appointment confirmed")
}

// Start inicia la atención: scheduled o confirmed pasan a in_progress.
func (s *Service) Start(ctx context.Context, actorID, id string) (Appointment, error) {
	return s.transition(ctx, actorID, id, []Status{StatusScheduled, StatusConfirmed}, StatusInProgress,
		HistoryTreatmentStarted, "treatment started")
}

// Cancel cancela una consulta todavía no iniciada.
func (s *Service) Cancel(ctx context.Context, actorID, id, reason string) (Appointment, error) {
	desc := "appointment cancelled"
	if reason = strings.TrimSpace(reason); reason != "" {
		desc = "appointment cancelled: " + reason
	}
	return s.transition(ctx, actorID, id, []Status{StatusScheduled, StatusConfirmed}, StatusCancelled,
		HistoryCancelled, desc)
}

// MarkNoShow registra que el cliente no se presentó.
func (s *Service) MarkNoShow(ctx context.Context, actorID, id string) (Appointment, error) {
	return s.transition(ctx, actorID, id, []Status{StatusScheduled, StatusConfirmed}, StatusNoShow,
		HistoryNoShow, "client did not show up")
}

func (s *Service) transition(ctx context.Context, actorID, id string, from []Status, to Status, action HistoryAction, desc string) (Appointment, error) {
	a, err := s.getOwned(ctx, actorID, id)
	if err != nil {
		return Appointment{}, err
	}

	allowed := false
	for _, st := range from {
		if a.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return Appointment{}, ErrBadState
	}

	a.Status = to
	a.UpdatedAt = s.now()
	h := s.entry(a.ID, action, desc, actorID)
	if err := s.repo.Update(ctx, a, h); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

type RecordInput struct {
	WeightKg        *float64
	TemperatureC    *float64
	HeartRate       *int
	RespiratoryRate *int

	Anamnesis    string
	PhysicalExam string
	Diagnosis    string
	Treatment    string
	Notes        string
}

// SaveRecord crea o actualiza el prontuario de la consulta. Guardar el
// prontuario cierra la consulta: el estado pasa a completed sin importar
// en cuál estaba, en la misma transacción que el prontuario y el
// historial. Volver a guardar sobre una consulta completed actualiza el
// prontuario y deja el estado como está.
func (s *Service) SaveRecord(ctx context.Context, actorID, appointmentID string, in RecordInput) (MedicalRecord, error) {
	a, err := s.getOwned(ctx, actorID, appointmentID)
	if err != nil {
		return MedicalRecord{}, err
	}

	in.Anamnesis = strings.TrimSpace(in.Anamnesis)
	in.PhysicalExam = strings.TrimSpace(in.PhysicalExam)
	in.Diagnosis = strings.TrimSpace(in.Diagnosis)
	in.Treatment = strings.TrimSpace(in.Treatment)
	if in.Anamnesis == "" || in.PhysicalExam == "" || in.Diagnosis == "" || in.Treatment == "" {
		return MedicalRecord{}, ErrInvalidInput
	}
	if in.WeightKg != nil && *in.WeightKg <= 0 {
		return MedicalRecord{}, ErrInvalidInput
	}
	if in.TemperatureC != nil && (*in.TemperatureC < 30 || *in.TemperatureC > 45) {
		return MedicalRecord{}, ErrInvalidInput
	}

	now := s.now()
	action := HistoryRecordCreated
	desc := "medical record created"

	rec, err := s.repo.GetRecordByAppointment(ctx, a.ID)
	if err != nil {
		rec = MedicalRecord{
			ID:            uuid.NewString(),
			AppointmentID: a.ID,
			CreatedAt:     now,
		}
	} else {
		action = HistoryRecordUpdated
		desc = "medical record updated"
	}

	rec.WeightKg = in.WeightKg
	rec.TemperatureC = in.TemperatureC
	rec.HeartRate = in.HeartRate
	rec.RespiratoryRate = in.RespiratoryRate
	rec.Anamnesis = in.Anamnesis
	rec.PhysicalExam = in.PhysicalExam
	rec.Diagnosis = in.Diagnosis
	rec.Treatment = in.Treatment
	rec.Notes = strings.TrimSpace(in.Notes)
	rec.UpdatedAt = now

	a.Status = StatusCompleted
	a.UpdatedAt = now

	h := s.entry(a.ID, action, desc, actorID)
	if err := s.repo.SaveRecord(ctx, a, rec, h); err != nil {
		return MedicalRecord{}, err
	}
	return rec, nil
}

func (s *Service) GetRecord(ctx context.Context, actorID, appointmentID string) (MedicalRecord, error) {
	a, err := s.getOwned(ctx, actorID, appointmentID)
	if err != nil {
		return MedicalRecord{}, err
	}
	rec, err := s.repo.GetRecordByAppointment(ctx, a.ID)
	if err != nil {
		return MedicalRecord{}, ErrNotFound
	}
	return rec, nil
}

type PrescriptionInput struct {
	Drug         string
	Dosage       string
	Frequency    string
	Duration     string
	Route        Route
	Instructions string
}

func (in *PrescriptionInput) normalize() error {
	in.Drug = strings.TrimSpace(in.Drug)
	in.Dosage = strings.TrimSpace(in.Dosage)
	in.Frequency = strings.TrimSpace(in.Frequency)
	in.Duration = strings.TrimSpace(in.Duration)
	in.Instructions = strings.TrimSpace(in.Instructions)
	if in.Drug == "" || in.Dosage == "" || in.Frequency == "" {
		return ErrInvalidInput
	}
	if in.Route == "" {
		in.Route = RouteOral
	}
	if !ValidRoute(in.Route) {
		return ErrInvalidInput
	}
	return nil
}

// AddPrescription agrega una receta al prontuario. Requiere que el
// prontuario exista (la consulta ya fue atendida).
func (s *Service) AddPrescription(ctx context.Context, actorID, appointmentID string, in PrescriptionInput) (Prescription, error) {
	a, err := s.getOwned(ctx, actorID, appointmentID)
	if err != nil {
		return Prescription{}, err
	}
	rec, err := s.repo.GetRecordByAppointment(ctx, a.ID)
	if err != nil {
		return Prescription{}, ErrBadState
	}
	if err := in.normalize(); err != nil {
		return Prescription{}, err
	}

	now := s.now()
	p := Prescription{
		ID:           uuid.NewString(),
		RecordID:     rec.ID,
		Drug:         in.Drug,
		Dosage:       in.Dosage,
		Frequency:    in.Frequency,
		Duration:     in.Duration,
		Route:        in.Route,
		Instructions: in.Instructions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	h := s.entry(a.ID, HistoryPrescriptionAdd, "prescription added: "+p.Drug, actorID)
	if err := s.repo.AddPrescription(ctx, p, h); err != nil {
		return Prescription{}, err
	}
	return p, nil
}

func (s *Service) UpdatePrescription(ctx context.Context, actorID, appointmentID, prescriptionID string, in PrescriptionInput) (Prescription, error) {
	a, rec, err := s.getOwnedRecord(ctx, actorID, appointmentID)
	if err != nil {
		return Prescription{}, err
	}
	p, err := s.repo.GetPrescriptionByID(ctx, strings.TrimSpace(prescriptionID))
	if err != nil || p.RecordID != rec.ID {
		return Prescription{}, ErrNotFound
	}
	if err := in.normalize(); err != nil {
		return Prescription{}, err
	}

	p.Drug = in.Drug
	p.Dosage = in.Dosage
	p.Frequency = in.Frequency
	p.Duration = in.Duration
	p.Route = in.Route
	p.Instructions = in.Instructions
	p.UpdatedAt = s.now()

	h := s.entry(a.ID, HistoryNote, "prescription updated: "+p.Drug, actorID)
	if err := s.repo.UpdatePrescription(ctx, p, h); err != nil {
		return Prescription{}, err
	}
	return p, nil
}

func (s *Service) DeletePrescription(ctx context.Context, actorID, appointmentID, prescriptionID string) error {
	a, rec, err := s.getOwnedRecord(ctx, actorID, appointmentID)
	if err != nil {
		return err
	}
	p, err := s.repo.GetPrescriptionByID(ctx, strings.TrimSpace(prescriptionID))
	if err != nil || p.RecordID != rec.ID {
		return ErrNotFound
	}

	h := s.entry(a.ID, HistoryNote, "prescription removed: "+p.Drug, actorID)
	return s.repo.DeletePrescription(ctx, p.ID, h)
}

func (s *Service) ListPrescriptions(ctx context.Context, actorID, appointmentID string) ([]Prescription, error) {
	_, rec, err := s.getOwnedRecord(ctx, actorID, appointmentID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPrescriptions(ctx, rec.ID)
}

// AddNote agrega una anotación libre al historial sin tocar la consulta.
func (s *Service) AddNote(ctx context.Context, actorID, appointmentID, text string) (HistoryEntry, error) {
	a, err := s.getOwned(ctx, actorID, appointmentID)
	if err != nil {
		return HistoryEntry{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return HistoryEntry{}, ErrInvalidInput
	}
	h := s.entry(a.ID, HistoryNote, text, actorID)
	if err := s.repo.Update(ctx, a, h); err != nil {
		return HistoryEntry{}, err
	}
	return h, nil
}

func (s *Service) History(ctx context.Context, actorID, appointmentID string) ([]HistoryEntry, error) {
	a, err := s.getOwned(ctx, actorID, appointmentID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, a.ID)
}

// GetOwned expone la consulta al handler con la misma regla de propiedad
// que el resto de operaciones.
func (s *Service) GetOwned(ctx context.Context, actorID, id string) (Appointment, error) {
	return s.getOwned(ctx, actorID, id)
}

// GetByID no aplica la regla de propiedad: la usan los handlers que
// autorizan por otro camino (el dueño de la mascota viendo su agenda).
func (s *Service) GetByID(ctx context.Context, id string) (Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Appointment{}, ErrInvalidInput
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

func (s *Service) ListByVet(ctx context.Context, vetID string, filter ListFilter) ([]Appointment, error) {
	return s.repo.ListByVet(ctx, strings.TrimSpace(vetID), filter)
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]Appointment, error) {
	return s.repo.ListByPet(ctx, strings.TrimSpace(petID))
}

// CountOpenByVet cuenta consultas no canceladas ni perdidas del
// veterinario. Lo usa el módulo de usuarios antes de borrar un vet.
func (s *Service) CountOpenByVet(ctx context.Context, vetID string) (int, error) {
	return s.repo.CountOpenByVet(ctx, strings.TrimSpace(vetID))
}

// getOwned carga la consulta y exige que el actor sea el veterinario
// asignado. Un actor ajeno recibe el mismo ErrNotFound que si la consulta
// no existiera.
func (s *Service) getOwned(ctx context.Context, actorID, id string) (Appointment, error) {
	actorID = strings.TrimSpace(actorID)
	id = strings.TrimSpace(id)
	if actorID == "" || id == "" {
		return Appointment{}, ErrInvalidInput
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, ErrNotFound
	}
	if a.VetID != actorID {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

func (s *Service) getOwnedRecord(ctx context.Context, actorID, appointmentID string) (Appointment, MedicalRecord, error) {
	a, err := s.getOwned(ctx, actorID, appointmentID)
	if err != nil {
		return Appointment{}, MedicalRecord{}, err
	}
	rec, err := s.repo.GetRecordByAppointment(ctx, a.ID)
	if err != nil {
		return Appointment{}, MedicalRecord{}, ErrNotFound
	}
	return a, rec, nil
}

func (s *Service) entry(appointmentID string, action HistoryAction, desc, userID string) HistoryEntry {
	return HistoryEntry{
		ID:            uuid.NewString(),
		AppointmentID: appointmentID,
		Action:        action,
		Description:   desc,
		UserID:        userID,
		CreatedAt:     s.now(),
	}
}
