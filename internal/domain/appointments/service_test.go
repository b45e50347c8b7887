package appointments

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testRepo struct {
	appts         map[string]Appointment
	records       map[string]MedicalRecord // por appointment ID
	prescriptions map[string]Prescription
	history       map[string][]HistoryEntry
}

func newTestRepo() *testRepo {
	return &testRepo{
		appts:         make(map[string]Appointment),
		records:       make(map[string]MedicalRecord),
		prescriptions: make(map[string]Prescription),
		history:       make(map[string][]HistoryEntry),
	}
}

var errRepoNotFound = errors.New("not found")

func (r *testRepo) Create(_ context.Context, a Appointment, h HistoryEntry) error {
	r.appts[a.ID] = a
	r.history[a.ID] = append(r.history[a.ID], h)
	return nil
}

func (r *testRepo) Update(_ context.Context, a Appointment, h HistoryEntry) error {
	if _, ok := r.appts[a.ID]; !ok {
		return errRepoNotFound
	}
	r.appts[a.ID] = a
	r.history[a.ID] = append(r.history[a.ID], h)
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Appointment, error) {
	a, ok := r.appts[id]
	if !ok {
		return Appointment{}, errRepoNotFound
	}
	return a, nil
}

func (r *testRepo) ListByVet(_ context.Context, vetID string, filter ListFilter) ([]Appointment, error) {
	out := []Appointment{}
	for _, a := range r.appts {
		if a.VetID == vetID && (filter.Status == "" || a.Status == filter.Status) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *testRepo) ListByPet(_ context.Context, petID string) ([]Appointment, error) {
	out := []Appointment{}
	for _, a := range r.appts {
		if a.PetID == petID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *testRepo) CountOpenByVet(_ context.Context, vetID string) (int, error) {
	n := 0
	for _, a := range r.appts {
		if a.VetID == vetID && a.Status != StatusCancelled && a.Status != StatusNoShow {
			n++
		}
	}
	return n, nil
}

func (r *testRepo) SaveRecord(_ context.Context, a Appointment, rec MedicalRecord, h HistoryEntry) error {
	if _, ok := r.appts[a.ID]; !ok {
		return errRepoNotFound
	}
	r.appts[a.ID] = a
	r.records[rec.AppointmentID] = rec
	r.history[a.ID] = append(r.history[a.ID], h)
	return nil
}

func (r *testRepo) GetRecordByID(_ context.Context, id string) (MedicalRecord, error) {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return MedicalRecord{}, errRepoNotFound
}

func (r *testRepo) GetRecordByAppointment(_ context.Context, appointmentID string) (MedicalRecord, error) {
	rec, ok := r.records[appointmentID]
	if !ok {
		return MedicalRecord{}, errRepoNotFound
	}
	return rec, nil
}

func (r *testRepo) AddPrescription(_ context.Context, p Prescription, h HistoryEntry) error {
	r.prescriptions[p.ID] = p
	r.history[h.AppointmentID] = append(r.history[h.AppointmentID], h)
	return nil
}

func (r *testRepo) UpdatePrescription(_ context.Context, p Prescription, h HistoryEntry) error {
	if _, ok := r.prescriptions[p.ID]; !ok {
		return errRepoNotFound
	}
	r.prescriptions[p.ID] = p
	r.history[h.AppointmentID] = append(r.history[h.AppointmentID], h)
	return nil
}

func (r *testRepo) DeletePrescription(_ context.Context, id string, h HistoryEntry) error {
	if _, ok := r.prescriptions[id]; !ok {
		return errRepoNotFound
	}
	delete(r.prescriptions, id)
	r.history[h.AppointmentID] = append(r.history[h.AppointmentID], h)
	return nil
}

func (r *testRepo) GetPrescriptionByID(_ context.Context, id string) (Prescription, error) {
	p, ok := r.prescriptions[id]
	if !ok {
		return Prescription{}, errRepoNotFound
	}
	return p, nil
}

func (r *testRepo) ListPrescriptions(_ context.Context, recordID string) ([]Prescription, error) {
	out := []Prescription{}
	for _, p := range r.prescriptions {
		if p.RecordID == recordID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *testRepo) ListHistory(_ context.Context, appointmentID string) ([]HistoryEntry, error) {
	return r.history[appointmentID], nil
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return testNow }
	return svc, repo
}

func scheduleOne(t *testing.T, svc *Service, vetID string) Appointment {
	t.Helper()
	a, err := svc.Schedule(context.Background(), "staff-1", ScheduleInput{
		PetID:       "pet-1",
		VetID:       vetID,
		ScheduledAt: testNow.Add(48 * time.Hour),
		Type:        VisitCheckup,
		Reason:      "annual checkup",
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return a
}

func validRecord() RecordInput {
	return RecordInput{
		Anamnesis:    "lethargy for two days",
		PhysicalExam: "mild dehydration",
		Diagnosis:    "gastroenteritis",
		Treatment:    "fluids and bland diet",
	}
}

func TestScheduleRejectsPastDate(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Schedule(context.Background(), "staff-1", ScheduleInput{
		PetID:       "pet-1",
		VetID:       "vet-1",
		ScheduledAt: testNow.AddDate(0, 0, -1),
		Type:        VisitCheckup,
		Reason:      "checkup",
	})
	if !errors.Is(err, ErrPastDate) {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}
}

func TestScheduleSameDayMargin(t *testing.T) {
	svc, _ := newTestService()

	base := ScheduleInput{
		PetID:  "pet-1",
		VetID:  "vet-1",
		Type:   VisitCheckup,
		Reason: "checkup",
	}

	// A menos de 5 minutos no entra.
	base.ScheduledAt = testNow.Add(4*time.Minute + 59*time.Second)
	if _, err := svc.Schedule(context.Background(), "staff-1", base); !errors.Is(err, ErrTooSoon) {
		t.Fatalf("expected ErrTooSoon, got %v", err)
	}

	// Exactamente 5 minutos pasa.
	base.ScheduledAt = testNow.Add(5 * time.Minute)
	if _, err := svc.Schedule(context.Background(), "staff-1", base); err != nil {
		t.Fatalf("exactly 5 minutes should pass, got %v", err)
	}

	// Mañana a cualquier hora pasa.
	base.ScheduledAt = time.Date(2026, 3, 11, 0, 30, 0, 0, time.UTC)
	if _, err := svc.Schedule(context.Background(), "staff-2", base); err != nil {
		t.Fatalf("tomorrow should pass, got %v", err)
	}
}

func TestScheduleWritesOneHistoryEntry(t *testing.T) {
	svc, repo := newTestService()

	a := scheduleOne(t, svc, "vet-1")

	entries := repo.history[a.ID]
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	if entries[0].Action != HistoryScheduled {
		t.Fatalf("expected SCHEDULED action, got %s", entries[0].Action)
	}
	if entries[0].UserID != "staff-1" {
		t.Fatalf("expected actor staff-1, got %s", entries[0].UserID)
	}
}

func TestTransitions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a := scheduleOne(t, svc, "vet-1")

	confirmed, err := svc.Confirm(ctx, "vet-1", a.ID)
	if err != nil || confirmed.Status != StatusConfirmed {
		t.Fatalf("confirm: status=%s err=%v", confirmed.Status, err)
	}

	// Confirmar dos veces no vale.
	if _, err := svc.Confirm(ctx, "vet-1", a.ID); !errors.Is(err, ErrBadState) {
		t.Fatalf("double confirm: expected ErrBadState, got %v", err)
	}

	started, err := svc.Start(ctx, "vet-1", a.ID)
	if err != nil || started.Status != StatusInProgress {
		t.Fatalf("start: status=%s err=%v", started.Status, err)
	}

	// Una consulta en curso no se cancela.
	if _, err := svc.Cancel(ctx, "vet-1", a.ID, "client asked"); !errors.Is(err, ErrBadState) {
		t.Fatalf("cancel in_progress: expected ErrBadState, got %v", err)
	}
}

func TestCancelFromConfirmed(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	a := scheduleOne(t, svc, "vet-1")
	if _, err := svc.Confirm(ctx, "vet-1", a.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	cancelled, err := svc.Cancel(ctx, "vet-1", a.ID, "pet recovered")
	if err != nil || cancelled.Status != StatusCancelled {
		t.Fatalf("cancel: status=%s err=%v", cancelled.Status, err)
	}

	last := repo.history[a.ID][len(repo.history[a.ID])-1]
	if last.Action != HistoryCancelled {
		t.Fatalf("expected CANCELLED entry, got %s", last.Action)
	}
	if last.Description != "appointment cancelled: pet recovered" {
		t.Fatalf("unexpected description: %q", last.Description)
	}
}

func TestOwnershipHidesAppointment(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a := scheduleOne(t, svc, "vet-1")

	// Otro veterinario recibe not found, no forbidden.
	if _, err := svc.Confirm(ctx, "vet-2", a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign vet, got %v", err)
	}
	if _, err := svc.SaveRecord(ctx, "vet-2", a.ID, validRecord()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign vet, got %v", err)
	}
	if _, err := svc.History(ctx, "vet-2", a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign vet, got %v", err)
	}
}

func TestSaveRecordCompletesAppointment(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	a := scheduleOne(t, svc, "vet-1")
	if _, err := svc.Start(ctx, "vet-1", a.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	before := len(repo.history[a.ID])

	rec, err := svc.SaveRecord(ctx, "vet-1", a.ID, validRecord())
	if err != nil {
		t.Fatalf("save record: %v", err)
	}

	if got := repo.appts[a.ID].Status; got != StatusCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
	entries := repo.history[a.ID]
	if len(entries) != before+1 {
		t.Fatalf("expected exactly one new history entry, got %d", len(entries)-before)
	}
	if entries[len(entries)-1].Action != HistoryRecordCreated {
		t.Fatalf("expected RECORD_CREATED, got %s", entries[len(entries)-1].Action)
	}

	// Volver a guardar actualiza el mismo prontuario y no revive estados.
	in := validRecord()
	in.Diagnosis = "gastroenteritis, resolving"
	again, err := svc.SaveRecord(ctx, "vet-1", a.ID, in)
	if err != nil {
		t.Fatalf("re-save record: %v", err)
	}
	if again.ID != rec.ID {
		t.Fatalf("expected same record, got new id")
	}
	if got := repo.appts[a.ID].Status; got != StatusCompleted {
		t.Fatalf("expected completed after re-save, got %s", got)
	}
	last := repo.history[a.ID][len(repo.history[a.ID])-1]
	if last.Action != HistoryRecordUpdated {
		t.Fatalf("expected RECORD_UPDATED, got %s", last.Action)
	}
}

func TestSaveRecordFromScheduled(t *testing.T) {
	// El prontuario cierra la consulta aunque nadie haya marcado el inicio.
	svc, repo := newTestService()

	a := scheduleOne(t, svc, "vet-1")
	if _, err := svc.SaveRecord(context.Background(), "vet-1", a.ID, validRecord()); err != nil {
		t.Fatalf("save record: %v", err)
	}
	if got := repo.appts[a.ID].Status; got != StatusCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
}

func TestSaveRecordValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a := scheduleOne(t, svc, "vet-1")

	in := validRecord()
	in.Diagnosis = "   "
	if _, err := svc.SaveRecord(ctx, "vet-1", a.ID, in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank diagnosis: expected ErrInvalidInput, got %v", err)
	}

	in = validRecord()
	temp := 60.0
	in.TemperatureC = &temp
	if _, err := svc.SaveRecord(ctx, "vet-1", a.ID, in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("absurd temperature: expected ErrInvalidInput, got %v", err)
	}
}

func TestPrescriptionRequiresRecord(t *testing.T) {
	svc, _ := newTestService()

	a := scheduleOne(t, svc, "vet-1")
	_, err := svc.AddPrescription(context.Background(), "vet-1", a.ID, PrescriptionInput{
		Drug:      "amoxicillin",
		Dosage:    "50mg",
		Frequency: "every 12h",
	})
	if !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState without record, got %v", err)
	}
}

func TestPrescriptionLifecycle(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	a := scheduleOne(t, svc, "vet-1")
	if _, err := svc.SaveRecord(ctx, "vet-1", a.ID, validRecord()); err != nil {
		t.Fatalf("save record: %v", err)
	}

	p, err := svc.AddPrescription(ctx, "vet-1", a.ID, PrescriptionInput{
		Drug:      "amoxicillin",
		Dosage:    "50mg",
		Frequency: "every 12h",
		Duration:  "7 days",
	})
	if err != nil {
		t.Fatalf("add prescription: %v", err)
	}
	if p.Route != RouteOral {
		t.Fatalf("expected default oral route, got %s", p.Route)
	}
	last := repo.history[a.ID][len(repo.history[a.ID])-1]
	if last.Action != HistoryPrescriptionAdd {
		t.Fatalf("expected PRESCRIPTION_ADDED, got %s", last.Action)
	}

	updated, err := svc.UpdatePrescription(ctx, "vet-1", a.ID, p.ID, PrescriptionInput{
		Drug:      "amoxicillin",
		Dosage:    "75mg",
		Frequency: "every 12h",
		Route:     RouteOral,
	})
	if err != nil || updated.Dosage != "75mg" {
		t.Fatalf("update prescription: dosage=%s err=%v", updated.Dosage, err)
	}

	if err := svc.DeletePrescription(ctx, "vet-1", a.ID, p.ID); err != nil {
		t.Fatalf("delete prescription: %v", err)
	}
	items, err := svc.ListPrescriptions(ctx, "vet-1", a.ID)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty list, got %d err=%v", len(items), err)
	}
}

func TestUpdateGuards(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a := scheduleOne(t, svc, "vet-1")

	// La validación de fecha aplica solo al crear: reagendar a una fecha
	// pasada se acepta.
	past := testNow.AddDate(0, 0, -2)
	updated, err := svc.Update(ctx, "vet-1", a.ID, UpdateInput{ScheduledAt: &past})
	if err != nil {
		t.Fatalf("reschedule to past: %v", err)
	}
	if !updated.ScheduledAt.Equal(past) {
		t.Fatalf("expected rescheduled time %v, got %v", past, updated.ScheduledAt)
	}

	if _, err := svc.SaveRecord(ctx, "vet-1", a.ID, validRecord()); err != nil {
		t.Fatalf("save record: %v", err)
	}

	reason := "changed my mind"
	if _, err := svc.Update(ctx, "vet-1", a.ID, UpdateInput{Reason: &reason}); !errors.Is(err, ErrBadState) {
		t.Fatalf("edit completed: expected ErrBadState, got %v", err)
	}
}

func TestCountOpenByVetExcludesClosed(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a1 := scheduleOne(t, svc, "vet-1")
	a2 := scheduleOne(t, svc, "vet-1")
	a3 := scheduleOne(t, svc, "vet-1")
	scheduleOne(t, svc, "vet-2")

	if _, err := svc.Cancel(ctx, "vet-1", a1.ID, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.MarkNoShow(ctx, "vet-1", a2.ID); err != nil {
		t.Fatalf("no-show: %v", err)
	}
	if _, err := svc.SaveRecord(ctx, "vet-1", a3.ID, validRecord()); err != nil {
		t.Fatalf("save record: %v", err)
	}

	// Una completada sigue contando como consulta vigente del vet.
	n, err := svc.CountOpenByVet(ctx, "vet-1")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 open appointment, got %d err=%v", n, err)
	}
}
