package memory

import (
	"context"
	"sort"
	"sync"

	"vet-clinic-api/internal/domain/appointments"
)

// AppointmentsRepo guarda consultas, prontuarios, recetas e historial
// bajo un único mutex: cada mutación con su entrada de historial entra
// completa o no entra.
type AppointmentsRepo struct {
	mu            sync.RWMutex
	appts         map[string]appointments.Appointment
	records       map[string]appointments.MedicalRecord // por record ID
	recordByAppt  map[string]string                     // appointment ID → record ID
	prescriptions map[string]appointments.Prescription
	history       map[string][]appointments.HistoryEntry // por appointment ID
}

func NewAppointmentsRepo() *AppointmentsRepo {
	return &AppointmentsRepo{
		appts:         make(map[string]appointments.Appointment),
		records:       make(map[string]appointments.MedicalRecord),
		recordByAppt:  make(map[string]string),
		prescriptions: make(map[string]appointments.Prescription),
		history:       make(map[string][]appointments.HistoryEntry),
	}
}

var _ appointments.Repository = (*AppointmentsRepo)(nil)

func (r *AppointmentsRepo) Create(_ context.Context, a appointments.Appointment, h appointments.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appts[a.ID] = a
	r.history[a.ID] = append(r.history[a.ID], h)
	return nil
}

func (r *AppointmentsRepo) Update(_ context.Context, a appointments.Appointment, h appointments.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appts[a.ID]; !ok {
		return ErrNotFound
	}
	r.appts[a.ID] = a
	r.history[a.ID] = append(r.history[a.ID], h)
	return nil
}

func (r *AppointmentsRepo) GetByID(_ context.Context, id string) (appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appts[id]
	if !ok {
		return appointments.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (r *AppointmentsRepo) ListByVet(_ context.Context, vetID string, filter appointments.ListFilter) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.appts {
		if a.VetID != vetID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.From != nil && a.ScheduledAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !a.ScheduledAt.Before(*filter.To) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *AppointmentsRepo) ListByPet(_ context.Context, petID string) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]appointments.Appointment, 0)
	for _, a := range r.appts {
		if a.PetID == petID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r *AppointmentsRepo) CountOpenByVet(_ context.Context, vetID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, a := range r.appts {
		if a.VetID != vetID {
			continue
		}
		if a.Status == appointments.StatusCancelled || a.Status == appointments.StatusNoShow {
			continue
		}
		n++
	}
	return n, nil
}

func (r *AppointmentsRepo) SaveRecord(_ context.Context, a appointments.Appointment, rec appointments.MedicalRecord, h appointments.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appts[a.ID]; !ok {
		return ErrNotFound
	}
	r.appts[a.ID] = a
	r.records[rec.ID] = rec
	r.recordByAppt[rec.AppointmentID] = rec.ID
	r.history[a.ID] = append(r.history[a.ID], h)
	return nil
}

func (r *AppointmentsRepo) GetRecordByID(_ context.Context, id string) (appointments.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return appointments.MedicalRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r *AppointmentsRepo) GetRecordByAppointment(_ context.Context, appointmentID string) (appointments.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.recordByAppt[appointmentID]
	if !ok {
		return appointments.MedicalRecord{}, ErrNotFound
	}
	return r.records[id], nil
}

func (r *AppointmentsRepo) AddPrescription(_ context.Context, p appointments.Prescription, h appointments.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prescriptions[p.ID] = p
	r.history[h.AppointmentID] = append(r.history[h.AppointmentID], h)
	return nil
}

func (r *AppointmentsRepo) UpdatePrescription(_ context.Context, p appointments.Prescription, h appointments.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prescriptions[p.ID]; !ok {
		return ErrNotFound
	}
	r.prescriptions[p.ID] = p
	r.history[h.AppointmentID] = append(r.history[h.AppointmentID], h)
	return nil
}

func (r *AppointmentsRepo) DeletePrescription(_ context.Context, id string, h appointments.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prescriptions[id]; !ok {
		return ErrNotFound
	}
	delete(r.prescriptions, id)
	r.history[h.AppointmentID] = append(r.history[h.AppointmentID], h)
	return nil
}

func (r *AppointmentsRepo) GetPrescriptionByID(_ context.Context, id string) (appointments.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prescriptions[id]
	if !ok {
		return appointments.Prescription{}, ErrNotFound
	}
	return p, nil
}

func (r *AppointmentsRepo) ListPrescriptions(_ context.Context, recordID string) ([]appointments.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]appointments.Prescription, 0)
	for _, p := range r.prescriptions {
		if p.RecordID == recordID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *AppointmentsRepo) ListHistory(_ context.Context, appointmentID string) ([]appointments.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.history[appointmentID]
	out := make([]appointments.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}
