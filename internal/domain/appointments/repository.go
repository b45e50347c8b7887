package appointments

import (
	"context"
	"time"
)

// Repository persiste el agregado completo de consultas: consulta,
// prontuario, recetas e historial. Las operaciones que mutan reciben la
// entrada de historial y deben aplicarla en la misma unidad atómica: una
// mutación sin su entrada es un defecto, no un estado parcial tolerado.
type Repository interface {
	Create(ctx context.Context, a Appointment, h HistoryEntry) error
	Update(ctx context.Context, a Appointment, h HistoryEntry) error
	GetByID(ctx context.Context, id string) (Appointment, error)
	ListByVet(ctx context.Context, vetID string, filter ListFilter) ([]Appointment, error)
	ListByPet(ctx context.Context, petID string) ([]Appointment, error)
	CountOpenByVet(ctx context.Context, vetID string) (int, error)

	// SaveRecord upserta el prontuario, actualiza la consulta (estado
	// forzado a completed) y agrega el historial, todo junto.
	SaveRecord(ctx context.Context, a Appointment, rec MedicalRecord, h HistoryEntry) error
	GetRecordByID(ctx context.Context, id string) (MedicalRecord, error)
	GetRecordByAppointment(ctx context.Context, appointmentID string) (MedicalRecord, error)

	AddPrescription(ctx context.Context, p Prescription, h HistoryEntry) error
	UpdatePrescription(ctx context.Context, p Prescription, h HistoryEntry) error
	DeletePrescription(ctx context.Context, id string, h HistoryEntry) error
	GetPrescriptionByID(ctx context.Context, id string) (Prescription, error)
	ListPrescriptions(ctx context.Context, recordID string) ([]Prescription, error)

	ListHistory(ctx context.Context, appointmentID string) ([]HistoryEntry, error)
}

type ListFilter struct {
	Status Status
	From   *time.Time
	To     *time.Time
	Limit  int
}
