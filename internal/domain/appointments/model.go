package appointments

import "time"

// Appointment es una consulta veterinaria: una mascota, un veterinario
// asignado, un horario y un estado del ciclo de vida.
type Appointment struct {
	ID    string
	PetID string
	VetID string

	ScheduledAt time.Time
	Type        VisitType
	Status      Status

	Reason string
	Notes  string

	CreatedBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MedicalRecord es el prontuario: uno por consulta. Los vitales son
// opcionales; anamnesis, examen físico, diagnóstico y tratamiento no.
type MedicalRecord struct {
	ID            string
	AppointmentID string

	WeightKg        *float64
	TemperatureC    *float64
	HeartRate       *int
	RespiratoryRate *int

	Anamnesis    string
	PhysicalExam string
	Diagnosis    string
	Treatment    string
	Notes        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Prescription es una orden de medicación del prontuario.
type Prescription struct {
	ID       string
	RecordID string

	Drug         string
	Dosage       string
	Frequency    string
	Duration     string
	Route        Route
	Instructions string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HistoryEntry es el registro inmutable de una acción sobre la consulta.
// Nunca se edita ni se borra.
type HistoryEntry struct {
	ID            string
	AppointmentID string

	Action      HistoryAction
	Description string
	UserID      string

	CreatedAt time.Time
}
