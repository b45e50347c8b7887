package appointments

// Status es el estado de la consulta.
// scheduled → confirmed → in_progress → completed
// scheduled/confirmed → cancelled | no_show
// completed, cancelled y no_show son terminales.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// IsTerminal reporta si el estado no admite más transiciones explícitas.
// Guardar el prontuario sigue siendo válido sobre completed (idempotente).
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// CanEdit: editar y cancelar solo se permite antes de iniciar la atención.
func (s Status) CanEdit() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// VisitType es el tipo de atención.
type VisitType string

const (
	VisitCheckup     VisitType = "checkup"
	VisitFollowUp    VisitType = "follow_up"
	VisitEmergency   VisitType = "emergency"
	VisitSurgery     VisitType = "surgery"
	VisitVaccination VisitType = "vaccination"
	VisitExam        VisitType = "exam"
)

func ValidVisitType(t VisitType) bool {
	switch t {
	case VisitCheckup, VisitFollowUp, VisitEmergency, VisitSurgery, VisitVaccination, VisitExam:
		return true
	}
	return false
}

// Route es la vía de administración de una receta.
type Route string

const (
	RouteOral          Route = "oral"
	RouteTopical       Route = "topical"
	RouteIntramuscular Route = "intramuscular"
	RouteIntravenous   Route = "intravenous"
	RouteSubcutaneous  Route = "subcutaneous"
	RouteOcular        Route = "ocular"
	RouteAuricular     Route = "auricular"
	RouteOther         Route = "other"
)

func ValidRoute(r Route) bool {
	switch r {
	case RouteOral, RouteTopical, RouteIntramuscular, RouteIntravenous,
		RouteSubcutaneous, RouteOcular, RouteAuricular, RouteOther:
		return true
	}
	return false
}

// HistoryAction etiqueta cada entrada del historial de la consulta.
type HistoryAction string

const (
	HistoryScheduled        HistoryAction = "SCHEDULED"
	HistoryConfirmed        HistoryAction = "CONFIRMED"
	HistoryTreatmentStarted HistoryAction = "TREATMENT_STARTED"
	HistoryRecordCreated    HistoryAction = "RECORD_CREATED"
	HistoryRecordUpdated    HistoryAction = "RECORD_UPDATED"
	HistoryPrescriptionAdd  HistoryAction = "PRESCRIPTION_ADDED"
	HistoryCancelled        HistoryAction = "CANCELLED"
	HistoryNoShow           HistoryAction = "NO_SHOW"
	HistoryUpdated          HistoryAction = "UPDATED"
	HistoryNote             HistoryAction = "NOTE"
)
