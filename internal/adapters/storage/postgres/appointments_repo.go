package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"vet-clinic-api/internal/domain/appointments"
)

// AppointmentsRepo persiste el agregado de consultas. Cada mutación corre
// en una transacción junto con su entrada de historial.
type AppointmentsRepo struct {
	db *sql.DB
}

func NewAppointmentsRepo(db *sql.DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

var _ appointments.Repository = (*AppointmentsRepo)(nil)

const apptColumns = `id, pet_id, vet_id, scheduled_at, type, status, reason, notes,
	created_by, created_at, updated_at`

const recordColumns = `id, appointment_id, weight_kg, temperature_c, heart_rate,
	respiratory_rate, anamnesis, physical_exam, diagnosis, treatment, notes,
	created_at, updated_at`

const prescriptionColumns = `id, record_id, drug, dosage, frequency, duration, route,
	instructions, created_at, updated_at`

func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment, h appointments.HistoryEntry) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		const q = `
			INSERT INTO appointments (` + apptColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		_, err := tx.ExecContext(ctx, q,
			a.ID, a.PetID, a.VetID, a.ScheduledAt, string(a.Type), string(a.Status),
			a.Reason, a.Notes, a.CreatedBy, a.CreatedAt, a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("postgres: create appointment: %w", err)
		}
		return insertHistory(ctx, tx, h)
	})
}

func (r *AppointmentsRepo) Update(ctx context.Context, a appointments.Appointment, h appointments.HistoryEntry) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := updateAppointment(ctx, tx, a); err != nil {
			return err
		}
		return insertHistory(ctx, tx, h)
	})
}

func updateAppointment(ctx context.Context, tx *sql.Tx, a appointments.Appointment) error {
	const q = `
		UPDATE appointments SET
			scheduled_at = $2, type = $3, status = $4, reason = $5, notes = $6,
			updated_at = $7
		WHERE id = $1`
	res, err := tx.ExecContext(ctx, q,
		a.ID, a.ScheduledAt, string(a.Type), string(a.Status), a.Reason, a.Notes, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: update appointment: %w", err)
	}
	return checkAffected(res)
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	q := `SELECT ` + apptColumns + ` FROM appointments WHERE id = $1`
	return scanAppointment(r.db.QueryRowContext(ctx, q, id))
}

func (r *AppointmentsRepo) ListByVet(ctx context.Context, vetID string, filter appointments.ListFilter) ([]appointments.Appointment, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + apptColumns + ` FROM appointments WHERE vet_id = $1`)
	args := []any{vetID}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		fmt.Fprintf(&sb, " AND status = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		fmt.Fprintf(&sb, " AND scheduled_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		fmt.Fprintf(&sb, " AND scheduled_at < $%d", len(args))
	}
	sb.WriteString(" ORDER BY scheduled_at")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	return r.queryAppointments(ctx, sb.String(), args...)
}

func (r *AppointmentsRepo) ListByPet(ctx context.Context, petID string) ([]appointments.Appointment, error) {
	q := `SELECT ` + apptColumns + ` FROM appointments WHERE pet_id = $1 ORDER BY scheduled_at`
	return r.queryAppointments(ctx, q, petID)
}

func (r *AppointmentsRepo) queryAppointments(ctx context.Context, q string, args ...any) ([]appointments.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list appointments: %w", err)
	}
	defer rows.Close()

	out := make([]appointments.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AppointmentsRepo) CountOpenByVet(ctx context.Context, vetID string) (int, error) {
	const q = `
		SELECT COUNT(*) FROM appointments
		WHERE vet_id = $1 AND status NOT IN ('cancelled', 'no_show')`
	var n int
	if err := r.db.QueryRowContext(ctx, q, vetID).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count open appointments: %w", err)
	}
	return n, nil
}

func (r *AppointmentsRepo) SaveRecord(ctx context.Context, a appointments.Appointment, rec appointments.MedicalRecord, h appointments.HistoryEntry) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := updateAppointment(ctx, tx, a); err != nil {
			return err
		}

		const q = `
			INSERT INTO medical_records (` + recordColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (appointment_id) DO UPDATE SET
				weight_kg = EXCLUDED.weight_kg,
				temperature_c = EXCLUDED.temperature_c,
				heart_rate = EXCLUDED.heart_rate,
				respiratory_rate = EXCLUDED.respiratory_rate,
				anamnesis = EXCLUDED.anamnesis,
				physical_exam = EXCLUDED.physical_exam,
				diagnosis = EXCLUDED.diagnosis,
				treatment = EXCLUDED.treatment,
				notes = EXCLUDED.notes,
				updated_at = EXCLUDED.updated_at`
		_, err := tx.ExecContext(ctx, q,
			rec.ID, rec.AppointmentID, rec.WeightKg, rec.TemperatureC, rec.HeartRate,
			rec.RespiratoryRate, rec.Anamnesis, rec.PhysicalExam, rec.Diagnosis,
			rec.Treatment, rec.Notes, rec.CreatedAt, rec.UpdatedAt)
		if err != nil {
			return fmt.Errorf("postgres: save medical record: %w", err)
		}
		return insertHistory(ctx, tx, h)
	})
}

func (r *AppointmentsRepo) GetRecordByID(ctx context.Context, id string) (appointments.MedicalRecord, error) {
	q := `SELECT ` + recordColumns + ` FROM medical_records WHERE id = $1`
	return scanRecord(r.db.QueryRowContext(ctx, q, id))
}

func (r *AppointmentsRepo) GetRecordByAppointment(ctx context.Context, appointmentID string) (appointments.MedicalRecord, error) {
	q := `SELECT ` + recordColumns + ` FROM medical_records WHERE appointment_id = $1`
	return scanRecord(r.db.QueryRowContext(ctx, q, appointmentID))
}

func (r *AppointmentsRepo) AddPrescription(ctx context.Context, p appointments.Prescription, h appointments.HistoryEntry) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		const q = `
			INSERT INTO prescriptions (` + prescriptionColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
		_, err := tx.ExecContext(ctx, q,
			p.ID, p.RecordID, p.Drug, p.Dosage, p.Frequency, p.Duration,
			string(p.Route), p.Instructions, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("postgres: add prescription: %w", err)
		}
		return insertHistory(ctx, tx, h)
	})
}

func (r *AppointmentsRepo) UpdatePrescription(ctx context.Context, p appointments.Prescription, h appointments.HistoryEntry) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		const q = `
			UPDATE prescriptions SET
				drug = $2, dosage = $3, frequency = $4, duration = $5, route = $6,
				instructions = $7, updated_at = $8
			WHERE id = $1`
		res, err := tx.ExecContext(ctx, q,
			p.ID, p.Drug, p.Dosage, p.Frequency, p.Duration, string(p.Route),
			p.Instructions, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("postgres: update prescription: %w", err)
		}
		if err := checkAffected(res); err != nil {
			return err
		}
		return insertHistory(ctx, tx, h)
	})
}

func (r *AppointmentsRepo) DeletePrescription(ctx context.Context, id string, h appointments.HistoryEntry) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("postgres: delete prescription: %w", err)
		}
		if err := checkAffected(res); err != nil {
			return err
		}
		return insertHistory(ctx, tx, h)
	})
}

func (r *AppointmentsRepo) GetPrescriptionByID(ctx context.Context, id string) (appointments.Prescription, error) {
	q := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = $1`
	return scanPrescription(r.db.QueryRowContext(ctx, q, id))
}

func (r *AppointmentsRepo) ListPrescriptions(ctx context.Context, recordID string) ([]appointments.Prescription, error) {
	q := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE record_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, recordID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list prescriptions: %w", err)
	}
	defer rows.Close()

	out := make([]appointments.Prescription, 0)
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *AppointmentsRepo) ListHistory(ctx context.Context, appointmentID string) ([]appointments.HistoryEntry, error) {
	const q = `
		SELECT id, appointment_id, action, description, user_id, created_at
		FROM appointment_history
		WHERE appointment_id = $1
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list history: %w", err)
	}
	defer rows.Close()

	out := make([]appointments.HistoryEntry, 0)
	for rows.Next() {
		var h appointments.HistoryEntry
		var action string
		if err := rows.Scan(&h.ID, &h.AppointmentID, &action, &h.Description, &h.UserID, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan history: %w", err)
		}
		h.Action = appointments.HistoryAction(action)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *AppointmentsRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertHistory(ctx context.Context, tx *sql.Tx, h appointments.HistoryEntry) error {
	const q = `
		INSERT INTO appointment_history (id, appointment_id, action, description, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := tx.ExecContext(ctx, q,
		h.ID, h.AppointmentID, string(h.Action), h.Description, h.UserID, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert history: %w", err)
	}
	return nil
}

func scanAppointment(row rowScanner) (appointments.Appointment, error) {
	var a appointments.Appointment
	var typ, status string
	err := row.Scan(&a.ID, &a.PetID, &a.VetID, &a.ScheduledAt, &typ, &status,
		&a.Reason, &a.Notes, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return appointments.Appointment{}, ErrNotFound
	}
	if err != nil {
		return appointments.Appointment{}, fmt.Errorf("postgres: scan appointment: %w", err)
	}
	a.Type = appointments.VisitType(typ)
	a.Status = appointments.Status(status)
	return a, nil
}

func scanRecord(row rowScanner) (appointments.MedicalRecord, error) {
	var rec appointments.MedicalRecord
	err := row.Scan(&rec.ID, &rec.AppointmentID, &rec.WeightKg, &rec.TemperatureC,
		&rec.HeartRate, &rec.RespiratoryRate, &rec.Anamnesis, &rec.PhysicalExam,
		&rec.Diagnosis, &rec.Treatment, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return appointments.MedicalRecord{}, ErrNotFound
	}
	if err != nil {
		return appointments.MedicalRecord{}, fmt.Errorf("postgres: scan record: %w", err)
	}
	return rec, nil
}

func scanPrescription(row rowScanner) (appointments.Prescription, error) {
	var p appointments.Prescription
	var route string
	err := row.Scan(&p.ID, &p.RecordID, &p.Drug, &p.Dosage, &p.Frequency,
		&p.Duration, &route, &p.Instructions, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return appointments.Prescription{}, ErrNotFound
	}
	if err != nil {
		return appointments.Prescription{}, fmt.Errorf("postgres: scan prescription: %w", err)
	}
	p.Route = appointments.Route(route)
	return p, nil
}
