package medication

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/db"
)

type medicationRepoPG struct {
	pool *pgxpool.Pool
}

func NewMedicationRepo(pool *pgxpool.Pool) MedicationRepository {
	return &medicationRepoPG{pool: pool}
}

func (r *medicationRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const medSelect = `SELECT m.medication_id, COALESCE(m.medicine_name, ''), m.name, m.patient_id,
	m.indication, m.dosage, m.start_date, m.end_date,
	p.full_name, COALESCE(p.user_id, '')
	FROM medication m
	JOIN patient p ON p.patient_id = m.patient_id`

func scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.MedicineName, &m.Name, &m.PatientID,
		&m.Indication, &m.Dosage, &m.StartDate, &m.EndDate,
		&m.PatientName, &m.PatientUserID)
	if err != nil {
		return nil, apperr.FromPG(err)
	}
	return &m, nil
}

func (r *medicationRepoPG) Create(ctx context.Context, m *Medication) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medication (medicine_name, name, patient_id, indication, dosage, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING medication_id`,
		m.MedicineName, m.Name, m.PatientID, m.Indication, m.Dosage, m.StartDate, m.EndDate,
	).Scan(&m.ID)
	return apperr.FromPG(err)
}

func (r *medicationRepoPG) GetByID(ctx context.Context, id int) (*Medication, error) {
	return scanMedication(r.conn(ctx).QueryRow(ctx, medSelect+` WHERE m.medication_id = $1`, id))
}

func (r *medicationRepoPG) Update(ctx context.Context, m *Medication) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medication SET medicine_name=$2, name=$3, patient_id=$4, indication=$5, dosage=$6,
			start_date=$7, end_date=$8
		WHERE medication_id = $1`,
		m.ID, m.MedicineName, m.Name, m.PatientID, m.Indication, m.Dosage, m.StartDate, m.EndDate,
	)
	if err != nil {
		return apperr.FromPG(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *medicationRepoPG) Delete(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medication WHERE medication_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *medicationRepoPG) ListAll(ctx context.Context) ([]*Medication, error) {
	return r.list(ctx, medSelect+` ORDER BY m.start_date DESC, m.medication_id`)
}

func (r *medicationRepoPG) ListByPatient(ctx context.Context, patientID int) ([]*Medication, error) {
	return r.list(ctx, medSelect+`
		WHERE m.patient_id = $1
		ORDER BY m.start_date DESC, m.medication_id`, patientID)
}

func (r *medicationRepoPG) ListByUserID(ctx context.Context, userID string) ([]*Medication, error) {
	return r.list(ctx, medSelect+` WHERE p.user_id = $1 ORDER BY m.start_date DESC, m.medication_id`, userID)
}

func (r *medicationRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Medication, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
