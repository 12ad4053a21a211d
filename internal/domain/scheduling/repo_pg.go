package scheduling

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/db"
)

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepo(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const apptSelect = `SELECT a.appointment_id, a.subject, a.description, a.date,
	a.patient_id, a.employee_id, a.is_confirmed,
	p.full_name, e.full_name, COALESCE(p.user_id, ''), COALESCE(e.user_id, '')
	FROM appointment a
	JOIN patient p ON p.patient_id = a.patient_id
	JOIN employee e ON e.employee_id = a.employee_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.Subject, &a.Description, &a.Date,
		&a.PatientID, &a.EmployeeID, &a.IsConfirmed,
		&a.PatientName, &a.EmployeeName, &a.PatientUserID, &a.EmployeeUserID)
	if err != nil {
		return nil, apperr.FromPG(err)
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (subject, description, date, patient_id, employee_id, is_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING appointment_id`,
		a.Subject, a.Description, a.Date, a.PatientID, a.EmployeeID, a.IsConfirmed,
	).Scan(&a.ID)
	return apperr.FromPG(err)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id int) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx, apptSelect+` WHERE a.appointment_id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET subject=$2, description=$3, date=$4, patient_id=$5, employee_id=$6, is_confirmed=$7
		WHERE appointment_id = $1`,
		a.ID, a.Subject, a.Description, a.Date, a.PatientID, a.EmployeeID, a.IsConfirmed,
	)
	if err != nil {
		return apperr.FromPG(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE appointment_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) List(ctx context.Context) ([]*Appointment, error) {
	return r.list(ctx, apptSelect+` ORDER BY a.date`)
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID int) ([]*Appointment, error) {
	return r.list(ctx, apptSelect+` WHERE a.patient_id = $1 ORDER BY a.date`, patientID)
}

func (r *appointmentRepoPG) ListByEmployee(ctx context.Context, employeeID int) ([]*Appointment, error) {
	return r.list(ctx, apptSelect+` WHERE a.employee_id = $1 ORDER BY a.date`, employeeID)
}

func (r *appointmentRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
