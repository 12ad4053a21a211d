package identity

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/db"
)

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `patient_id, full_name, address, date_of_birth, phone_number, health_info, COALESCE(user_id, '')`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FullName, &p.Address, &p.DateOfBirth, &p.PhoneNumber, &p.HealthInfo, &p.UserID)
	if err != nil {
		return nil, apperr.FromPG(err)
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (full_name, address, date_of_birth, phone_number, health_info, user_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING patient_id`,
		p.FullName, p.Address, p.DateOfBirth, p.PhoneNumber, p.HealthInfo, p.UserID,
	).Scan(&p.ID)
	return apperr.FromPG(err)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE patient_id = $1`, id))
}

func (r *patientRepoPG) GetByUserID(ctx context.Context, userID string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE user_id = $1`, userID))
}

func (r *patientRepoPG) GetByPhone(ctx context.Context, phone string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE phone_number = $1`, phone))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET full_name=$2, address=$3, date_of_birth=$4, phone_number=$5, health_info=$6
		WHERE patient_id = $1`,
		p.ID, p.FullName, p.Address, p.DateOfBirth, p.PhoneNumber, p.HealthInfo,
	)
	if err != nil {
		return apperr.FromPG(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY patient_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// -- Employee Repository --

type employeeRepoPG struct {
	pool *pgxpool.Pool
}

func NewEmployeeRepo(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepoPG{pool: pool}
}

func (r *employeeRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const employeeCols = `employee_id, full_name, address, department, COALESCE(user_id, '')`

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	if err := row.Scan(&e.ID, &e.FullName, &e.Address, &e.Department, &e.UserID); err != nil {
		return nil, apperr.FromPG(err)
	}
	return &e, nil
}

func (r *employeeRepoPG) Create(ctx context.Context, e *Employee) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO employee (full_name, address, department, user_id)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING employee_id`,
		e.FullName, e.Address, e.Department, e.UserID,
	).Scan(&e.ID)
	return apperr.FromPG(err)
}

func (r *employeeRepoPG) GetByID(ctx context.Context, id int) (*Employee, error) {
	return scanEmployee(r.conn(ctx).QueryRow(ctx, `SELECT `+employeeCols+` FROM employee WHERE employee_id = $1`, id))
}

func (r *employeeRepoPG) GetByUserID(ctx context.Context, userID string) (*Employee, error) {
	return scanEmployee(r.conn(ctx).QueryRow(ctx, `SELECT `+employeeCols+` FROM employee WHERE user_id = $1`, userID))
}

func (r *employeeRepoPG) Update(ctx context.Context, e *Employee) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE employee SET full_name=$2, address=$3, department=$4
		WHERE employee_id = $1`,
		e.ID, e.FullName, e.Address, e.Department,
	)
	if err != nil {
		return apperr.FromPG(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *employeeRepoPG) List(ctx context.Context) ([]*Employee, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+employeeCols+` FROM employee ORDER BY employee_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
