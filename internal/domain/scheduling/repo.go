package scheduling

import "context"

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context) ([]*Appointment, error)
	ListByPatient(ctx context.Context, patientID int) ([]*Appointment, error)
	ListByEmployee(ctx context.Context, employeeID int) ([]*Appointment, error)
}
