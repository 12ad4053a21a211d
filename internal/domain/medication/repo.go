package medication

import "context"

type MedicationRepository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id int) (*Medication, error)
	Update(ctx context.Context, m *Medication) error
	Delete(ctx context.Context, id int) error
	ListAll(ctx context.Context) ([]*Medication, error)
	// ListByPatient returns every medication of the patient, ended ones included.
	ListByPatient(ctx context.Context, patientID int) ([]*Medication, error)
	ListByUserID(ctx context.Context, userID string) ([]*Medication, error)
}
