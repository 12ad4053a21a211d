package identity

import (
	"context"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int) (*Patient, error)
	GetByUserID(ctx context.Context, userID string) (*Patient, error)
	GetByPhone(ctx context.Context, phone string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context) ([]*Patient, error)
}

type EmployeeRepository interface {
	Create(ctx context.Context, e *Employee) error
	GetByID(ctx context.Context, id int) (*Employee, error)
	GetByUserID(ctx context.Context, userID string) (*Employee, error)
	Update(ctx context.Context, e *Employee) error
	List(ctx context.Context) ([]*Employee, error)
}
