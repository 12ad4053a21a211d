package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/auth"
)

const phoneInUse = "This phone number is already in use"

type Service struct {
	patients  PatientRepository
	employees EmployeeRepository
	logger    zerolog.Logger
}

func NewService(p PatientRepository, e EmployeeRepository, logger zerolog.Logger) *Service {
	return &Service{patients: p, employees: e, logger: logger}
}

// -- Patient --

func (s *Service) ListPatients(ctx context.Context, caller *auth.Principal) ([]*Patient, error) {
	if !caller.IsEmployee() {
		return nil, apperr.ErrForbidden
	}
	return s.patients.List(ctx)
}

func (s *Service) GetPatient(ctx context.Context, caller *auth.Principal, id int) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Owns(p.UserID) {
		return nil, apperr.ErrForbidden
	}
	return p, nil
}

func (s *Service) GetPatientByUserID(ctx context.Context, caller *auth.Principal, userID string) (*Patient, error) {
	if !caller.Owns(userID) {
		return nil, apperr.ErrForbidden
	}
	p, err := s.patients.GetByUserID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFoundf("patient with user id %s not found", userID)
	}
	return p, err
}

// PatientOwner returns the account id linked to a patient row, which is
// empty for a patient without an account.
func (s *Service) PatientOwner(ctx context.Context, patientID int) (string, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return "", err
	}
	return p.UserID, nil
}

// PatientIDForUser returns the patient row id linked to userID.
func (s *Service) PatientIDForUser(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, apperr.ErrNotFound
	}
	p, err := s.patients.GetByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

// UpdatePatient replaces the profile fields of patient id. The account link
// is never changed through this path.
func (s *Service) UpdatePatient(ctx context.Context, caller *auth.Principal, id int, dto PatientDTO) (*Patient, error) {
	if dto.PatientID != id {
		return nil, apperr.Mismatch("patient")
	}
	existing, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Owns(existing.UserID) {
		return nil, apperr.ErrForbidden
	}

	updated := dto.ToEntity()
	updated.ID = id
	updated.UserID = existing.UserID

	if updated.PhoneNumber != nil {
		other, err := s.patients.GetByPhone(ctx, *updated.PhoneNumber)
		switch {
		case err == nil && other.ID != id:
			return nil, apperr.Invalid("phonenumber", phoneInUse)
		case err != nil && !errors.Is(err, apperr.ErrNotFound):
			return nil, err
		}
	}

	if err := s.patients.Update(ctx, updated); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Invalid("phonenumber", phoneInUse)
		}
		return nil, err
	}
	s.logger.Info().Int("patient_id", id).Str("user_id", caller.UserID).Msg("patient profile updated")
	return updated, nil
}

// -- Employee --

func (s *Service) ListEmployees(ctx context.Context) ([]*Employee, error) {
	return s.employees.List(ctx)
}

func (s *Service) GetEmployee(ctx context.Context, id int) (*Employee, error) {
	return s.employees.GetByID(ctx, id)
}

func (s *Service) GetEmployeeByUserID(ctx context.Context, userID string) (*Employee, error) {
	e, err := s.employees.GetByUserID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFoundf("employee with user id %s not found", userID)
	}
	return e, err
}

// UpdateEmployee lets an employee edit their own profile only.
func (s *Service) UpdateEmployee(ctx context.Context, caller *auth.Principal, id int, dto EmployeeDTO) (*Employee, error) {
	if dto.EmployeeID != id {
		return nil, apperr.Mismatch("employee")
	}
	existing, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID == "" || existing.UserID != caller.UserID {
		return nil, apperr.ErrForbidden
	}

	updated := dto.ToEntity()
	updated.ID = id
	updated.UserID = existing.UserID
	if err := s.employees.Update(ctx, updated); err != nil {
		return nil, err
	}
	s.logger.Info().Int("employee_id", id).Msg("employee profile updated")
	return updated, nil
}

// -- Profiles --

// CreateProfile inserts the empty profile row for a newly registered
// account. It joins the caller's transaction when ctx carries one.
func (s *Service) CreateProfile(ctx context.Context, role, userID string) error {
	switch role {
	case auth.RolePatient:
		return s.patients.Create(ctx, &Patient{UserID: userID})
	case auth.RoleEmployee:
		return s.employees.Create(ctx, &Employee{UserID: userID})
	default:
		return fmt.Errorf("no profile for role %q", role)
	}
}
