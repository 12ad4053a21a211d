package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/auth"
	"github.com/homecare/homecare/pkg/datetime"
)

// -- Mock Patient Repository --

type mockPatientRepo struct {
	patients map[int]*Patient
	nextID   int
	updates  int
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[int]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	for _, existing := range m.patients {
		if p.UserID != "" && existing.UserID == p.UserID {
			return apperr.ErrConflict
		}
	}
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id int) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) GetByUserID(_ context.Context, userID string) (*Patient, error) {
	for _, p := range m.patients {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *mockPatientRepo) GetByPhone(_ context.Context, phone string) (*Patient, error) {
	for _, p := range m.patients {
		if p.PhoneNumber != nil && *p.PhoneNumber == phone {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return apperr.ErrNotFound
	}
	m.updates++
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) List(_ context.Context) ([]*Patient, error) {
	var out []*Patient
	for i := 1; i <= m.nextID; i++ {
		if p, ok := m.patients[i]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// -- Mock Employee Repository --

type mockEmployeeRepo struct {
	employees map[int]*Employee
	nextID    int
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{employees: make(map[int]*Employee)}
}

func (m *mockEmployeeRepo) Create(_ context.Context, e *Employee) error {
	m.nextID++
	e.ID = m.nextID
	cp := *e
	m.employees[e.ID] = &cp
	return nil
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id int) (*Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockEmployeeRepo) GetByUserID(_ context.Context, userID string) (*Employee, error) {
	for _, e := range m.employees {
		if e.UserID == userID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *mockEmployeeRepo) Update(_ context.Context, e *Employee) error {
	if _, ok := m.employees[e.ID]; !ok {
		return apperr.ErrNotFound
	}
	cp := *e
	m.employees[e.ID] = &cp
	return nil
}

func (m *mockEmployeeRepo) List(_ context.Context) ([]*Employee, error) {
	var out []*Employee
	for i := 1; i <= m.nextID; i++ {
		if e, ok := m.employees[i]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestService() (*Service, *mockPatientRepo, *mockEmployeeRepo) {
	pr := newMockPatientRepo()
	er := newMockEmployeeRepo()
	return NewService(pr, er, zerolog.Nop()), pr, er
}

func strPtr(s string) *string { return &s }

var (
	patientAlice = auth.NewPrincipal("u-alice", auth.RolePatient)
	patientBob   = auth.NewPrincipal("u-bob", auth.RolePatient)
	employeeIda  = auth.NewPrincipal("u-ida", auth.RoleEmployee)
)

func validPatientDTO(id int) PatientDTO {
	return PatientDTO{
		PatientID:   id,
		FullName:    "Alice Berg",
		Address:     "Storgata 1, 0181 Oslo",
		DateOfBirth: datetime.NewDate(time.Date(1950, 1, 2, 0, 0, 0, 0, time.UTC)),
		PhoneNumber: "+4712345678",
		HealthInfo:  "Diabetes",
	}
}

func TestListPatients_EmployeeOnly(t *testing.T) {
	svc, pr, _ := newTestService()
	pr.Create(context.Background(), &Patient{UserID: "u-alice"})

	if _, err := svc.ListPatients(context.Background(), patientAlice); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	items, err := svc.ListPatients(context.Background(), employeeIda)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 patient, got %d", len(items))
	}
}

func TestGetPatient_Ownership(t *testing.T) {
	svc, pr, _ := newTestService()
	p := &Patient{UserID: "u-alice"}
	pr.Create(context.Background(), p)

	if _, err := svc.GetPatient(context.Background(), patientAlice, p.ID); err != nil {
		t.Errorf("owner should read own profile: %v", err)
	}
	if _, err := svc.GetPatient(context.Background(), employeeIda, p.ID); err != nil {
		t.Errorf("employee should read any profile: %v", err)
	}
	if _, err := svc.GetPatient(context.Background(), patientBob, p.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if _, err := svc.GetPatient(context.Background(), employeeIda, 99); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestGetPatientByUserID(t *testing.T) {
	svc, pr, _ := newTestService()
	pr.Create(context.Background(), &Patient{UserID: "u-alice"})

	p, err := svc.GetPatientByUserID(context.Background(), patientAlice, "u-alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Complete() {
		t.Error("fresh profile should be incomplete")
	}
	if _, err := svc.GetPatientByUserID(context.Background(), patientBob, "u-alice"); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if _, err := svc.GetPatientByUserID(context.Background(), patientBob, "u-bob"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpdatePatient_IDMismatch(t *testing.T) {
	svc, pr, _ := newTestService()
	_, err := svc.UpdatePatient(context.Background(), employeeIda, 1, validPatientDTO(2))
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if pr.updates != 0 {
		t.Error("repository must not be touched on mismatch")
	}
}

func TestUpdatePatient_KeepsAccountLink(t *testing.T) {
	svc, pr, _ := newTestService()
	p := &Patient{UserID: "u-alice"}
	pr.Create(context.Background(), p)

	dto := validPatientDTO(p.ID)
	dto.UserID = "u-someone-else"
	updated, err := svc.UpdatePatient(context.Background(), patientAlice, p.ID, dto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.UserID != "u-alice" {
		t.Errorf("account link changed to %s", updated.UserID)
	}
	stored, _ := pr.GetByID(context.Background(), p.ID)
	if stored.FullName != "Alice Berg" || !stored.Complete() {
		t.Errorf("profile not stored: %+v", stored)
	}
}

func TestUpdatePatient_Forbidden(t *testing.T) {
	svc, pr, _ := newTestService()
	p := &Patient{UserID: "u-alice"}
	pr.Create(context.Background(), p)

	if _, err := svc.UpdatePatient(context.Background(), patientBob, p.ID, validPatientDTO(p.ID)); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdatePatient_PhoneInUse(t *testing.T) {
	svc, pr, _ := newTestService()
	pr.Create(context.Background(), &Patient{UserID: "u-bob", PhoneNumber: strPtr("+4712345678")})
	alice := &Patient{UserID: "u-alice"}
	pr.Create(context.Background(), alice)

	_, err := svc.UpdatePatient(context.Background(), patientAlice, alice.ID, validPatientDTO(alice.ID))
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) || ve.Fields[0].Message != phoneInUse {
		t.Fatalf("expected phone in use error, got %v", err)
	}
}

func TestUpdatePatient_OwnPhoneAllowed(t *testing.T) {
	svc, pr, _ := newTestService()
	alice := &Patient{UserID: "u-alice", PhoneNumber: strPtr("+4712345678")}
	pr.Create(context.Background(), alice)

	if _, err := svc.UpdatePatient(context.Background(), patientAlice, alice.ID, validPatientDTO(alice.ID)); err != nil {
		t.Fatalf("keeping the same number should succeed: %v", err)
	}
}

func TestUpdateEmployee_OwnerOnly(t *testing.T) {
	svc, _, er := newTestService()
	ida := &Employee{UserID: "u-ida"}
	per := &Employee{UserID: "u-per"}
	er.Create(context.Background(), ida)
	er.Create(context.Background(), per)

	dto := EmployeeDTO{EmployeeID: per.ID, FullName: "Per Andersen", Address: "Bakkeveien 12", Department: "Oslo"}
	if _, err := svc.UpdateEmployee(context.Background(), employeeIda, per.ID, dto); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	dto.EmployeeID = ida.ID
	dto.FullName = "Ida Johansen"
	if _, err := svc.UpdateEmployee(context.Background(), employeeIda, ida.ID, dto); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := er.GetByID(context.Background(), ida.ID)
	if stored.FullName != "Ida Johansen" || stored.UserID != "u-ida" {
		t.Errorf("unexpected stored employee %+v", stored)
	}
}

func TestUpdateEmployee_Mismatch(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.UpdateEmployee(context.Background(), employeeIda, 1, EmployeeDTO{EmployeeID: 2})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateProfile(t *testing.T) {
	svc, pr, er := newTestService()
	if err := svc.CreateProfile(context.Background(), auth.RolePatient, "u-alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.CreateProfile(context.Background(), auth.RoleEmployee, "u-ida"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.CreateProfile(context.Background(), "Admin", "u-x"); err == nil {
		t.Error("expected error for unknown role")
	}

	p, err := pr.GetByUserID(context.Background(), "u-alice")
	if err != nil || p.Complete() {
		t.Errorf("expected empty patient profile, got %+v (%v)", p, err)
	}
	if _, err := er.GetByUserID(context.Background(), "u-ida"); err != nil {
		t.Errorf("expected employee profile: %v", err)
	}
}

func TestPatientOwner(t *testing.T) {
	svc, pr, _ := newTestService()
	p := &Patient{UserID: "u-alice"}
	pr.Create(context.Background(), p)

	owner, err := svc.PatientOwner(context.Background(), p.ID)
	if err != nil || owner != "u-alice" {
		t.Errorf("expected u-alice, got %q (%v)", owner, err)
	}
	if _, err := svc.PatientOwner(context.Background(), 42); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestPatientIDForUser(t *testing.T) {
	svc, pr, _ := newTestService()
	p := &Patient{UserID: "u-alice"}
	pr.Create(context.Background(), p)

	id, err := svc.PatientIDForUser(context.Background(), "u-alice")
	if err != nil || id != p.ID {
		t.Errorf("expected %d, got %d (%v)", p.ID, id, err)
	}
	if _, err := svc.PatientIDForUser(context.Background(), ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found for empty user id, got %v", err)
	}
}
