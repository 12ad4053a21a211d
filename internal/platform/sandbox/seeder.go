// Package sandbox seeds a fresh database with demo accounts, profiles,
// appointments and medications for local development and UI demos. All data
// goes through the domain services, so the same validation and
// notifications apply as for API traffic.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/homecare/homecare/internal/domain/account"
	"github.com/homecare/homecare/internal/domain/identity"
	"github.com/homecare/homecare/internal/domain/medication"
	"github.com/homecare/homecare/internal/domain/scheduling"
	"github.com/homecare/homecare/internal/platform/auth"
	"github.com/homecare/homecare/pkg/datetime"
)

type Registrar interface {
	Register(ctx context.Context, dto account.RegisterDTO) (*account.User, error)
}

type Profiles interface {
	GetPatientByUserID(ctx context.Context, caller *auth.Principal, userID string) (*identity.Patient, error)
	UpdatePatient(ctx context.Context, caller *auth.Principal, id int, dto identity.PatientDTO) (*identity.Patient, error)
	GetEmployeeByUserID(ctx context.Context, userID string) (*identity.Employee, error)
	UpdateEmployee(ctx context.Context, caller *auth.Principal, id int, dto identity.EmployeeDTO) (*identity.Employee, error)
}

type Appointments interface {
	Create(ctx context.Context, caller *auth.Principal, dto scheduling.AppointmentDTO) (*scheduling.Appointment, error)
}

type Medications interface {
	Create(ctx context.Context, caller *auth.Principal, dto medication.MedicationDTO) (*medication.Medication, error)
}

// Result summarizes a seed run.
type Result struct {
	Users        int  `json:"users"`
	Appointments int  `json:"appointments"`
	Medications  int  `json:"medications"`
	Skipped      bool `json:"skipped"`
}

type demoUser struct {
	username string
	role     string
	patient  *identity.PatientDTO
	employee *identity.EmployeeDTO
}

type Seeder struct {
	accounts     Registrar
	profiles     Profiles
	appointments Appointments
	medications  Medications
	logger       zerolog.Logger
	now          func() time.Time
}

func NewSeeder(accounts Registrar, profiles Profiles, appointments Appointments, medications Medications, logger zerolog.Logger) *Seeder {
	return &Seeder{
		accounts:     accounts,
		profiles:     profiles,
		appointments: appointments,
		medications:  medications,
		logger:       logger,
		now:          time.Now,
	}
}

func birth(y int, m time.Month, d int) datetime.Date {
	return datetime.NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func demoUsers() []demoUser {
	return []demoUser{
		{username: "patient1", role: auth.RolePatient, patient: &identity.PatientDTO{
			FullName: "Tor Hansen", Address: "Storgata 1, 0181 Oslo", DateOfBirth: birth(1945, time.May, 15),
			PhoneNumber: "+4712345678", HealthInfo: "Dementia, diabetes",
		}},
		{username: "patient2", role: auth.RolePatient, patient: &identity.PatientDTO{
			FullName: "Kari Olsen", Address: "Lillegata 5, 0150 Oslo", DateOfBirth: birth(1952, time.August, 22),
			PhoneNumber: "+4787654321", HealthInfo: "Heart condition",
		}},
		{username: "employee1", role: auth.RoleEmployee, employee: &identity.EmployeeDTO{
			FullName: "Ida Johansen", Address: "Solveien 6, 1458 Oslo", Department: "Oslo",
		}},
		{username: "employee2", role: auth.RoleEmployee, employee: &identity.EmployeeDTO{
			FullName: "Per Andersen", Address: "Bakkeveien 12, 0580 Oslo", Department: "Oslo",
		}},
	}
}

// Seed creates the demo data with every account using password. It does
// nothing when the first demo account already exists.
func (s *Seeder) Seed(ctx context.Context, password string) (*Result, error) {
	res := &Result{}
	patients := map[string]int{}
	employees := map[string]int{}
	var staff *auth.Principal

	for i, du := range demoUsers() {
		u, err := s.accounts.Register(ctx, account.RegisterDTO{
			Username: du.username,
			Email:    du.username + "@test.com",
			Password: password,
			Role:     du.role,
		})
		if err != nil {
			if i == 0 && isDuplicate(err) {
				s.logger.Info().Msg("demo data already present, skipping seed")
				res.Skipped = true
				return res, nil
			}
			return res, fmt.Errorf("register %s: %w", du.username, err)
		}
		res.Users++
		userID := u.ID.String()
		self := auth.NewPrincipal(userID, du.role)

		switch {
		case du.patient != nil:
			p, err := s.profiles.GetPatientByUserID(ctx, self, userID)
			if err != nil {
				return res, fmt.Errorf("load patient profile %s: %w", du.username, err)
			}
			dto := *du.patient
			dto.PatientID = p.ID
			if _, err := s.profiles.UpdatePatient(ctx, self, p.ID, dto); err != nil {
				return res, fmt.Errorf("fill patient profile %s: %w", du.username, err)
			}
			patients[dto.FullName] = p.ID
		case du.employee != nil:
			e, err := s.profiles.GetEmployeeByUserID(ctx, userID)
			if err != nil {
				return res, fmt.Errorf("load employee profile %s: %w", du.username, err)
			}
			dto := *du.employee
			dto.EmployeeID = e.ID
			if _, err := s.profiles.UpdateEmployee(ctx, self, e.ID, dto); err != nil {
				return res, fmt.Errorf("fill employee profile %s: %w", du.username, err)
			}
			employees[dto.FullName] = e.ID
			if staff == nil {
				staff = self
			}
		}
	}

	y, m, d := s.now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	appts := []scheduling.AppointmentDTO{
		{Subject: "Routine check-up", Description: "Monthly health check and medication review",
			Date: datetime.Timestamp{Time: today.AddDate(0, 0, 1)}, PatientID: patients["Tor Hansen"], EmployeeID: employees["Ida Johansen"]},
		{Subject: "Heart monitoring", Description: "Blood pressure check and EKG",
			Date: datetime.Timestamp{Time: today.AddDate(0, 0, 3)}, PatientID: patients["Kari Olsen"], EmployeeID: employees["Per Andersen"]},
		{Subject: "Medication adjustment", Description: "Review and adjust diabetes medication",
			Date: datetime.Timestamp{Time: today.AddDate(0, 0, 7)}, PatientID: patients["Tor Hansen"], EmployeeID: employees["Ida Johansen"]},
	}
	for _, dto := range appts {
		if _, err := s.appointments.Create(ctx, staff, dto); err != nil {
			return res, fmt.Errorf("create appointment %q: %w", dto.Subject, err)
		}
		res.Appointments++
	}

	meds := []medication.MedicationDTO{
		{MedicationName: "Metformin", Name: "Metformin 500mg", PatientID: patients["Tor Hansen"],
			Indication: "Type 2 Diabetes", Dosage: "500mg twice daily",
			StartDate: datetime.NewDate(today.AddDate(0, 0, -30))},
		{MedicationName: "Lisinopril", Name: "Lisinopril 10mg", PatientID: patients["Kari Olsen"],
			Indication: "High blood pressure", Dosage: "10mg once daily",
			StartDate: datetime.NewDate(today.AddDate(0, 0, -60))},
		{MedicationName: "Paracetamol", Name: "Paracetamol 500mg", PatientID: patients["Tor Hansen"],
			Indication: "Pain relief", Dosage: "500mg as needed, max 4 times daily",
			StartDate: datetime.NewDate(today.AddDate(0, 0, -7)), EndDate: datetime.NewDate(today.AddDate(0, 0, 7))},
	}
	for _, dto := range meds {
		if _, err := s.medications.Create(ctx, staff, dto); err != nil {
			return res, fmt.Errorf("create medication %q: %w", dto.MedicationName, err)
		}
		res.Medications++
	}

	s.logger.Info().
		Int("users", res.Users).
		Int("appointments", res.Appointments).
		Int("medications", res.Medications).
		Msg("demo data seeded")
	return res, nil
}

func isDuplicate(err error) bool {
	var rerr *account.RegistrationError
	if !errors.As(err, &rerr) {
		return false
	}
	for _, ie := range rerr.Errors {
		if ie.Code == "DuplicateUserName" {
			return true
		}
	}
	return false
}
