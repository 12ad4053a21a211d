package scheduling

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/auth"
	"github.com/homecare/homecare/internal/platform/notification"
)

// Notifier accepts notifications for asynchronous delivery.
type Notifier interface {
	Enqueue(n *notification.Notification) bool
}

// PatientOwners resolves the account linked to a patient row.
type PatientOwners interface {
	PatientOwner(ctx context.Context, patientID int) (string, error)
}

const notifyDateLayout = "2006-01-02 15:04"

type Service struct {
	repo      AppointmentRepository
	owners    PatientOwners
	notifier  Notifier
	templates *notification.TemplateEngine
	logger    zerolog.Logger
}

func NewService(repo AppointmentRepository, owners PatientOwners, notifier Notifier, templates *notification.TemplateEngine, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		owners:    owners,
		notifier:  notifier,
		templates: templates,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Appointment, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFoundf("appointment %d not found", id)
	}
	return a, err
}

func (s *Service) ListByPatient(ctx context.Context, patientID int) ([]*Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListByEmployee(ctx context.Context, employeeID int) ([]*Appointment, error) {
	return s.repo.ListByEmployee(ctx, employeeID)
}

// Create books an appointment and notifies both participants. A non-employee
// may only book for their own patient row.
func (s *Service) Create(ctx context.Context, caller *auth.Principal, dto AppointmentDTO) (*Appointment, error) {
	if !caller.IsEmployee() {
		owner, err := s.owners.PatientOwner(ctx, dto.PatientID)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Invalid("patientId", "patient does not exist")
		}
		if err != nil {
			return nil, err
		}
		if !caller.Owns(owner) {
			return nil, apperr.ErrForbidden
		}
	}

	a := dto.ToEntity()
	a.ID = 0
	if !caller.IsEmployee() {
		a.IsConfirmed = false
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	created, err := s.repo.GetByID(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("appointment_id", created.ID).Str("user_id", caller.UserID).Msg("appointment created")
	s.notify(notification.AppointmentCreated, created)
	return created, nil
}

// Update replaces the schedule fields of an appointment. Participants are
// fixed at creation.
func (s *Service) Update(ctx context.Context, caller *auth.Principal, id int, dto AppointmentDTO) (*Appointment, error) {
	if dto.AppointmentID != id {
		return nil, apperr.Mismatch("appointment")
	}
	existing, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	existing.Subject = dto.Subject
	existing.Description = dto.Description
	existing.Date = dto.Date.Time
	if caller.IsEmployee() {
		existing.IsConfirmed = dto.IsConfirmed
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.logger.Info().Int("appointment_id", id).Str("user_id", caller.UserID).Msg("appointment updated")
	s.notify(notification.AppointmentUpdated, existing)
	return existing, nil
}

// Confirm marks an appointment as confirmed by the care provider.
func (s *Service) Confirm(ctx context.Context, caller *auth.Principal, id int) (*Appointment, error) {
	if !caller.IsEmployee() {
		return nil, apperr.ErrForbidden
	}
	existing, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if existing.IsConfirmed {
		return existing, nil
	}
	existing.IsConfirmed = true
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.notify(notification.AppointmentUpdated, existing)
	return existing, nil
}

func (s *Service) Delete(ctx context.Context, caller *auth.Principal, id int) error {
	existing, err := s.load(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Int("appointment_id", id).Msg("appointment deletion failed")
		return err
	}
	s.logger.Info().Int("appointment_id", id).Str("user_id", caller.UserID).Msg("appointment deleted")
	s.notify(notification.AppointmentCancelled, existing)
	return nil
}

// load fetches id and applies the ownership rule: employees may touch any
// appointment, patients only their own.
func (s *Service) load(ctx context.Context, caller *auth.Principal, id int) (*Appointment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Owns(a.PatientUserID) {
		return nil, apperr.ErrForbidden
	}
	return a, nil
}

// notify sends one notification to each participant. Nothing is sent when
// either side has no account.
func (s *Service) notify(templateID string, a *Appointment) {
	if a.PatientUserID == "" || a.EmployeeUserID == "" {
		s.logger.Warn().
			Int("appointment_id", a.ID).
			Bool("patient_linked", a.PatientUserID != "").
			Bool("employee_linked", a.EmployeeUserID != "").
			Msg("appointment participant has no account, notifications skipped")
		return
	}

	date := a.Date.UTC().Format(notifyDateLayout)
	recipients := []struct {
		userID      string
		counterpart string
	}{
		{a.PatientUserID, displayName(a.EmployeeName, unknownEmployee)},
		{a.EmployeeUserID, displayName(a.PatientName, unknownPatient)},
	}
	for _, r := range recipients {
		n, err := s.templates.Build(templateID, r.userID, a.ID, map[string]string{
			"subject":     a.Subject,
			"counterpart": r.counterpart,
			"date":        date,
		})
		if err != nil {
			s.logger.Error().Err(err).Str("template", templateID).Msg("render appointment notification")
			continue
		}
		s.notifier.Enqueue(n)
	}
}

func displayName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
