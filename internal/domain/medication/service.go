package medication

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/auth"
	"github.com/homecare/homecare/internal/platform/notification"
)

var errEndBeforeStart = apperr.Invalid("endDate", "must not be before startDate")

// Notifier accepts notifications for asynchronous delivery.
type Notifier interface {
	Enqueue(n *notification.Notification) bool
}

// Patients resolves patient rows and the accounts linked to them.
type Patients interface {
	PatientOwner(ctx context.Context, patientID int) (string, error)
	PatientIDForUser(ctx context.Context, userID string) (int, error)
}

type Service struct {
	repo      MedicationRepository
	patients  Patients
	notifier  Notifier
	templates *notification.TemplateEngine
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(repo MedicationRepository, patients Patients, notifier Notifier, templates *notification.TemplateEngine, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		patients:  patients,
		notifier:  notifier,
		templates: templates,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns every medication to employees and only the caller's own to
// anyone else.
func (s *Service) List(ctx context.Context, caller *auth.Principal) ([]*Medication, error) {
	if caller.IsEmployee() {
		return s.repo.ListAll(ctx)
	}
	if caller.UserID == "" {
		return nil, apperr.ErrUnauthorized
	}
	return s.repo.ListByUserID(ctx, caller.UserID)
}

// ListMine returns the active medications of the caller's patient row.
func (s *Service) ListMine(ctx context.Context, caller *auth.Principal) ([]*Medication, error) {
	patientID, err := s.patients.PatientIDForUser(ctx, caller.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFoundf("patient record not found")
	}
	if err != nil {
		return nil, err
	}
	return s.active(ctx, patientID)
}

func (s *Service) ListByPatient(ctx context.Context, caller *auth.Principal, patientID int) ([]*Medication, error) {
	owner, err := s.patients.PatientOwner(ctx, patientID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		if caller.IsEmployee() {
			return nil, apperr.NotFoundf("patient %d not found", patientID)
		}
		return nil, apperr.ErrForbidden
	case err != nil:
		return nil, err
	}
	if !caller.Owns(owner) {
		s.logger.Warn().Int("patient_id", patientID).Str("user_id", caller.UserID).Msg("forbidden medication list access")
		return nil, apperr.ErrForbidden
	}
	return s.active(ctx, patientID)
}

// active returns the patient's medications that have not ended today.
func (s *Service) active(ctx context.Context, patientID int) ([]*Medication, error) {
	all, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	today := s.now()
	out := make([]*Medication, 0, len(all))
	for _, m := range all {
		if m.ActiveOn(today) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, caller *auth.Principal, id int) (*Medication, error) {
	m, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFoundf("medication %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if !caller.Owns(m.PatientUserID) {
		s.logger.Warn().Int("medication_id", id).Str("user_id", caller.UserID).Msg("forbidden medication access")
		return nil, apperr.ErrForbidden
	}
	return m, nil
}

func (s *Service) Create(ctx context.Context, caller *auth.Principal, dto MedicationDTO) (*Medication, error) {
	if err := dto.checkDates(); err != nil {
		return nil, err
	}
	if !caller.IsEmployee() {
		owner, err := s.patients.PatientOwner(ctx, dto.PatientID)
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

	m := dto.ToEntity()
	m.ID = 0
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	created, err := s.repo.GetByID(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("medication", created.MedicineName).
		Int("patient_id", created.PatientID).
		Msg("medication created")
	s.notify(notification.MedicationCreated, created)
	return created, nil
}

// Update replaces the prescription fields. Only employees may move a
// medication to another patient.
func (s *Service) Update(ctx context.Context, caller *auth.Principal, id int, dto MedicationDTO) (*Medication, error) {
	if dto.MedicationID != id {
		return nil, apperr.Mismatch("medication")
	}
	if err := dto.checkDates(); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	existing.MedicineName = dto.MedicationName
	if dto.Name != "" {
		existing.Name = dto.Name
	}
	existing.Dosage = dto.Dosage
	existing.Indication = dto.Indication
	existing.StartDate = dto.StartDate.Time
	existing.EndDate = dto.EndDate.Ptr()
	if caller.IsEmployee() && dto.PatientID > 0 {
		existing.PatientID = dto.PatientID
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("medication", updated.MedicineName).
		Int("patient_id", updated.PatientID).
		Msg("medication updated")
	s.notify(notification.MedicationUpdated, updated)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, caller *auth.Principal, id int) error {
	existing, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Int("medication_id", id).Msg("medication deletion failed")
		return err
	}
	s.logger.Info().
		Str("medication", existing.MedicineName).
		Int("patient_id", existing.PatientID).
		Msg("medication deleted")
	s.notify(notification.MedicationDeleted, existing)
	return nil
}

func (s *Service) notify(templateID string, m *Medication) {
	if m.PatientUserID == "" {
		s.logger.Warn().
			Str("medication", m.MedicineName).
			Int("patient_id", m.PatientID).
			Msg("patient has no account, notification skipped")
		return
	}
	n, err := s.templates.Build(templateID, m.PatientUserID, m.ID, map[string]string{
		"name":   m.MedicineName,
		"dosage": m.Dosage,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("template", templateID).Msg("render medication notification")
		return
	}
	s.notifier.Enqueue(n)
}
