package medication

import (
	"time"

	"github.com/homecare/homecare/pkg/datetime"
)

// Medication is a prescribed medicine on a patient's treatment plan. An
// entry without an end date stays active indefinitely.
type Medication struct {
	ID           int
	MedicineName string
	Name         string
	PatientID    int
	Indication   string
	Dosage       string
	StartDate    time.Time
	EndDate      *time.Time

	PatientName   string
	PatientUserID string
}

// ActiveOn reports whether the medication is still taken on day.
func (m *Medication) ActiveOn(day time.Time) bool {
	if m.EndDate == nil {
		return true
	}
	y, mo, d := day.Date()
	return !m.EndDate.Before(time.Date(y, mo, d, 0, 0, 0, 0, time.UTC))
}

type MedicationDTO struct {
	MedicationID   int           `json:"medicationId"`
	MedicationName string        `json:"medicationName" validate:"required,max=100"`
	Name           string        `json:"name,omitempty" validate:"max=100"`
	PatientID      int           `json:"patientId" validate:"gt=0"`
	PatientName    string        `json:"patientName,omitempty"`
	Indication     string        `json:"indication" validate:"max=200"`
	Dosage         string        `json:"dosage" validate:"max=100"`
	StartDate      datetime.Date `json:"startDate" validate:"required"`
	EndDate        datetime.Date `json:"endDate"`
}

func MedicationDTOFromEntity(m *Medication) MedicationDTO {
	return MedicationDTO{
		MedicationID:   m.ID,
		MedicationName: m.MedicineName,
		Name:           m.Name,
		PatientID:      m.PatientID,
		PatientName:    m.PatientName,
		Indication:     m.Indication,
		Dosage:         m.Dosage,
		StartDate:      datetime.NewDate(m.StartDate),
		EndDate:        datetime.DateFromPtr(m.EndDate),
	}
}

// ToEntity maps the DTO back. Name falls back to the medicine name.
func (d MedicationDTO) ToEntity() *Medication {
	m := &Medication{
		ID:           d.MedicationID,
		MedicineName: d.MedicationName,
		Name:         d.Name,
		PatientID:    d.PatientID,
		Indication:   d.Indication,
		Dosage:       d.Dosage,
		StartDate:    d.StartDate.Time,
		EndDate:      d.EndDate.Ptr(),
	}
	if m.Name == "" {
		m.Name = m.MedicineName
	}
	return m
}

func (d MedicationDTO) checkDates() error {
	if !d.EndDate.IsZero() && d.EndDate.Before(d.StartDate.Time) {
		return errEndBeforeStart
	}
	return nil
}

func toDTOs(items []*Medication) []MedicationDTO {
	out := make([]MedicationDTO, 0, len(items))
	for _, m := range items {
		out = append(out, MedicationDTOFromEntity(m))
	}
	return out
}
