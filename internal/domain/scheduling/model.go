package scheduling

import (
	"time"

	"github.com/homecare/homecare/pkg/datetime"
)

// Appointment is a visit by one employee to one patient. The name and user id
// fields are filled by reads and ignored on write.
type Appointment struct {
	ID          int
	Subject     string
	Description string
	Date        time.Time
	PatientID   int
	EmployeeID  int
	IsConfirmed bool

	PatientName    string
	EmployeeName   string
	PatientUserID  string
	EmployeeUserID string
}

const (
	unknownPatient  = "Unknown Patient"
	unknownEmployee = "Unknown Employee"
)

type AppointmentDTO struct {
	AppointmentID int                `json:"appointmentId"`
	Subject       string             `json:"subject" validate:"required,subject"`
	Description   string             `json:"description" validate:"max=500"`
	Date          datetime.Timestamp `json:"date" validate:"required"`
	PatientID     int                `json:"patientId" validate:"gt=0"`
	EmployeeID    int                `json:"employeeId" validate:"gt=0"`
	PatientName   string             `json:"patientName,omitempty"`
	EmployeeName  string             `json:"employeeName,omitempty"`
	IsConfirmed   bool               `json:"isConfirmed"`
}

func AppointmentDTOFromEntity(a *Appointment) AppointmentDTO {
	dto := AppointmentDTO{
		AppointmentID: a.ID,
		Subject:       a.Subject,
		Description:   a.Description,
		Date:          datetime.Timestamp{Time: a.Date},
		PatientID:     a.PatientID,
		EmployeeID:    a.EmployeeID,
		PatientName:   a.PatientName,
		EmployeeName:  a.EmployeeName,
		IsConfirmed:   a.IsConfirmed,
	}
	if dto.PatientName == "" {
		dto.PatientName = unknownPatient
	}
	if dto.EmployeeName == "" {
		dto.EmployeeName = unknownEmployee
	}
	return dto
}

func (d AppointmentDTO) ToEntity() *Appointment {
	return &Appointment{
		ID:          d.AppointmentID,
		Subject:     d.Subject,
		Description: d.Description,
		Date:        d.Date.Time,
		PatientID:   d.PatientID,
		EmployeeID:  d.EmployeeID,
		IsConfirmed: d.IsConfirmed,
	}
}

func toDTOs(items []*Appointment) []AppointmentDTO {
	out := make([]AppointmentDTO, 0, len(items))
	for _, a := range items {
		out = append(out, AppointmentDTOFromEntity(a))
	}
	return out
}
