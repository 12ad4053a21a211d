package identity

import (
	"time"

	"github.com/homecare/homecare/pkg/datetime"
)

// Patient is a care recipient. A freshly registered account has a patient
// row with an empty FullName until the profile is completed.
type Patient struct {
	ID          int
	FullName    string
	Address     string
	DateOfBirth *time.Time
	PhoneNumber *string
	HealthInfo  string
	UserID      string
}

// Complete reports whether the profile has been filled in after registration.
func (p *Patient) Complete() bool {
	return p.FullName != ""
}

type Employee struct {
	ID         int
	FullName   string
	Address    string
	Department string
	UserID     string
}

func (e *Employee) Complete() bool {
	return e.FullName != ""
}

// PatientDTO is the wire shape of a patient profile. The phonenumber and
// healthRelated_info names match the web client.
type PatientDTO struct {
	PatientID   int           `json:"patientId"`
	FullName    string        `json:"fullName" validate:"required,subject"`
	Address     string        `json:"address" validate:"required"`
	DateOfBirth datetime.Date `json:"dateOfBirth" validate:"required"`
	PhoneNumber string        `json:"phonenumber" validate:"omitempty,nophone"`
	HealthInfo  string        `json:"healthRelated_info" validate:"required"`
	UserID      string        `json:"userId"`
}

func PatientDTOFromEntity(p *Patient) PatientDTO {
	dto := PatientDTO{
		PatientID:   p.ID,
		FullName:    p.FullName,
		Address:     p.Address,
		DateOfBirth: datetime.DateFromPtr(p.DateOfBirth),
		HealthInfo:  p.HealthInfo,
		UserID:      p.UserID,
	}
	if p.PhoneNumber != nil {
		dto.PhoneNumber = *p.PhoneNumber
	}
	return dto
}

// ToEntity maps the DTO back. An empty phone number is stored as NULL so the
// unique index only applies to real numbers.
func (d PatientDTO) ToEntity() *Patient {
	p := &Patient{
		ID:          d.PatientID,
		FullName:    d.FullName,
		Address:     d.Address,
		DateOfBirth: d.DateOfBirth.Ptr(),
		HealthInfo:  d.HealthInfo,
		UserID:      d.UserID,
	}
	if d.PhoneNumber != "" {
		phone := d.PhoneNumber
		p.PhoneNumber = &phone
	}
	return p
}

type EmployeeDTO struct {
	EmployeeID int    `json:"employeeId"`
	FullName   string `json:"fullName" validate:"required,subject"`
	Address    string `json:"address" validate:"required"`
	Department string `json:"department" validate:"required,max=100"`
	UserID     string `json:"userId"`
}

func EmployeeDTOFromEntity(e *Employee) EmployeeDTO {
	return EmployeeDTO{
		EmployeeID: e.ID,
		FullName:   e.FullName,
		Address:    e.Address,
		Department: e.Department,
		UserID:     e.UserID,
	}
}

func (d EmployeeDTO) ToEntity() *Employee {
	return &Employee{
		ID:         d.EmployeeID,
		FullName:   d.FullName,
		Address:    d.Address,
		Department: d.Department,
		UserID:     d.UserID,
	}
}
