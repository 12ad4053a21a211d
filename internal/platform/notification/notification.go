// Package notification renders in-app notifications and delivers them
// asynchronously: a bounded queue feeds worker goroutines that persist each
// notification and optionally publish it to Kafka.
package notification

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Type tags what kind of record a notification refers to.
type Type string

const (
	TypeAppointment Type = "appointment"
	TypeMedication  Type = "medication"
)

// Notification is a message addressed to one account.
type Notification struct {
	ID        int
	UserID    string
	Title     string
	Message   string
	Type      Type
	RelatedID int
	IsRead    bool
	CreatedAt time.Time
}

// Template IDs.
const (
	AppointmentCreated   = "appointment.created"
	AppointmentUpdated   = "appointment.updated"
	AppointmentCancelled = "appointment.cancelled"
	MedicationCreated    = "medication.created"
	MedicationUpdated    = "medication.updated"
	MedicationDeleted    = "medication.deleted"
)

// Template is a title and message with {{key}} placeholders.
type Template struct {
	ID      string
	Title   string
	Message string
	Type    Type
}

// TemplateEngine holds the notification templates.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewTemplateEngine returns an engine with the built-in templates registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]Template)}
	for _, t := range builtIn {
		e.templates[t.ID] = t
	}
	return e
}

var builtIn = []Template{
	{
		ID:      AppointmentCreated,
		Title:   "New Appointment",
		Message: "A new appointment '{{subject}}' with {{counterpart}} has been scheduled for {{date}}.",
		Type:    TypeAppointment,
	},
	{
		ID:      AppointmentUpdated,
		Title:   "Appointment Updated",
		Message: "Your appointment '{{subject}}' with {{counterpart}} has been updated. New time: {{date}}.",
		Type:    TypeAppointment,
	},
	{
		ID:      AppointmentCancelled,
		Title:   "Appointment Cancelled",
		Message: "Your appointment '{{subject}}' with {{counterpart}} on {{date}} has been cancelled.",
		Type:    TypeAppointment,
	},
	{
		ID:      MedicationCreated,
		Title:   "New Medication Added",
		Message: "A new medication '{{name}}' has been added to your treatment plan. Dosage: {{dosage}}.",
		Type:    TypeMedication,
	},
	{
		ID:      MedicationUpdated,
		Title:   "Medication Updated",
		Message: "Your medication '{{name}}' has been updated. New dosage: {{dosage}}.",
		Type:    TypeMedication,
	},
	{
		ID:      MedicationDeleted,
		Title:   "Medication Removed",
		Message: "The medication '{{name}}' has been removed from your treatment plan.",
		Type:    TypeMedication,
	},
}

// RegisterTemplate adds or replaces a template.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = t
}

// Render replaces {{key}} placeholders with data. Keys absent from data are
// left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (title, message string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	title, message = t.Title, t.Message
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		title = strings.ReplaceAll(title, placeholder, v)
		message = strings.ReplaceAll(message, placeholder, v)
	}
	return title, message, nil
}

// Build renders templateID into an unread notification for userID.
func (e *TemplateEngine) Build(templateID, userID string, relatedID int, data map[string]string) (*Notification, error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("template %q not found", templateID)
	}
	title, message, err := e.Render(templateID, data)
	if err != nil {
		return nil, err
	}
	return &Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      t.Type,
		RelatedID: relatedID,
	}, nil
}
