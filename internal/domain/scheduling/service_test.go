package scheduling

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/auth"
	"github.com/homecare/homecare/internal/platform/notification"
	"github.com/homecare/homecare/pkg/datetime"
)

// -- Mock Repository --

type person struct {
	name   string
	userID string
}

type mockAppointmentRepo struct {
	appts     map[int]*Appointment
	patients  map[int]person
	employees map[int]person
	nextID    int
	calls     int
	deleteErr error
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{
		appts: make(map[int]*Appointment),
		patients: map[int]person{
			1: {"Tor Hansen", "u-tor"},
			2: {"Kari Olsen", "u-kari"},
			3: {"Nils Berg", ""},
		},
		employees: map[int]person{
			1: {"Ida Johansen", "u-ida"},
			2: {"Per Andersen", "u-per"},
		},
	}
}

func (m *mockAppointmentRepo) fill(a *Appointment) *Appointment {
	cp := *a
	p := m.patients[a.PatientID]
	e := m.employees[a.EmployeeID]
	cp.PatientName, cp.PatientUserID = p.name, p.userID
	cp.EmployeeName, cp.EmployeeUserID = e.name, e.userID
	return &cp
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	m.calls++
	if _, ok := m.patients[a.PatientID]; !ok {
		return apperr.Invalid("patientId", "referenced record does not exist")
	}
	if _, ok := m.employees[a.EmployeeID]; !ok {
		return apperr.Invalid("employeeId", "referenced record does not exist")
	}
	m.nextID++
	a.ID = m.nextID
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id int) (*Appointment, error) {
	m.calls++
	a, ok := m.appts[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return m.fill(a), nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, a *Appointment) error {
	m.calls++
	if _, ok := m.appts[a.ID]; !ok {
		return apperr.ErrNotFound
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) Delete(_ context.Context, id int) error {
	m.calls++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.appts[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.appts, id)
	return nil
}

func (m *mockAppointmentRepo) List(_ context.Context) ([]*Appointment, error) {
	return m.filter(func(*Appointment) bool { return true }), nil
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, patientID int) ([]*Appointment, error) {
	return m.filter(func(a *Appointment) bool { return a.PatientID == patientID }), nil
}

func (m *mockAppointmentRepo) ListByEmployee(_ context.Context, employeeID int) ([]*Appointment, error) {
	return m.filter(func(a *Appointment) bool { return a.EmployeeID == employeeID }), nil
}

func (m *mockAppointmentRepo) filter(keep func(*Appointment) bool) []*Appointment {
	var out []*Appointment
	for i := 1; i <= m.nextID; i++ {
		if a, ok := m.appts[i]; ok && keep(a) {
			out = append(out, m.fill(a))
		}
	}
	return out
}

// PatientOwner mirrors the identity lookup over the same fixture.
func (m *mockAppointmentRepo) PatientOwner(_ context.Context, patientID int) (string, error) {
	p, ok := m.patients[patientID]
	if !ok {
		return "", apperr.ErrNotFound
	}
	return p.userID, nil
}

type memNotifier struct {
	mu   sync.Mutex
	sent []*notification.Notification
}

func (n *memNotifier) Enqueue(x *notification.Notification) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, x)
	return true
}

func (n *memNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, x := range n.sent {
		out = append(out, x.UserID)
	}
	return out
}

func newTestService() (*Service, *mockAppointmentRepo, *memNotifier) {
	repo := newMockAppointmentRepo()
	notifier := &memNotifier{}
	svc := NewService(repo, repo, notifier, notification.NewTemplateEngine(), zerolog.Nop())
	return svc, repo, notifier
}

var (
	employeeIda = auth.NewPrincipal("u-ida", auth.RoleEmployee)
	patientTor  = auth.NewPrincipal("u-tor", auth.RolePatient)
	patientKari = auth.NewPrincipal("u-kari", auth.RolePatient)
)

var checkupTime = time.Date(2026, 11, 2, 10, 30, 0, 0, time.UTC)

func checkupDTO(patientID, employeeID int) AppointmentDTO {
	return AppointmentDTO{
		Subject:     "Check-up",
		Description: "Blood pressure",
		Date:        datetime.Timestamp{Time: checkupTime},
		PatientID:   patientID,
		EmployeeID:  employeeID,
	}
}

func TestCreate_CheckUpScenario(t *testing.T) {
	svc, _, notifier := newTestService()

	a, err := svc.Create(context.Background(), employeeIda, checkupDTO(2, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == 0 {
		t.Fatal("expected non-zero id")
	}

	got, err := svc.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Subject != "Check-up" || !got.Date.Equal(checkupTime) || got.PatientID != 2 || got.EmployeeID != 1 {
		t.Errorf("unexpected appointment %+v", got)
	}

	if len(notifier.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifier.sent))
	}
	rec := notifier.recipients()
	if rec[0] != "u-kari" || rec[1] != "u-ida" {
		t.Errorf("unexpected recipients %v", rec)
	}
	for _, n := range notifier.sent {
		if n.IsRead || n.Type != notification.TypeAppointment || n.RelatedID != a.ID {
			t.Errorf("unexpected notification %+v", n)
		}
		if n.Title != "New Appointment" {
			t.Errorf("unexpected title %q", n.Title)
		}
	}
	if !strings.Contains(notifier.sent[0].Message, "Ida Johansen") || !strings.Contains(notifier.sent[1].Message, "Kari Olsen") {
		t.Errorf("messages should name the counterpart: %q / %q", notifier.sent[0].Message, notifier.sent[1].Message)
	}
}

func TestCreate_PatientForOtherPatient(t *testing.T) {
	svc, repo, notifier := newTestService()
	if _, err := svc.Create(context.Background(), patientTor, checkupDTO(2, 1)); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(repo.appts) != 0 || len(notifier.sent) != 0 {
		t.Error("nothing should be stored or sent")
	}
}

func TestCreate_PatientForSelfIsUnconfirmed(t *testing.T) {
	svc, _, _ := newTestService()
	dto := checkupDTO(1, 2)
	dto.IsConfirmed = true
	a, err := svc.Create(context.Background(), patientTor, dto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.IsConfirmed {
		t.Error("patients cannot confirm their own booking")
	}
}

func TestCreate_UnknownParticipant(t *testing.T) {
	svc, _, notifier := newTestService()
	_, err := svc.Create(context.Background(), employeeIda, checkupDTO(1, 9))
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Error("no notifications expected")
	}
}

func TestNotifications_SkippedWithoutAccount(t *testing.T) {
	svc, _, notifier := newTestService()

	a, err := svc.Create(context.Background(), employeeIda, checkupDTO(3, 1))
	if err != nil {
		t.Fatalf("create should still succeed: %v", err)
	}
	dto := checkupDTO(3, 1)
	dto.AppointmentID = a.ID
	dto.Subject = "Follow-up"
	if _, err := svc.Update(context.Background(), employeeIda, a.ID, dto); err != nil {
		t.Fatalf("update should still succeed: %v", err)
	}
	if err := svc.Delete(context.Background(), employeeIda, a.ID); err != nil {
		t.Fatalf("delete should still succeed: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("expected zero notifications, got %d", len(notifier.sent))
	}
}

func TestUpdate_TwoNotificationsKeepsParticipants(t *testing.T) {
	svc, _, notifier := newTestService()
	a, _ := svc.Create(context.Background(), employeeIda, checkupDTO(1, 1))
	notifier.sent = nil

	dto := checkupDTO(2, 2)
	dto.AppointmentID = a.ID
	dto.Subject = "Heart monitoring"
	dto.IsConfirmed = true
	updated, err := svc.Update(context.Background(), employeeIda, a.ID, dto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.PatientID != 1 || updated.EmployeeID != 1 {
		t.Errorf("participants changed: %+v", updated)
	}
	if updated.Subject != "Heart monitoring" || !updated.IsConfirmed {
		t.Errorf("fields not replaced: %+v", updated)
	}
	if len(notifier.sent) != 2 || notifier.sent[0].Title != "Appointment Updated" {
		t.Errorf("expected two update notifications, got %+v", notifier.sent)
	}
}

func TestUpdate_MismatchBeforeRepo(t *testing.T) {
	svc, repo, _ := newTestService()
	dto := checkupDTO(1, 1)
	dto.AppointmentID = 2
	_, err := svc.Update(context.Background(), employeeIda, 1, dto)
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.calls != 0 {
		t.Errorf("expected no repository calls, got %d", repo.calls)
	}

	dto.AppointmentID = 0
	if _, err := svc.Update(context.Background(), employeeIda, 1, dto); !errors.As(err, &ve) {
		t.Fatalf("missing body id should be a mismatch, got %v", err)
	}
}

func TestUpdate_OwnershipAndNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	a, _ := svc.Create(context.Background(), employeeIda, checkupDTO(1, 1))
	dto := checkupDTO(1, 1)
	dto.AppointmentID = a.ID

	if _, err := svc.Update(context.Background(), patientKari, a.ID, dto); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if _, err := svc.Update(context.Background(), patientTor, a.ID, dto); err != nil {
		t.Errorf("owner should update: %v", err)
	}
	dto.AppointmentID = 77
	if _, err := svc.Update(context.Background(), employeeIda, 77, dto); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, repo, notifier := newTestService()
	a, _ := svc.Create(context.Background(), employeeIda, checkupDTO(1, 2))
	notifier.sent = nil

	if err := svc.Delete(context.Background(), patientKari, a.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), patientTor, a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.appts[a.ID]; ok {
		t.Error("appointment still stored")
	}
	if len(notifier.sent) != 2 || notifier.sent[0].Title != "Appointment Cancelled" {
		t.Errorf("expected two cancellation notifications, got %+v", notifier.sent)
	}
	if err := svc.Delete(context.Background(), employeeIda, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDelete_FailureSendsNothing(t *testing.T) {
	svc, repo, notifier := newTestService()
	a, _ := svc.Create(context.Background(), employeeIda, checkupDTO(1, 2))
	notifier.sent = nil
	repo.deleteErr = errors.New("connection reset")

	if err := svc.Delete(context.Background(), employeeIda, a.ID); err == nil {
		t.Fatal("expected error")
	}
	if len(notifier.sent) != 0 {
		t.Errorf("expected no notifications, got %d", len(notifier.sent))
	}
}

func TestConfirm(t *testing.T) {
	svc, _, notifier := newTestService()
	a, _ := svc.Create(context.Background(), employeeIda, checkupDTO(1, 2))
	notifier.sent = nil

	if _, err := svc.Confirm(context.Background(), patientTor, a.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	confirmed, err := svc.Confirm(context.Background(), employeeIda, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !confirmed.IsConfirmed {
		t.Error("expected confirmed")
	}
	if len(notifier.sent) != 2 {
		t.Errorf("expected 2 notifications, got %d", len(notifier.sent))
	}

	if _, err := svc.Confirm(context.Background(), employeeIda, a.ID); err != nil {
		t.Fatalf("confirming twice should succeed: %v", err)
	}
	if len(notifier.sent) != 2 {
		t.Error("second confirm should not notify again")
	}
}

func TestListByParticipant(t *testing.T) {
	svc, _, _ := newTestService()
	svc.Create(context.Background(), employeeIda, checkupDTO(1, 1))
	svc.Create(context.Background(), employeeIda, checkupDTO(2, 1))
	svc.Create(context.Background(), employeeIda, checkupDTO(2, 2))

	byPatient, _ := svc.ListByPatient(context.Background(), 2)
	if len(byPatient) != 2 {
		t.Errorf("expected 2 for patient 2, got %d", len(byPatient))
	}
	byEmployee, _ := svc.ListByEmployee(context.Background(), 1)
	if len(byEmployee) != 2 {
		t.Errorf("expected 2 for employee 1, got %d", len(byEmployee))
	}
	all, _ := svc.List(context.Background())
	if len(all) != 3 {
		t.Errorf("expected 3, got %d", len(all))
	}
}
