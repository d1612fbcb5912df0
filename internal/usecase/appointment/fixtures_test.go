package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/broker"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/queue"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

const (
	confirmationQueue = "confirmations"
	reminderQueue     = "reminders"

	tomorrow = "2030-06-11"
)

// testNow is the day before tomorrow, inside business hours.
var testNow = time.Date(2030, 6, 10, 9, 0, 0, 0, time.UTC)

type sentNotification struct {
	kind notify.Kind
	to   notify.Recipient
	data map[string]string
}

type recordingSender struct {
	mu   sync.Mutex
	err  error
	sent []sentNotification
}

func (s *recordingSender) Notify(ctx context.Context, kind notify.Kind, to notify.Recipient, data map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentNotification{kind: kind, to: to, data: data})
	return nil
}

func (s *recordingSender) count(kind notify.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sn := range s.sent {
		if sn.kind == kind {
			n++
		}
	}
	return n
}

type pipeline struct {
	store    *repository.MemoryStore
	broker   *broker.Memory
	clock    *timeutil.ManagedClock
	notifier *recordingSender
	claimer  *broker.MemoryClaimer

	intake    *ProcessRequests
	confirm   *ProcessConfirmations
	reminders *ProcessReminders
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	p := &pipeline{
		store:    repository.NewMemoryStore(),
		clock:    timeutil.NewManaged(testNow),
		notifier: &recordingSender{},
	}
	p.broker = broker.NewMemory(p.clock)
	p.claimer = broker.NewMemoryClaimer(p.clock)

	logger := zerolog.Nop()
	validator := domain.NewValidator(domain.DefaultBusinessHours(), time.UTC)
	scheduler := domain.NewScheduler(domain.DefaultReminderLead, time.UTC)

	p.intake = NewProcessRequests(p.store, validator, p.broker, confirmationQueue, p.clock, 30*24*time.Hour, nil, logger)
	p.confirm = NewProcessConfirmations(p.store, scheduler, p.notifier, p.broker, reminderQueue, p.clock, nil, logger)
	p.reminders = NewProcessReminders(p.store, p.notifier, p.claimer, time.Minute, p.clock, nil, logger)

	p.addPatient(t, "p1")
	return p
}

func (p *pipeline) addPatient(t *testing.T, id string) {
	t.Helper()
	err := p.store.PutPatient(context.Background(), &models.Patient{
		PatientID: id,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     id + "@example.com",
		Phone:     "+15550100",
	})
	if err != nil {
		t.Fatalf("PutPatient: %v", err)
	}
}

// addAppointment stores an appointment directly, bypassing intake.
func (p *pipeline) addAppointment(t *testing.T, id, patientID, date, start, end string, status domain.Status) {
	t.Helper()
	err := p.store.CreateAppointment(context.Background(), &models.Appointment{
		AppointmentID:   id,
		PatientID:       patientID,
		AppointmentDate: date,
		StartTime:       start,
		EndTime:         end,
		Status:          string(status),
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	})
	if err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
}

func (p *pipeline) appointment(t *testing.T, id string) *models.Appointment {
	t.Helper()
	ap, err := p.store.GetAppointment(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAppointment(%s): %v", id, err)
	}
	return ap
}

func delivery(id, body string) queue.Delivery {
	return queue.Delivery{ID: id, Body: []byte(body), Receipt: id}
}
