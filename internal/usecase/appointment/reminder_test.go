package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/queue"
)

func reminderBody(appointmentID, patientID string) string {
	b, _ := json.Marshal(dto.ReminderMessage{
		AppointmentID:   appointmentID,
		PatientID:       patientID,
		ReminderTime:    "2030-06-10T10:00:00Z",
		AppointmentDate: tomorrow,
		StartTime:       "10:00",
		EndTime:         "11:00",
		PatientName:     "Ada L.",
		PatientEmail:    "snapshot@example.com",
		Timestamp:       testNow.Format(time.RFC3339),
	})
	return string(b)
}

func TestProcessReminders_Sends(t *testing.T) {
	p := newPipeline(t)
	p.addAppointment(t, "a1", "p1", tomorrow, "10:00", "11:00", domain.StatusConfirmed)

	res := p.reminders.Execute(context.Background(), []queue.Delivery{delivery("r1", reminderBody("a1", "p1"))})
	if res.Successful != 1 || res.Items[0].Status != StatusReminderSent {
		t.Fatalf("expected REMINDER_SENT, got %+v", res)
	}
	if !p.appointment(t, "a1").ReminderSent {
		t.Error("reminderSent flag not set")
	}

	sent := p.notifier.sent[0]
	if sent.kind != notify.KindReminder {
		t.Errorf("expected reminder notification, got %s", sent.kind)
	}
	if sent.to.Email != "snapshot@example.com" || sent.to.Name != "Ada L." {
		t.Errorf("expected snapshot contact, got %+v", sent.to)
	}
	if sent.to.Phone != "+15550100" {
		t.Errorf("expected phone from patient record, got %q", sent.to.Phone)
	}
}

func TestProcessReminders_Skips(t *testing.T) {
	tests := []struct {
		name   string
		status domain.Status
		date   string
		sent   bool
	}{
		{"requested", domain.StatusRequested, tomorrow, false},
		{"cancelled", domain.StatusCancelled, tomorrow, false},
		{"already started", domain.StatusConfirmed, "2030-06-09", false},
		{"already sent", domain.StatusConfirmed, tomorrow, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t)
			p.addAppointment(t, "a1", "p1", tt.date, "10:00", "11:00", tt.status)
			if tt.sent {
				if err := p.store.MarkReminderSent(context.Background(), "a1", testNow); err != nil {
					t.Fatalf("MarkReminderSent: %v", err)
				}
			}

			res := p.reminders.Execute(context.Background(), []queue.Delivery{delivery("r1", reminderBody("a1", "p1"))})
			if res.Skipped != 1 || res.Failed != 0 || res.Items[0].Status != StatusReminderSkipped {
				t.Fatalf("expected REMINDER_SKIPPED, got %+v", res)
			}
			if len(p.notifier.sent) != 0 {
				t.Error("no notification expected")
			}
		})
	}
}

func TestProcessReminders_ClaimHeldElsewhere(t *testing.T) {
	p := newPipeline(t)
	p.addAppointment(t, "a1", "p1", tomorrow, "10:00", "11:00", domain.StatusConfirmed)

	if ok, _ := p.claimer.Claim(context.Background(), "reminder:a1", time.Hour); !ok {
		t.Fatal("setup claim failed")
	}

	res := p.reminders.Execute(context.Background(), []queue.Delivery{delivery("r1", reminderBody("a1", "p1"))})
	if res.Skipped != 1 {
		t.Fatalf("expected skip, got %+v", res)
	}
}

func TestProcessReminders_SendFailure(t *testing.T) {
	p := newPipeline(t)
	p.notifier.err = errors.New("provider down")
	p.addAppointment(t, "a1", "p1", tomorrow, "10:00", "11:00", domain.StatusConfirmed)

	res := p.reminders.Execute(context.Background(), []queue.Delivery{delivery("r1", reminderBody("a1", "p1"))})
	if res.Failed != 1 || res.Errors[0] != "Failed to send reminder notification for appointment a1" {
		t.Fatalf("unexpected result %+v", res)
	}
	if !res.Items[0].Retryable {
		t.Error("expected a failed send to be retryable")
	}
	if p.appointment(t, "a1").ReminderSent {
		t.Error("flag must stay false after a failed send")
	}

	// The claim was released, so a redelivery can send.
	p.notifier.err = nil
	res = p.reminders.Execute(context.Background(), []queue.Delivery{delivery("r1", reminderBody("a1", "p1"))})
	if res.Successful != 1 {
		t.Fatalf("expected retry to succeed, got %+v", res)
	}
}

func TestProcessReminders_Failures(t *testing.T) {
	p := newPipeline(t)
	p.addPatient(t, "p2")
	p.addAppointment(t, "a1", "p1", tomorrow, "10:00", "11:00", domain.StatusConfirmed)

	res := p.reminders.Execute(context.Background(), []queue.Delivery{
		delivery("r1", `{"appointmentId":"a1"}`),
		delivery("r2", reminderBody("missing", "p1")),
		delivery("r3", reminderBody("a1", "p2")),
	})

	want := []string{
		"Failed to process reminder message r1: Missing required fields: appointmentId or patientId",
		"Failed to process reminder message r2: Appointment missing not found",
		"Failed to process reminder message r3: Appointment a1 does not belong to patient p2",
	}
	if res.Failed != len(want) {
		t.Fatalf("expected %d failures, got %+v", len(want), res)
	}
	for i, w := range want {
		if res.Errors[i] != w {
			t.Errorf("error %d: expected %q, got %q", i, w, res.Errors[i])
		}
	}
}
