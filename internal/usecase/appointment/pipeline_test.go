package appointment

import (
	"context"
	"testing"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/queue"
)

// drain receives everything visible on name and acknowledges it.
func (p *pipeline) drain(t *testing.T, name string) []queue.Delivery {
	t.Helper()
	ds, err := p.broker.Receive(context.Background(), name, 10)
	if err != nil {
		t.Fatalf("Receive(%s): %v", name, err)
	}
	if err := p.broker.Ack(context.Background(), name, ds); err != nil {
		t.Fatalf("Ack(%s): %v", name, err)
	}
	return ds
}

func TestPipeline_RequestToReminder(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	body := `{"patientId":"p1","appointmentDate":"` + tomorrow + `","startTime":"10:00","endTime":"11:00"}`
	res := p.intake.Execute(ctx, []queue.Delivery{delivery("req-1", body)})
	if res.Successful != 1 {
		t.Fatalf("intake: %+v", res)
	}
	id := res.Items[0].AppointmentID

	confirms := p.drain(t, confirmationQueue)
	if len(confirms) != 1 {
		t.Fatalf("expected 1 confirm message, got %d", len(confirms))
	}
	if res := p.confirm.Execute(ctx, confirms); res.Successful != 1 {
		t.Fatalf("confirmation: %+v", res)
	}
	if got := p.appointment(t, id).Status; got != string(domain.StatusConfirmed) {
		t.Fatalf("expected CONFIRMED, got %s", got)
	}

	// Not visible until 24h before the start.
	if ds := p.drain(t, reminderQueue); len(ds) != 0 {
		t.Fatalf("reminder delivered early: %d", len(ds))
	}
	p.clock.WarpForward(time.Hour)

	reminders := p.drain(t, reminderQueue)
	if len(reminders) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(reminders))
	}
	res = p.reminders.Execute(ctx, reminders)
	if res.Successful != 1 || res.Items[0].Status != StatusReminderSent {
		t.Fatalf("reminder: %+v", res)
	}
	if !p.appointment(t, id).ReminderSent {
		t.Error("reminderSent not set")
	}
	if p.notifier.count(notify.KindReminder) != 1 {
		t.Error("expected one reminder notification")
	}

	// A redelivered reminder is skipped.
	res = p.reminders.Execute(ctx, reminders)
	if res.Skipped != 1 || res.Items[0].Status != StatusReminderSkipped {
		t.Fatalf("redelivery: %+v", res)
	}
}

func TestPipeline_ReminderSkippedWhenNotConfirmed(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)
	p.addAppointment(t, "a1", "p1", tomorrow, "10:00", "11:00", domain.StatusRequested)

	res := p.confirm.Execute(ctx, []queue.Delivery{delivery("c1", confirmBody("a1", "p1", "CONFIRM"))})
	if res.Successful != 1 {
		t.Fatalf("confirmation: %+v", res)
	}
	reminder := p.broker.Pending(reminderQueue)[0]

	// The appointment leaves CONFIRMED before the reminder fires.
	err := p.store.UpdateStatus(ctx, domain.StatusUpdate{
		AppointmentID: "a1",
		From:          domain.StatusConfirmed,
		To:            domain.StatusCancelled,
		At:            testNow,
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	res = p.reminders.Execute(ctx, []queue.Delivery{delivery("r1", string(reminder.Body))})
	if res.Skipped != 1 || res.Items[0].Status != StatusReminderSkipped {
		t.Fatalf("expected REMINDER_SKIPPED, got %+v", res)
	}
	if p.notifier.count(notify.KindReminder) != 0 {
		t.Error("no reminder notification expected")
	}
}
