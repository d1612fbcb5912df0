package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

// fakeRepo is a minimal Repository keyed by appointment id.
type fakeRepo struct {
	appointments map[string]*models.Appointment
	updateErr    error
	updates      int
}

func newFakeRepo(aps ...models.Appointment) *fakeRepo {
	r := &fakeRepo{appointments: map[string]*models.Appointment{}}
	for i := range aps {
		ap := aps[i]
		r.appointments[ap.AppointmentID] = &ap
	}
	return r
}

func (r *fakeRepo) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	return nil, ErrPatientNotFound
}

func (r *fakeRepo) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	r.appointments[ap.AppointmentID] = ap
	return nil
}

func (r *fakeRepo) ListActiveForPatientOnDate(ctx context.Context, patientID, date string) ([]models.Appointment, error) {
	return nil, nil
}

func (r *fakeRepo) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	ap, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *ap
	return &cp, nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, in StatusUpdate) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	ap, ok := r.appointments[in.AppointmentID]
	if !ok {
		return ErrAppointmentNotFound
	}
	if Status(ap.Status) != in.From {
		return ErrStatusMismatch
	}
	r.updates++
	ap.Status = string(in.To)
	ap.Notes = in.Note
	ap.UpdatedAt = in.At
	return nil
}

func (r *fakeRepo) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	return nil
}

func appointmentWithStatus(id string, st Status) models.Appointment {
	return models.Appointment{
		AppointmentID:   id,
		PatientID:       "p1",
		AppointmentDate: "2030-06-11",
		StartTime:       "10:00",
		EndTime:         "11:00",
		Status:          string(st),
	}
}

func TestApplyTransition(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 6, 10, 9, 0, 0, 0, time.UTC)
	clock := timeutil.NewManaged(now)

	t.Run("confirm requested", func(t *testing.T) {
		repo := newFakeRepo(appointmentWithStatus("a1", StatusRequested))
		lc := NewLifecycle(repo, clock)

		tr, err := lc.ApplyTransition(ctx, "a1", StatusConfirmed, "Appointment confirmed")
		if err != nil {
			t.Fatalf("ApplyTransition: %v", err)
		}
		if !tr.Changed || tr.From != StatusRequested || tr.To != StatusConfirmed {
			t.Errorf("unexpected transition %+v", tr)
		}
		ap := repo.appointments["a1"]
		if ap.Status != string(StatusConfirmed) {
			t.Errorf("expected CONFIRMED, got %s", ap.Status)
		}
		if !ap.UpdatedAt.Equal(now) {
			t.Errorf("expected updatedAt %v, got %v", now, ap.UpdatedAt)
		}
	})

	t.Run("confirm twice is a no-op", func(t *testing.T) {
		repo := newFakeRepo(appointmentWithStatus("a1", StatusRequested))
		lc := NewLifecycle(repo, clock)

		if _, err := lc.ApplyTransition(ctx, "a1", StatusConfirmed, ""); err != nil {
			t.Fatalf("first ApplyTransition: %v", err)
		}
		tr, err := lc.ApplyTransition(ctx, "a1", StatusConfirmed, "")
		if err != nil {
			t.Fatalf("second ApplyTransition: %v", err)
		}
		if tr.Changed {
			t.Error("expected Changed=false on repeated confirm")
		}
		if repo.updates != 1 {
			t.Errorf("expected 1 write, got %d", repo.updates)
		}
	})

	t.Run("cancel after confirm is rejected", func(t *testing.T) {
		repo := newFakeRepo(appointmentWithStatus("a1", StatusConfirmed))
		lc := NewLifecycle(repo, clock)

		_, err := lc.ApplyTransition(ctx, "a1", StatusCancelled, "")
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
		if httperr.KindOf(err) != httperr.KindConflict {
			t.Errorf("expected conflict kind, got %s", httperr.KindOf(err))
		}
		if repo.appointments["a1"].Status != string(StatusConfirmed) {
			t.Error("status must not change")
		}
	})

	t.Run("missing record", func(t *testing.T) {
		lc := NewLifecycle(newFakeRepo(), clock)

		_, err := lc.ApplyTransition(ctx, "nope", StatusConfirmed, "")
		if !errors.Is(err, ErrAppointmentNotFound) {
			t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
		}
	})

	t.Run("back to requested", func(t *testing.T) {
		repo := newFakeRepo(appointmentWithStatus("a1", StatusRequested))
		lc := NewLifecycle(repo, clock)

		if _, err := lc.ApplyTransition(ctx, "a1", StatusRequested, ""); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("store failure propagates", func(t *testing.T) {
		repo := newFakeRepo(appointmentWithStatus("a1", StatusRequested))
		repo.updateErr = httperr.Unavailable(errors.New("timeout"))
		lc := NewLifecycle(repo, clock)

		_, err := lc.ApplyTransition(ctx, "a1", StatusConfirmed, "")
		if httperr.KindOf(err) != httperr.KindStoreUnavailable {
			t.Fatalf("expected store_unavailable, got %v", err)
		}
	})
}

func TestIsReminderEligible(t *testing.T) {
	start := time.Date(2030, 6, 11, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status Status
		now    time.Time
		want   bool
	}{
		{"confirmed future", StatusConfirmed, start.Add(-time.Minute), true},
		{"confirmed at start", StatusConfirmed, start, false},
		{"confirmed past", StatusConfirmed, start.Add(time.Hour), false},
		{"requested future", StatusRequested, start.Add(-48 * time.Hour), false},
		{"cancelled future", StatusCancelled, start.Add(-48 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ap := appointmentWithStatus("a1", tt.status)
			if got := IsReminderEligible(&ap, tt.now); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
