package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

// Transition describes the outcome of ApplyTransition.
type Transition struct {
	AppointmentID string
	From          Status
	To            Status
	// Changed is false when the appointment already had the target status.
	Changed bool
}

type Lifecycle struct {
	repo  Repository
	clock timeutil.Clock
}

func NewLifecycle(repo Repository, clock timeutil.Clock) *Lifecycle {
	return &Lifecycle{
		repo:  repo,
		clock: clock,
	}
}

// ApplyTransition moves the appointment from REQUESTED to `to` with a write
// conditioned on the record existing with the expected prior status.
//
// When the condition fails the record is re-read: a record already in `to`
// is reported as unchanged, anything else is ErrInvalidTransition. A missing
// record is ErrAppointmentNotFound.
func (l *Lifecycle) ApplyTransition(
	ctx context.Context,
	appointmentID string,
	to Status,
	note string,
) (Transition, error) {

	from := StatusRequested
	if !CanTransition(from, to) {
		return Transition{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	err := l.repo.UpdateStatus(ctx, StatusUpdate{
		AppointmentID: appointmentID,
		From:          from,
		To:            to,
		Note:          note,
		At:            l.clock.Now(),
	})
	if err == nil {
		return Transition{AppointmentID: appointmentID, From: from, To: to, Changed: true}, nil
	}
	if !errors.Is(err, ErrStatusMismatch) {
		return Transition{}, err
	}

	current, err := l.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return Transition{}, err
	}

	cur := Status(current.Status)
	if cur == to {
		return Transition{AppointmentID: appointmentID, From: cur, To: to, Changed: false}, nil
	}
	return Transition{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur, to)
}

// IsReminderEligible reports whether ap is CONFIRMED and starts strictly
// after now. The start is resolved in now's location.
func IsReminderEligible(ap *models.Appointment, now time.Time) bool {
	if Status(ap.Status) != StatusConfirmed {
		return false
	}
	start, err := StartsAt(ap, now.Location())
	if err != nil {
		return false
	}
	return timeutil.IsFuture(start, now)
}
