package appointment

import (
	"fmt"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
)

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

func InitialStatus() Status {
	return StatusRequested
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusRequested, StatusConfirmed, StatusCancelled:
		return st, nil
	}
	return "", httperr.New(
		httperr.KindMalformedInput,
		"invalid_status",
		fmt.Sprintf("unknown status %q", s),
	)
}

// CanTransition reports whether from --> to is an edge of the lifecycle.
// Only REQUESTED has outgoing edges.
func CanTransition(from, to Status) bool {
	return from == StatusRequested && (to == StatusConfirmed || to == StatusCancelled)
}

// ===============================
// Actions
// ===============================

type Action string

const (
	ActionConfirm Action = "CONFIRM"
	ActionCancel  Action = "CANCEL"
)

// Target returns the status an action moves an appointment to.
func (a Action) Target() (Status, error) {
	switch a {
	case ActionConfirm:
		return StatusConfirmed, nil
	case ActionCancel:
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownAction, a)
}

// Note is the text stored alongside the status change.
func (a Action) Note() string {
	switch a {
	case ActionConfirm:
		return "Appointment confirmed"
	case ActionCancel:
		return "Appointment cancelled"
	}
	return ""
}
