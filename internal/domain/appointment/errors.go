package appointment

import "github.com/BruksfildServices01/clinic-scheduler/internal/httperr"

var (
	ErrAppointmentNotFound = httperr.New(httperr.KindNotFound, "appointment_not_found", "appointment not found")
	ErrPatientNotFound     = httperr.New(httperr.KindNotFound, "patient_not_found", "patient not found")

	ErrTimeConflict         = httperr.New(httperr.KindConflict, "time_conflict", "time conflict")
	ErrDuplicateAppointment = httperr.New(httperr.KindConflict, "duplicate_appointment", "appointment already exists")
	ErrDuplicatePatient     = httperr.New(httperr.KindConflict, "duplicate_patient", "patient already exists")

	// ErrStatusMismatch is returned by a conditional status write whose
	// expected prior status no longer holds.
	ErrStatusMismatch    = httperr.New(httperr.KindConflict, "status_mismatch", "appointment status changed concurrently")
	ErrInvalidTransition = httperr.New(httperr.KindConflict, "invalid_transition", "invalid status transition")

	ErrUnknownAction   = httperr.New(httperr.KindMalformedInput, "unknown_action", "unknown action")
	ErrPatientMismatch = httperr.New(httperr.KindConflict, "patient_mismatch", "appointment does not belong to patient")
)
