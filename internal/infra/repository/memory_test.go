package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

func seedMemory(t *testing.T) *MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.PutPatient(ctx, &models.Patient{PatientID: "p1", Email: "Ana@Example.com"}); err != nil {
		t.Fatalf("PutPatient: %v", err)
	}
	for _, ap := range []models.Appointment{
		{AppointmentID: "a1", PatientID: "p1", AppointmentDate: "2030-06-11", StartTime: "10:00", EndTime: "11:00", Status: "REQUESTED"},
		{AppointmentID: "a2", PatientID: "p1", AppointmentDate: "2030-06-11", StartTime: "08:00", EndTime: "09:00", Status: "CANCELLED"},
		{AppointmentID: "a3", PatientID: "p2", AppointmentDate: "2030-06-11", StartTime: "10:00", EndTime: "11:00", Status: "CONFIRMED"},
		{AppointmentID: "a4", PatientID: "p1", AppointmentDate: "2030-06-20", StartTime: "10:00", EndTime: "11:00", Status: "CONFIRMED"},
	} {
		ap := ap
		if err := s.CreateAppointment(ctx, &ap); err != nil {
			t.Fatalf("CreateAppointment: %v", err)
		}
	}
	return s
}

func TestMemoryStore_ActiveForPatientOnDate(t *testing.T) {
	s := seedMemory(t)

	got, err := s.ListActiveForPatientOnDate(context.Background(), "p1", "2030-06-11")
	if err != nil {
		t.Fatalf("ListActiveForPatientOnDate: %v", err)
	}
	if len(got) != 1 || got[0].AppointmentID != "a1" {
		t.Fatalf("expected only a1, got %+v", got)
	}
}

func TestMemoryStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := seedMemory(t)
	at := time.Date(2030, 6, 10, 9, 0, 0, 0, time.UTC)

	err := s.UpdateStatus(ctx, domain.StatusUpdate{AppointmentID: "a1", From: domain.StatusRequested, To: domain.StatusConfirmed, Note: "Appointment confirmed", At: at})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	ap, _ := s.GetAppointment(ctx, "a1")
	if ap.Status != "CONFIRMED" || ap.Notes != "Appointment confirmed" || !ap.UpdatedAt.Equal(at) {
		t.Errorf("unexpected record %+v", ap)
	}

	err = s.UpdateStatus(ctx, domain.StatusUpdate{AppointmentID: "a1", From: domain.StatusRequested, To: domain.StatusCancelled, At: at})
	if !errors.Is(err, domain.ErrStatusMismatch) {
		t.Errorf("expected ErrStatusMismatch, got %v", err)
	}

	err = s.UpdateStatus(ctx, domain.StatusUpdate{AppointmentID: "zz", From: domain.StatusRequested, To: domain.StatusConfirmed, At: at})
	if !errors.Is(err, domain.ErrAppointmentNotFound) {
		t.Errorf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := seedMemory(t)

	ap, _ := s.GetAppointment(ctx, "a1")
	ap.Status = "CANCELLED"

	again, _ := s.GetAppointment(ctx, "a1")
	if again.Status != "REQUESTED" {
		t.Fatal("mutating a returned record must not change the store")
	}
}

func TestMemoryStore_Queries(t *testing.T) {
	ctx := context.Background()
	s := seedMemory(t)

	byStatus, _ := s.ListByStatus(ctx, domain.StatusConfirmed, domain.DateRange{})
	if len(byStatus) != 2 {
		t.Errorf("expected 2 confirmed, got %d", len(byStatus))
	}

	inRange, _ := s.ListByDateRange(ctx, domain.DateRange{From: "2030-06-11", To: "2030-06-11"}, "")
	if len(inRange) != 3 {
		t.Errorf("expected 3 on 2030-06-11, got %d", len(inRange))
	}
	if inRange[0].StartTime != "08:00" {
		t.Errorf("expected results ordered by start time, got %s first", inRange[0].StartTime)
	}

	byPatient, _ := s.ListByPatient(ctx, "p1", domain.StatusConfirmed, domain.DateRange{})
	if len(byPatient) != 1 || byPatient[0].AppointmentID != "a4" {
		t.Errorf("unexpected patient results %+v", byPatient)
	}

	p, err := s.GetPatientByEmail(ctx, "ana@example.com")
	if err != nil || p.PatientID != "p1" {
		t.Errorf("GetPatientByEmail: %v %+v", err, p)
	}
}
