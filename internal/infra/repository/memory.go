package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// MemoryStore keeps records in process. Reads return copies.
type MemoryStore struct {
	mu           sync.RWMutex
	appointments map[string]models.Appointment
	patients     map[string]models.Patient
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		appointments: map[string]models.Appointment{},
		patients:     map[string]models.Patient{},
	}
}

// --------------------------------------------------
// Patient
// --------------------------------------------------

func (s *MemoryStore) PutPatient(ctx context.Context, p *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[p.PatientID]; ok {
		return domain.ErrDuplicatePatient
	}
	s.patients[p.PatientID] = *p
	return nil
}

func (s *MemoryStore) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patients[id]
	if !ok {
		return nil, domain.ErrPatientNotFound
	}
	return &p, nil
}

func (s *MemoryStore) GetPatientByEmail(ctx context.Context, email string) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.patients {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, domain.ErrPatientNotFound
}

// --------------------------------------------------
// Appointment
// --------------------------------------------------

func (s *MemoryStore) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[ap.AppointmentID]; ok {
		return domain.ErrDuplicateAppointment
	}
	s.appointments[ap.AppointmentID] = *ap
	return nil
}

func (s *MemoryStore) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ap, ok := s.appointments[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	return &ap, nil
}

func (s *MemoryStore) ListActiveForPatientOnDate(ctx context.Context, patientID, date string) ([]models.Appointment, error) {
	return s.filter(func(ap models.Appointment) bool {
		return ap.PatientID == patientID &&
			ap.AppointmentDate == date &&
			ap.Status != string(domain.StatusCancelled)
	}), nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, in domain.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ap, ok := s.appointments[in.AppointmentID]
	if !ok {
		return domain.ErrAppointmentNotFound
	}
	if ap.Status != string(in.From) {
		return domain.ErrStatusMismatch
	}

	ap.Status = string(in.To)
	ap.UpdatedAt = in.At
	if in.Note != "" {
		ap.Notes = in.Note
	}
	s.appointments[in.AppointmentID] = ap
	return nil
}

func (s *MemoryStore) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ap, ok := s.appointments[id]
	if !ok {
		return domain.ErrAppointmentNotFound
	}
	ap.ReminderSent = true
	ap.UpdatedAt = at
	s.appointments[id] = ap
	return nil
}

// --------------------------------------------------
// Queries
// --------------------------------------------------

func (s *MemoryStore) ListByPatient(ctx context.Context, patientID string, status domain.Status, dates domain.DateRange) ([]models.Appointment, error) {
	return s.filter(func(ap models.Appointment) bool {
		return ap.PatientID == patientID && matches(ap, status, dates)
	}), nil
}

func (s *MemoryStore) ListByStatus(ctx context.Context, status domain.Status, dates domain.DateRange) ([]models.Appointment, error) {
	return s.filter(func(ap models.Appointment) bool {
		return matches(ap, status, dates)
	}), nil
}

func (s *MemoryStore) ListByDateRange(ctx context.Context, dates domain.DateRange, status domain.Status) ([]models.Appointment, error) {
	return s.filter(func(ap models.Appointment) bool {
		return matches(ap, status, dates)
	}), nil
}

func matches(ap models.Appointment, status domain.Status, dates domain.DateRange) bool {
	if status != "" && ap.Status != string(status) {
		return false
	}
	return dates.Contains(ap.AppointmentDate)
}

// filter returns matching appointments ordered by date then start time.
func (s *MemoryStore) filter(keep func(models.Appointment) bool) []models.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Appointment
	for _, ap := range s.appointments {
		if keep(ap) {
			out = append(out, ap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AppointmentDate != out[j].AppointmentDate {
			return out[i].AppointmentDate < out[j].AppointmentDate
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].AppointmentID < out[j].AppointmentID
	})
	return out
}

var _ domain.Store = (*MemoryStore)(nil)
