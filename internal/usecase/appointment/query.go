package appointment

import (
	"context"
	"errors"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

const (
	DefaultSearchLimit = 100
	MaxSearchLimit     = 1000
)

const (
	SearchByAppointmentID = "by_appointment_id"
	SearchByPatientID     = "by_patient_id"
	SearchByPatientEmail  = "by_patient_email"
	SearchByStatusAndDate = "by_status_and_date"
	SearchByDateRange     = "by_date_range"
	SearchByStatus        = "by_status"
	SearchNone            = "none"
)

type SearchParams struct {
	AppointmentID string
	PatientID     string
	PatientEmail  string
	Status        string
	StartDate     string
	EndDate       string
	// Limit bounds the returned results; zero means DefaultSearchLimit.
	Limit int
}

// ======================================================
// SEARCH
// ======================================================

type SearchAppointments struct {
	repo domain.QueryRepository
}

func NewSearchAppointments(repo domain.QueryRepository) *SearchAppointments {
	return &SearchAppointments{repo: repo}
}

// Execute runs the most specific search the parameters allow. An
// appointment id or patient email that matches nothing falls through to
// the next criterion.
func (uc *SearchAppointments) Execute(
	ctx context.Context,
	p SearchParams,
) (*dto.SearchResult, error) {

	limit, err := searchLimit(p.Limit)
	if err != nil {
		return nil, err
	}

	var status domain.Status
	if p.Status != "" {
		if status, err = domain.ParseStatus(p.Status); err != nil {
			return nil, err
		}
	}

	dates := domain.DateRange{From: p.StartDate, To: p.EndDate}
	if err := validateDates(dates); err != nil {
		return nil, err
	}

	// -------- By appointment id --------
	if p.AppointmentID != "" {
		ap, err := uc.repo.GetAppointment(ctx, p.AppointmentID)
		switch {
		case err == nil:
			return &dto.SearchResult{
				Count:      1,
				Results:    []models.Appointment{*ap},
				SearchType: SearchByAppointmentID,
			}, nil
		case !errors.Is(err, domain.ErrAppointmentNotFound):
			return nil, err
		}
	}

	// -------- By patient --------
	if p.PatientID != "" {
		list, err := uc.repo.ListByPatient(ctx, p.PatientID, status, dates)
		if err != nil {
			return nil, err
		}
		return truncated(list, limit, SearchByPatientID), nil
	}

	if p.PatientEmail != "" {
		patient, err := uc.repo.GetPatientByEmail(ctx, p.PatientEmail)
		switch {
		case err == nil:
			list, err := uc.repo.ListByPatient(ctx, patient.PatientID, status, dates)
			if err != nil {
				return nil, err
			}
			return truncated(list, limit, SearchByPatientEmail), nil
		case !errors.Is(err, domain.ErrPatientNotFound):
			return nil, err
		}
	}

	// -------- By status / date --------
	if status != "" && !dates.IsZero() {
		list, err := uc.repo.ListByStatus(ctx, status, dates)
		if err != nil {
			return nil, err
		}
		return truncated(list, limit, SearchByStatusAndDate), nil
	}

	if dates.From != "" && dates.To != "" {
		list, err := uc.repo.ListByDateRange(ctx, dates, status)
		if err != nil {
			return nil, err
		}
		return truncated(list, limit, SearchByDateRange), nil
	}

	if status != "" {
		list, err := uc.repo.ListByStatus(ctx, status, domain.DateRange{})
		if err != nil {
			return nil, err
		}
		return truncated(list, limit, SearchByStatus), nil
	}

	return &dto.SearchResult{
		Count:      0,
		Results:    []models.Appointment{},
		SearchType: SearchNone,
		Error:      "No valid search criteria provided",
	}, nil
}

func searchLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return DefaultSearchLimit, nil
	case limit < 0:
		return 0, httperr.New(httperr.KindMalformedInput, "invalid_limit", "limit must be a positive integer")
	case limit > MaxSearchLimit:
		return MaxSearchLimit, nil
	}
	return limit, nil
}

func truncated(list []models.Appointment, limit int, searchType string) *dto.SearchResult {
	count := len(list)
	if len(list) > limit {
		list = list[:limit]
	}
	if list == nil {
		list = []models.Appointment{}
	}
	return &dto.SearchResult{
		Count:      count,
		Results:    list,
		SearchType: searchType,
	}
}

func validateDates(r domain.DateRange) error {
	for _, d := range []string{r.From, r.To} {
		if d == "" {
			continue
		}
		if _, err := timeutil.ParseDate(d, time.UTC); err != nil {
			return err
		}
	}
	return nil
}

// ======================================================
// STATISTICS
// ======================================================

type GetStatistics struct {
	repo domain.QueryRepository
}

func NewGetStatistics(repo domain.QueryRepository) *GetStatistics {
	return &GetStatistics{repo: repo}
}

// Execute aggregates every appointment dated within [startDate, endDate].
func (uc *GetStatistics) Execute(
	ctx context.Context,
	startDate string,
	endDate string,
) (*dto.Statistics, error) {

	if startDate == "" || endDate == "" {
		return nil, httperr.New(
			httperr.KindMalformedInput,
			"missing_date_range",
			"startDate and endDate are required for statistics",
		)
	}

	from, err := timeutil.ParseDate(startDate, time.UTC)
	if err != nil {
		return nil, err
	}
	to, err := timeutil.ParseDate(endDate, time.UTC)
	if err != nil {
		return nil, err
	}

	list, err := uc.repo.ListByDateRange(ctx, domain.DateRange{From: startDate, To: endDate}, "")
	if err != nil {
		return nil, err
	}

	breakdown := map[string]int{}
	patients := map[string]struct{}{}
	for _, ap := range list {
		status := ap.Status
		if status == "" {
			status = "UNKNOWN"
		}
		breakdown[status]++
		patients[ap.PatientID] = struct{}{}
	}

	days := int(to.Sub(from).Hours()/24) + 1
	if days < 1 {
		days = 1
	}

	return &dto.Statistics{
		DateRange:                 dto.DateRange{StartDate: startDate, EndDate: endDate},
		TotalAppointments:         len(list),
		UniquePatients:            len(patients),
		StatusBreakdown:           breakdown,
		AverageAppointmentsPerDay: float64(len(list)) / float64(days),
	}, nil
}

// ======================================================
// LOOKUPS
// ======================================================

type GetAppointment struct {
	repo domain.QueryRepository
}

func NewGetAppointment(repo domain.QueryRepository) *GetAppointment {
	return &GetAppointment{repo: repo}
}

func (uc *GetAppointment) Execute(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	return uc.repo.GetAppointment(ctx, appointmentID)
}

type GetPatient struct {
	repo domain.QueryRepository
}

func NewGetPatient(repo domain.QueryRepository) *GetPatient {
	return &GetPatient{repo: repo}
}

func (uc *GetPatient) Execute(ctx context.Context, patientID string) (*models.Patient, error) {
	return uc.repo.GetPatient(ctx, patientID)
}
