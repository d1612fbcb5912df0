package appointment

import (
	"fmt"
	"strings"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

// FindConflicts returns every appointment in existing whose interval
// overlaps [start, end). existing is expected to hold one patient's
// non-cancelled appointments on one date.
//
// A stored record with an unparsable time is an error rather than a
// silent pass.
func FindConflicts(
	existing []models.Appointment,
	start timeutil.TimeOfDay,
	end timeutil.TimeOfDay,
) ([]models.Appointment, error) {

	var conflicts []models.Appointment
	for _, ap := range existing {
		s, err := timeutil.ParseTimeOfDay(ap.StartTime)
		if err != nil {
			return nil, fmt.Errorf("appointment %s: %w", ap.AppointmentID, err)
		}
		e, err := timeutil.ParseTimeOfDay(ap.EndTime)
		if err != nil {
			return nil, fmt.Errorf("appointment %s: %w", ap.AppointmentID, err)
		}

		if timeutil.Overlaps(start, end, s, e) {
			conflicts = append(conflicts, ap)
		}
	}
	return conflicts, nil
}

func DescribeConflicts(conflicts []models.Appointment) []string {
	out := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, fmt.Sprintf("Time conflict with existing appointment: %s - %s", c.StartTime, c.EndTime))
	}
	return out
}

func ConflictError(conflicts []models.Appointment) error {
	return fmt.Errorf("%w: %s", ErrTimeConflict, strings.Join(DescribeConflicts(conflicts), "; "))
}
