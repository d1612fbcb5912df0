package appointment

import (
	"fmt"

	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

// BusinessHours is the daily window appointments must fall in.
type BusinessHours struct {
	Open  timeutil.TimeOfDay
	Close timeutil.TimeOfDay
}

func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		Open:  timeutil.MustTimeOfDay("08:00"),
		Close: timeutil.MustTimeOfDay("18:00"),
	}
}

// Contains reports whether [start, end) lies inside the window.
func (b BusinessHours) Contains(start, end timeutil.TimeOfDay) bool {
	return start >= b.Open && end <= b.Close
}

func (b BusinessHours) String() string {
	return fmt.Sprintf("%s - %s", b.Open.Kitchen(), b.Close.Kitchen())
}
