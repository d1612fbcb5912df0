package validators

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

const (
	TagISODate = "isodate"
	TagHHMM    = "hhmm"
)

// New returns a validator that reports json field names and knows the
// scheduling tags.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation(TagISODate, isoDate)
	_ = v.RegisterValidation(TagHHMM, hhmm)

	return v
}

func isoDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != len(timeutil.DateLayout) {
		return false
	}
	_, err := time.Parse(timeutil.DateLayout, s)
	return err == nil
}

func hhmm(fl validator.FieldLevel) bool {
	return timeutil.TimeOfDayPattern.MatchString(fl.Field().String())
}
