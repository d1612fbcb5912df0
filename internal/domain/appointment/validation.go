package appointment

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
	"github.com/BruksfildServices01/clinic-scheduler/internal/validators"
)

const MaxNotesLength = 500

// ======================================================
// REQUEST
// ======================================================

// Request is an inbound appointment request as read from the intake queue.
type Request struct {
	PatientID       string `json:"patientId" validate:"required"`
	AppointmentDate string `json:"appointmentDate" validate:"required,isodate"`
	StartTime       string `json:"startTime" validate:"required,hhmm"`
	EndTime         string `json:"endTime" validate:"required,hhmm"`
	Notes           string `json:"notes,omitempty" validate:"max=500"`

	unknown    []string
	typeErrors map[string]string
}

var requestFields = []string{"patientId", "appointmentDate", "startTime", "endTime", "notes"}

// UnmarshalJSON keeps decoding past unknown keys and mistyped fields so
// the validator can report all of them together.
func (r *Request) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*r = Request{}
	targets := map[string]*string{
		"patientId":       &r.PatientID,
		"appointmentDate": &r.AppointmentDate,
		"startTime":       &r.StartTime,
		"endTime":         &r.EndTime,
		"notes":           &r.Notes,
	}

	for key, val := range raw {
		dst, ok := targets[key]
		if !ok {
			r.unknown = append(r.unknown, key)
			continue
		}
		if string(val) == "null" {
			continue
		}
		if err := json.Unmarshal(val, dst); err != nil {
			if r.typeErrors == nil {
				r.typeErrors = map[string]string{}
			}
			r.typeErrors[key] = fmt.Sprintf("%s must be a string", key)
		}
	}
	sort.Strings(r.unknown)
	return nil
}

// DecodeRequest parses a message body. Only a body that is not a JSON
// object fails here; field problems surface from Validate.
func DecodeRequest(body []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, httperr.Wrap(httperr.KindMalformedInput, "invalid_json", err)
	}
	return req, nil
}

// ======================================================
// VALIDATOR
// ======================================================

type Validator struct {
	v     *validator.Validate
	hours BusinessHours
	loc   *time.Location
}

func NewValidator(hours BusinessHours, loc *time.Location) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	return &Validator{
		v:     validators.New(),
		hours: hours,
		loc:   loc,
	}
}

// Validate returns every violation found in req, structural ones first.
// now is the reference for the past-date rule.
func (val *Validator) Validate(req Request, now time.Time) []string {
	violations := val.structural(req)

	date, start, end, err := val.Parse(req)
	if err != nil {
		return append(violations, fmt.Sprintf("Date/time parsing error: %s", err.Error()))
	}

	today := timeutil.StartOfDay(now.In(val.loc))
	if date.Before(today) {
		violations = append(violations, "Appointment date cannot be in the past")
	}

	if start >= end {
		violations = append(violations, "Start time must be before end time")
	}

	if !val.hours.Contains(start, end) {
		violations = append(violations,
			fmt.Sprintf("Appointments must be during business hours (%s)", val.hours))
	}

	return violations
}

func (val *Validator) structural(req Request) []string {
	byField := map[string]string{}

	var verrs validator.ValidationErrors
	if err := val.v.Struct(req); errors.As(err, &verrs) {
		for _, fe := range verrs {
			if _, seen := byField[fe.Field()]; !seen {
				byField[fe.Field()] = describe(fe)
			}
		}
	}
	for field, msg := range req.typeErrors {
		byField[field] = msg
	}

	var out []string
	for _, field := range requestFields {
		if msg, ok := byField[field]; ok {
			out = append(out, msg)
		}
	}
	for _, key := range req.unknown {
		out = append(out, fmt.Sprintf("unrecognized field %q", key))
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case validators.TagISODate:
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field())
	case validators.TagHHMM:
		return fmt.Sprintf("%s must be a time in HH:MM format (00:00-23:59)", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// Parse resolves the request date and times in the clinic location.
func (val *Validator) Parse(req Request) (time.Time, timeutil.TimeOfDay, timeutil.TimeOfDay, error) {
	date, err := timeutil.ParseDate(req.AppointmentDate, val.loc)
	if err != nil {
		return time.Time{}, 0, 0, err
	}
	start, err := timeutil.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return time.Time{}, 0, 0, err
	}
	end, err := timeutil.ParseTimeOfDay(req.EndTime)
	if err != nil {
		return time.Time{}, 0, 0, err
	}
	return date, start, end, nil
}
