package appointment

import (
	"strings"
	"testing"
	"time"
)

var refNow = time.Date(2030, 6, 10, 9, 0, 0, 0, time.UTC)

func newTestValidator() *Validator {
	return NewValidator(DefaultBusinessHours(), time.UTC)
}

func decode(t *testing.T, body string) Request {
	t.Helper()
	req, err := DecodeRequest([]byte(body))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	return req
}

func TestValidate_ValidRequest(t *testing.T) {
	req := decode(t, `{"patientId":"p1","appointmentDate":"2030-06-11","startTime":"10:00","endTime":"11:00","notes":"checkup"}`)

	if v := newTestValidator().Validate(req, refNow); len(v) != 0 {
		t.Fatalf("expected no violations, got %v", v)
	}
}

func TestValidate_TodayIsAllowed(t *testing.T) {
	req := decode(t, `{"patientId":"p1","appointmentDate":"2030-06-10","startTime":"08:00","endTime":"18:00"}`)

	if v := newTestValidator().Validate(req, refNow); len(v) != 0 {
		t.Fatalf("expected no violations, got %v", v)
	}
}

func TestValidate_BusinessRules(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "past date",
			body: `{"patientId":"p1","appointmentDate":"2030-06-09","startTime":"10:00","endTime":"11:00"}`,
			want: []string{"Appointment date cannot be in the past"},
		},
		{
			name: "start equals end",
			body: `{"patientId":"p1","appointmentDate":"2030-06-11","startTime":"10:00","endTime":"10:00"}`,
			want: []string{"Start time must be before end time"},
		},
		{
			name: "before opening",
			body: `{"patientId":"p1","appointmentDate":"2030-06-11","startTime":"7:30","endTime":"09:00"}`,
			want: []string{"Appointments must be during business hours (8 AM - 6 PM)"},
		},
		{
			name: "past and inverted and late",
			body: `{"patientId":"p1","appointmentDate":"2030-01-01","startTime":"19:00","endTime":"18:30"}`,
			want: []string{
				"Appointment date cannot be in the past",
				"Start time must be before end time",
				"Appointments must be during business hours (8 AM - 6 PM)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestValidator().Validate(decode(t, tt.body), refNow)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestValidate_StartNotBeforeEndAlwaysReported(t *testing.T) {
	// Other fields are invalid too; the ordering complaint must still be there.
	req := decode(t, `{"patientId":"","appointmentDate":"2000-01-01","startTime":"12:00","endTime":"11:00","extra":1}`)

	got := newTestValidator().Validate(req, refNow)

	found := false
	for _, v := range got {
		if strings.Contains(v, "before") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a start/end violation, got %v", got)
	}
}

func TestValidate_Structural(t *testing.T) {
	req := decode(t, `{"patientId":42,"appointmentDate":"2030-06-11","startTime":"10:00","endTime":"11:00","notes":"`+strings.Repeat("x", 501)+`","room":"3","color":"red"}`)

	got := newTestValidator().Validate(req, refNow)
	want := []string{
		"patientId must be a string",
		"notes must be at most 500 characters",
		`unrecognized field "color"`,
		`unrecognized field "room"`,
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestValidate_ParseFailureReplacesBusinessRules(t *testing.T) {
	req := decode(t, `{"patientId":"p1","appointmentDate":"2030-06-11","startTime":"25:00","endTime":"11:00"}`)

	got := newTestValidator().Validate(req, refNow)
	if len(got) != 2 {
		t.Fatalf("expected 2 violations, got %v", got)
	}
	if got[0] != "startTime must be a time in HH:MM format (00:00-23:59)" {
		t.Errorf("unexpected structural violation %q", got[0])
	}
	if !strings.HasPrefix(got[1], "Date/time parsing error: ") {
		t.Errorf("expected parsing error, got %q", got[1])
	}
}

func TestValidate_MissingFields(t *testing.T) {
	got := newTestValidator().Validate(decode(t, `{}`), refNow)

	want := []string{
		"patientId is required",
		"appointmentDate is required",
		"startTime is required",
		"endTime is required",
	}
	if len(got) != len(want)+1 {
		t.Fatalf("expected %d violations, got %v", len(want)+1, got)
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("violation %d: expected %q, got %q", i, w, got[i])
		}
	}
}

func TestDecodeRequest_NotAnObject(t *testing.T) {
	if _, err := DecodeRequest([]byte(`[1,2]`)); err == nil {
		t.Fatal("expected error for non-object body")
	}
}
