package validators

import "testing"

type sample struct {
	Date string `json:"date" validate:"isodate"`
	At   string `json:"at" validate:"hhmm"`
}

func TestTags(t *testing.T) {
	v := New()

	tests := []struct {
		name string
		in   sample
		ok   bool
	}{
		{"valid", sample{Date: "2030-01-31", At: "09:05"}, true},
		{"single digit hour", sample{Date: "2030-01-31", At: "9:05"}, true},
		{"bad month", sample{Date: "2030-13-01", At: "09:05"}, false},
		{"short date", sample{Date: "2030-1-1", At: "09:05"}, false},
		{"hour out of range", sample{Date: "2030-01-31", At: "24:00"}, false},
		{"one digit minute", sample{Date: "2030-01-31", At: "09:5"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestIsEmailSyntaxValid(t *testing.T) {
	cases := map[string]bool{
		"ana@example.com":       true,
		"Ana <ana@example.com>": false,
		"not-an-email":          false,
		"":                      false,
	}
	for in, want := range cases {
		if got := IsEmailSyntaxValid(in); got != want {
			t.Errorf("IsEmailSyntaxValid(%q) = %v, want %v", in, got, want)
		}
	}
}
