package validation

import "testing"

type sampleRequest struct {
	Date     string `validate:"required,date"`
	Time     string `validate:"required,clock"`
	Timezone string `validate:"omitempty,timezone_name"`
	Start    string `validate:"omitempty,rfc3339"`
	Phone    string `validate:"omitempty,phone"`
}

func TestValidSample(t *testing.T) {
	v := New()
	req := sampleRequest{
		Date:     "2026-03-04",
		Time:     "09:30",
		Timezone: "Europe/Oslo",
		Start:    "2026-03-04T09:30:00Z",
		Phone:    "+4712345678",
	}
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestInvalidValues(t *testing.T) {
	v := New()
	cases := []struct {
		name string
		req  sampleRequest
	}{
		{"bad date", sampleRequest{Date: "04-03-2026", Time: "09:30"}},
		{"bad clock", sampleRequest{Date: "2026-03-04", Time: "9:30pm"}},
		{"bad timezone", sampleRequest{Date: "2026-03-04", Time: "09:30", Timezone: "Mars/Olympus"}},
		{"bad rfc3339", sampleRequest{Date: "2026-03-04", Time: "09:30", Start: "2026-03-04 09:30"}},
		{"bad phone", sampleRequest{Date: "2026-03-04", Time: "09:30", Phone: "call me"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.req)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if len(v.ValidationErrors(err)) == 0 {
				t.Fatalf("expected field errors, got %v", err)
			}
		})
	}
}
