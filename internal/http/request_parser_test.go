package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"timetracker/internal/core"
)

func newParser(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantJSON    bool
		wantTitle   string
	}{
		{"json object", "application/json", `{"title":" Plan sprint "}`, true, "Plan sprint"},
		{"json without header", "", `{"title":"Plan"}`, true, "Plan"},
		{"form", "application/x-www-form-urlencoded", "title=Plan+sprint", false, "Plan sprint"},
		{"control characters stripped", "", "title=Pl%00an", false, "Plan"},
		{"empty body", "", "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(t, tt.contentType, tt.body)
			if isJSON := p.jsonData != nil; isJSON != tt.wantJSON {
				t.Errorf("parsed as JSON = %v, want %v", isJSON, tt.wantJSON)
			}
			if got := p.Get("title"); got != tt.wantTitle {
				t.Errorf("Get(title) = %q, want %q", got, tt.wantTitle)
			}
		})
	}
}

func TestRequestBodyParserRejectsBrokenJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("expected error")
	}
	if err := p.Parse(); err == nil {
		t.Fatal("Parse should keep returning the first error")
	}
}

func TestRequestBodyParserLimit(t *testing.T) {
	body := `{"title":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	p := NewRequestBodyParser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	if err := p.Parse(); err == nil {
		t.Fatal("expected oversized body to be rejected")
	}
}

func TestParseEntryInput(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantDuration  int
		wantProgress  *int
		wantCompleted *bool
		wantField     string
	}{
		{name: "minutes number", body: `{"duration":90}`, wantDuration: 90},
		{name: "minutes string", body: `{"duration":"45"}`, wantDuration: 45},
		{name: "h m form", body: `{"duration":"1h 30m"}`, wantDuration: 90},
		{name: "hours and minutes", body: "hours=2&minutes=15", wantDuration: 135},
		{name: "minutes only field", body: "minutes=40", wantDuration: 40},
		{name: "minutes overflow", body: "hours=1&minutes=75", wantField: "duration"},
		{name: "garbage duration", body: `{"duration":"later"}`, wantField: "duration"},
		{name: "progress supplied", body: `{"progress":60}`, wantProgress: intPtr(60)},
		{name: "progress garbage", body: `{"progress":"most"}`, wantField: "progress"},
		{name: "completed false", body: `{"completed":false}`, wantCompleted: boolPtr(false)},
		{name: "completed checkbox", body: "completed=on", wantCompleted: boolPtr(true)},
		{name: "null completed ignored", body: `{"completed":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := ParseEntryInput(newParser(t, "", tt.body))
			if tt.wantField != "" {
				var verr *core.ValidationError
				if !errors.As(err, &verr) || verr.Fields[0].Field != tt.wantField {
					t.Fatalf("error = %v, want field %q", err, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if in.Duration != tt.wantDuration {
				t.Errorf("Duration = %d, want %d", in.Duration, tt.wantDuration)
			}
			if (in.Progress == nil) != (tt.wantProgress == nil) || (in.Progress != nil && *in.Progress != *tt.wantProgress) {
				t.Errorf("Progress = %v, want %v", in.Progress, tt.wantProgress)
			}
			if (in.Completed == nil) != (tt.wantCompleted == nil) || (in.Completed != nil && *in.Completed != *tt.wantCompleted) {
				t.Errorf("Completed = %v, want %v", in.Completed, tt.wantCompleted)
			}
		})
	}
}

func TestParseProgressInput(t *testing.T) {
	tests := []struct {
		body          string
		wantProgress  int
		wantCompleted bool
		wantErr       bool
	}{
		{`{"progress":40}`, 40, false, false},
		{`{"progress":100}`, 100, true, false},
		{`{"progress":100,"completed":false}`, 100, false, false},
		{"progress=30&completed=true", 30, true, false},
		{`{}`, 0, false, true},
		{`{"progress":"half"}`, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			progress, completed, err := ParseProgressInput(newParser(t, "", tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if progress != tt.wantProgress || completed != tt.wantCompleted {
				t.Errorf("got (%d, %v), want (%d, %v)", progress, completed, tt.wantProgress, tt.wantCompleted)
			}
		})
	}
}

func TestParseDateRange(t *testing.T) {
	start, end, err := ParseDateRange(url.Values{"start": {"2024-01-01"}, "end": {"2024-01-31"}})
	if err != nil || start != "2024-01-01" || end != "2024-01-31" {
		t.Fatalf("got (%q, %q, %v)", start, end, err)
	}
	if _, _, err := ParseDateRange(url.Values{}); err != nil {
		t.Fatalf("empty range: %v", err)
	}
	_, _, err = ParseDateRange(url.Values{"start": {"Jan 1"}, "end": {"2024-13-01"}})
	var verr *core.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 2 {
		t.Fatalf("error = %v", err)
	}
}

func TestParseWindowDays(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 7, false},
		{"30", 30, false},
		{"366", 366, false},
		{"0", 0, true},
		{"367", 0, true},
		{"week", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseWindowDays(url.Values{"days": {tt.raw}}, 7)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseWindowDays(%q) = %d, %v", tt.raw, got, err)
		}
	}
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
