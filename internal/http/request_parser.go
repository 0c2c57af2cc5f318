// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// entry bodies in JSON or form encoding, date ranges and dashboard windows.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"timetracker/internal/core"
)

const (
	maxBodyBytes  = 64 << 10
	maxWindowDays = 366
)

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Has reports whether key was supplied, even with an empty value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		v, ok := p.jsonData[key]
		return ok && v != nil
	}
	if p.formData != nil {
		return p.formData.Has(key)
	}
	return false
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseEntryInput builds an EntryInput from the parsed body. Duration is
// taken from "duration" (minutes or "1h 30m") or from "hours"/"minutes".
// Malformed numbers come back as a *core.ValidationError.
func ParseEntryInput(p *RequestBodyParser) (core.EntryInput, error) {
	in := core.EntryInput{
		Title:       p.Get("title"),
		Description: p.Get("description"),
		Date:        p.Get("date"),
		Category:    p.Get("category"),
	}
	verr := &core.ValidationError{}

	switch {
	case p.Get("duration") != "":
		d, err := core.ParseDuration(p.Get("duration"))
		if err != nil {
			verr.Fields = append(verr.Fields, core.FieldError{Field: "duration", Message: err.Error()})
		}
		in.Duration = d
	case p.Get("hours") != "" || p.Get("minutes") != "":
		h, herr := atoiOrZero(p.Get("hours"))
		m, merr := atoiOrZero(p.Get("minutes"))
		if herr != nil || merr != nil {
			verr.Fields = append(verr.Fields, core.FieldError{Field: "duration", Message: "hours and minutes must be whole numbers"})
			break
		}
		d, err := core.DurationFromParts(h, m)
		if err != nil {
			verr.Fields = append(verr.Fields, core.FieldError{Field: "duration", Message: err.Error()})
		}
		in.Duration = d
	}

	if p.Has("progress") && p.Get("progress") != "" {
		v, err := strconv.Atoi(p.Get("progress"))
		if err != nil {
			verr.Fields = append(verr.Fields, core.FieldError{Field: "progress", Message: "must be a whole number"})
		} else {
			in.Progress = &v
		}
	}
	if p.Has("completed") {
		v := parseBool(p.Get("completed"))
		in.Completed = &v
	}

	if len(verr.Fields) > 0 {
		return in, verr
	}
	return in, nil
}

// ParseProgressInput reads the progress/completed pair of a progress patch.
// A missing completed flag is derived from progress reaching 100.
func ParseProgressInput(p *RequestBodyParser) (int, bool, error) {
	raw := p.Get("progress")
	progress, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, &core.ValidationError{Fields: []core.FieldError{
			{Field: "progress", Message: fmt.Sprintf("must be a whole number, got %q", raw)},
		}}
	}
	completed := progress >= core.MaxProgress
	if p.Has("completed") {
		completed = parseBool(p.Get("completed"))
	}
	return progress, completed, nil
}

// ParseDateRange reads the optional start/end query bounds.
func ParseDateRange(query url.Values) (start, end string, err error) {
	start = strings.TrimSpace(query.Get("start"))
	end = strings.TrimSpace(query.Get("end"))
	verr := &core.ValidationError{}
	if start != "" {
		if err := core.ValidateDate(start); err != nil {
			verr.Fields = append(verr.Fields, core.FieldError{Field: "start", Message: err.Error()})
		}
	}
	if end != "" {
		if err := core.ValidateDate(end); err != nil {
			verr.Fields = append(verr.Fields, core.FieldError{Field: "end", Message: err.Error()})
		}
	}
	if len(verr.Fields) > 0 {
		return "", "", verr
	}
	return start, end, nil
}

// ParseWindowDays reads ?days=, falling back to def when absent.
func ParseWindowDays(query url.Values, def int) (int, error) {
	v := strings.TrimSpace(query.Get("days"))
	if v == "" {
		return def, nil
	}
	days, err := strconv.Atoi(v)
	if err != nil || days < 1 || days > maxWindowDays {
		return 0, &core.ValidationError{Fields: []core.FieldError{
			{Field: "days", Message: fmt.Sprintf("must be a whole number between 1 and %d", maxWindowDays)},
		}}
	}
	return days, nil
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
