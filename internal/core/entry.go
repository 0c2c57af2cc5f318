package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultCategory is stored in place of a missing or blank category.
	DefaultCategory = "Uncategorized"

	// DateLayout is the calendar date format used for grouping and range queries.
	DateLayout = "2006-01-02"

	MaxProgress       = 100
	MinTitleLength    = 2
	MaxTitleLength    = 200
	MaxDescriptionLen = 2000
	MaxCategoryLength = 64
)

type (
	// TimeEntry is one logged work record in its canonical shape.
	TimeEntry struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Date        string    `json:"date"`
		Duration    int       `json:"duration"` // minutes
		Category    string    `json:"category"`
		Progress    int       `json:"progress"` // 0-100
		Completed   bool      `json:"completed"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// EntryInput carries the caller-supplied fields for create and update.
	// Progress and Completed are optional: nil means "not supplied".
	EntryInput struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Date        string `json:"date"`
		Duration    int    `json:"duration"`
		Category    string `json:"category"`
		Progress    *int   `json:"progress,omitempty"`
		Completed   *bool  `json:"completed,omitempty"`
	}

	// TaskProgress is the projected completion state of a single entry.
	TaskProgress struct {
		Progress  int  `json:"progress"`
		Completed bool `json:"completed"`
	}
)

var (
	ErrNotFound  = errors.New("time entry not found")
	ErrInvalidID = errors.New("invalid time entry id")
)

// Categories is the suggested category list offered to entry forms.
var Categories = []string{
	"Development",
	"Design",
	"Research",
	"Meeting",
	"Planning",
	"Documentation",
	"Learning",
	"Other",
	DefaultCategory,
}

// FieldError describes a single violated input constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when input is rejected before reaching the store.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid time entry: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Validate checks the input shape. All violations are reported together.
func (in EntryInput) Validate() error {
	verr := &ValidationError{}

	title := strings.TrimSpace(in.Title)
	switch {
	case len([]rune(title)) < MinTitleLength:
		verr.add("title", "must be at least %d characters", MinTitleLength)
	case len(title) > MaxTitleLength:
		verr.add("title", "must be at most %d characters", MaxTitleLength)
	}
	if len(in.Description) > MaxDescriptionLen {
		verr.add("description", "must be at most %d characters", MaxDescriptionLen)
	}
	if err := ValidateDate(in.Date); err != nil {
		verr.add("date", "%v", err)
	}
	if in.Duration < 0 {
		verr.add("duration", "must not be negative")
	}
	if len(in.Category) > MaxCategoryLength {
		verr.add("category", "must be at most %d characters", MaxCategoryLength)
	}
	if in.Progress != nil {
		if err := ValidateProgress(*in.Progress); err != nil {
			verr.add("progress", "%v", err)
		}
	}

	return verr.orNil()
}

// ValidateDate reports whether s is a YYYY-MM-DD calendar date.
func ValidateDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("is required")
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("must be a YYYY-MM-DD date, got %q", s)
	}
	return nil
}

// ValidateProgress reports whether p lies in [0, 100].
func ValidateProgress(p int) error {
	if p < 0 || p > MaxProgress {
		return fmt.Errorf("must be between 0 and %d, got %d", MaxProgress, p)
	}
	return nil
}

// ProgressValidationError wraps a progress range violation for the targeted update path.
func ProgressValidationError(p int) error {
	verr := &ValidationError{}
	if err := ValidateProgress(p); err != nil {
		verr.add("progress", "%v", err)
	}
	return verr.orNil()
}

// FormatDate renders t as a calendar date in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
