package domain

import (
	"fmt"
	"strings"
	"time"
)

// Teacher represents the teachers table. Optional columns are pointers so a
// NULL in storage stays nil instead of collapsing to a zero value.
type Teacher struct {
	ID               int      `json:"TeacherId"`
	FirstName        string   `json:"TeacherFName" validate:"required"`
	LastName         string   `json:"TeacherLName" validate:"required"`
	EmployeeNumber   string   `json:"EmployeeNumber" validate:"required,max=10,employeenumber"`
	HireDate         *Date    `json:"HireDate" validate:"omitempty,notfuture"`
	Salary           *float64 `json:"Salary" validate:"omitempty,gte=0"`
	TeacherWorkPhone *string  `json:"TeacherWorkPhone" validate:"omitempty,phone"`
	CoursesTaught    []Course `json:"CoursesTaught,omitempty"`
}

// Course represents the courses table. It is read only here.
type Course struct {
	ID   int    `json:"CourseId"`
	Code string `json:"CourseCode"`
	Name string `json:"CourseName"`
}

// TeacherFilter defines criteria for listing teachers. Zero values list everything.
type TeacherFilter struct {
	Limit  int
	Offset int
}

// ==================== DATES ====================

const (
	// DateLayout is the layout used by query parameters and form inputs.
	DateLayout = "2006-01-02"
	// DateTimeLayout is the layout written to JSON.
	DateTimeLayout = "2006-01-02T15:04:05"
)

var dateLayouts = []string{DateLayout, DateTimeLayout, time.RFC3339, time.RFC3339Nano, "2006-01-02 15:04:05"}

// Date is a calendar date without a time of day, always stored at UTC midnight.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf builds a Date from its parts.
func DateOf(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts yyyy-MM-dd as well as the date-time layouts the JSON API
// has historically emitted.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q, expected yyyy-MM-dd", s)
}

// Today returns the current calendar date in the server's local zone.
func Today() Date {
	return NewDate(time.Now())
}

// After reports whether d is a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateTimeLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
