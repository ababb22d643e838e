package domain

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	employeeNumberPattern = regexp.MustCompile(`^T\d+$`)
	phonePattern          = regexp.MustCompile(`^\+?[0-9(][0-9 ().\-]*(\s?(x|ext\.?)\s?[0-9]{1,6})?$`)

	validateOnce sync.Once
	validate     *validator.Validate
)

// fieldMessages holds the user-facing message per field and failed tag.
var fieldMessages = map[string]map[string]string{
	"TeacherFName": {"required": "First name is required."},
	"TeacherLName": {"required": "Last name is required."},
	"EmployeeNumber": {
		"required":       "Employee number is required.",
		"max":            "Employee number must be at most 10 characters.",
		"employeenumber": "Employee number must start with 'T' followed by digits (e.g., T123).",
	},
	"HireDate":         {"notfuture": "Hire date cannot be in the future."},
	"Salary":           {"gte": "Salary must be non-negative."},
	"TeacherWorkPhone": {"phone": "Invalid phone number."},
}

// Validator returns the shared validator with the teacher rules registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		// Date is validated as the time.Time it wraps.
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(Date); ok {
				return d.Time
			}
			return nil
		}, Date{})
		_ = v.RegisterValidation("employeenumber", func(fl validator.FieldLevel) bool {
			return employeeNumberPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
			t, ok := fl.Field().Interface().(time.Time)
			if !ok {
				return false
			}
			return !NewDate(t).After(Today())
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return IsPhoneNumber(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// IsPhoneNumber reports whether s looks like a phone number: digits with the
// usual separators, 7 to 15 digits, and an optional extension.
func IsPhoneNumber(s string) bool {
	s = strings.TrimSpace(s)
	if !phonePattern.MatchString(s) {
		return false
	}
	main := strings.ToLower(s)
	if i := strings.IndexAny(main, "xe"); i >= 0 {
		main = main[:i]
	}
	digits := 0
	for _, r := range main {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

// Validate checks every declared constraint on the teacher and returns a
// *ValidationError listing each failing field.
func (t *Teacher) Validate() error {
	t.Normalize()
	err := Validator().Struct(t)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = messageFor(fe.Field(), fe.Tag())
	}
	return NewValidationError(fields)
}

// Normalize trims text fields and turns a blank phone into an absent one.
func (t *Teacher) Normalize() {
	t.FirstName = strings.TrimSpace(t.FirstName)
	t.LastName = strings.TrimSpace(t.LastName)
	t.EmployeeNumber = strings.TrimSpace(t.EmployeeNumber)
	if t.TeacherWorkPhone != nil {
		phone := strings.TrimSpace(*t.TeacherWorkPhone)
		if phone == "" {
			t.TeacherWorkPhone = nil
		} else {
			t.TeacherWorkPhone = &phone
		}
	}
	if t.HireDate != nil {
		d := NewDate(t.HireDate.Time)
		t.HireDate = &d
	}
}

func messageFor(field, tag string) string {
	if msgs, ok := fieldMessages[field]; ok {
		if msg, ok := msgs[tag]; ok {
			return msg
		}
	}
	return "Invalid value for " + field + "."
}
