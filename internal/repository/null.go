package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/locvowork/school_management/internal/domain"
)

// Optional columns on teachers and how NULL maps to the entity:
//
//	hiredate          NULL <-> HireDate == nil          (nullDate)
//	salary            NULL <-> Salary == nil            (sql.NullFloat64)
//	teacherworkphone  NULL <-> TeacherWorkPhone == nil  (sql.NullString)

// nullDate scans a DATE column. Drivers hand dates back as time.Time, string
// or []byte depending on the store, so all three are accepted.
type nullDate struct {
	Date  domain.Date
	Valid bool
}

func (n *nullDate) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		n.Date, n.Valid = domain.Date{}, false
		return nil
	case time.Time:
		n.Date, n.Valid = domain.NewDate(v), true
		return nil
	case string:
		return n.parse(v)
	case []byte:
		return n.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into a date", src)
	}
}

func (n *nullDate) parse(s string) error {
	d, err := domain.ParseDate(s)
	if err != nil {
		return err
	}
	n.Date, n.Valid = d, true
	return nil
}

func nullDateToPtr(n nullDate) *domain.Date {
	if n.Valid {
		d := n.Date
		return &d
	}
	return nil
}

func nullFloat64ToPtr(n sql.NullFloat64) *float64 {
	if n.Valid {
		return &n.Float64
	}
	return nil
}

func nullStringToPtr(n sql.NullString) *string {
	if n.Valid {
		return &n.String
	}
	return nil
}

// dateArg renders a date argument as yyyy-MM-dd, which both stores compare
// correctly against their DATE columns.
func dateArg(d domain.Date) string {
	return d.Format(domain.DateLayout)
}

func dateArgOrNil(d *domain.Date) interface{} {
	if d == nil {
		return nil
	}
	return dateArg(*d)
}

func float64OrNil(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func stringOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
