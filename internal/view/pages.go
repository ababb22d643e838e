package view

import (
	"strconv"

	"github.com/locvowork/school_management/internal/domain"
)

// ListPage backs list.html.
type ListPage struct {
	Title    string
	Teachers []domain.Teacher
	Total    int64
}

// ShowPage backs show.html. Teacher.CoursesTaught is rendered as well.
type ShowPage struct {
	Title   string
	Teacher domain.Teacher
}

// FormPage backs form.html for both create and edit.
type FormPage struct {
	Title  string
	Action string
	Form   TeacherForm
	Errors map[string]string
}

// HiredPage backs hired.html.
type HiredPage struct {
	Title    string
	Min      string
	Max      string
	Searched bool
	Teachers []domain.Teacher
	Errors   map[string]string
}

// MessagePage backs notfound.html and error.html.
type MessagePage struct {
	Title   string
	Message string
}

// TeacherForm holds the raw form input so a rejected submission can be
// shown back exactly as typed.
type TeacherForm struct {
	ID               string `form:"TeacherId"`
	FirstName        string `form:"TeacherFName"`
	LastName         string `form:"TeacherLName"`
	EmployeeNumber   string `form:"EmployeeNumber"`
	HireDate         string `form:"HireDate"`
	Salary           string `form:"Salary"`
	TeacherWorkPhone string `form:"TeacherWorkPhone"`
}

// FormFromTeacher fills a form with a stored teacher.
func FormFromTeacher(t domain.Teacher) TeacherForm {
	f := TeacherForm{
		ID:             strconv.Itoa(t.ID),
		FirstName:      t.FirstName,
		LastName:       t.LastName,
		EmployeeNumber: t.EmployeeNumber,
	}
	if t.HireDate != nil {
		f.HireDate = t.HireDate.String()
	}
	if t.Salary != nil {
		f.Salary = strconv.FormatFloat(*t.Salary, 'f', -1, 64)
	}
	if t.TeacherWorkPhone != nil {
		f.TeacherWorkPhone = *t.TeacherWorkPhone
	}
	return f
}
