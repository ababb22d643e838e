package view

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/school_management/internal/domain"
)

func TestRenderer(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	salary := 42000.0
	phone := "555-0100"
	hired := domain.DateOf(2018, time.March, 4)
	ann := domain.Teacher{
		ID: 3, FirstName: "Ann", LastName: "O'Neil", EmployeeNumber: "T3",
		HireDate: &hired, Salary: &salary, TeacherWorkPhone: &phone,
		CoursesTaught: []domain.Course{{ID: 1, Code: "MATH101", Name: "Algebra"}},
	}

	t.Run("list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, "list", ListPage{Title: "Teachers", Teachers: []domain.Teacher{ann}, Total: 1}, nil))
		out := buf.String()
		assert.Contains(t, out, "<title>Teachers - School Management</title>")
		assert.Contains(t, out, `href="/teacherpage/show/3"`)
		assert.Contains(t, out, "O&#39;Neil")
		assert.Contains(t, out, "2018-03-04")
		assert.Contains(t, out, "42000.00")
	})

	t.Run("show lists courses", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, "show", ShowPage{Title: "Ann", Teacher: ann}, nil))
		assert.Contains(t, buf.String(), "MATH101 Algebra")
	})

	t.Run("form keeps input and shows field errors", func(t *testing.T) {
		var buf bytes.Buffer
		page := FormPage{
			Title:  "New teacher",
			Action: "/teacherpage/create",
			Form:   TeacherForm{FirstName: "<b>x</b>", EmployeeNumber: "X1"},
			Errors: map[string]string{"EmployeeNumber": "Employee number must start with 'T' followed by digits (e.g., T123)."},
		}
		require.NoError(t, r.Render(&buf, "form", page, nil))
		out := buf.String()
		assert.Contains(t, out, `value="X1"`)
		assert.Contains(t, out, "Employee number must start with")
		assert.NotContains(t, out, "<b>x</b>")
		assert.NotContains(t, out, `name="TeacherId"`)
	})

	t.Run("form without errors", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, "form", FormPage{Title: "Edit", Action: "/teacherpage/update/3", Form: FormFromTeacher(ann)}, nil))
		assert.Contains(t, buf.String(), `name="TeacherId" value="3"`)
		assert.NotContains(t, buf.String(), "field-error\">")
	})

	t.Run("hired", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, "hired", HiredPage{Title: "Hired", Searched: true}, nil))
		assert.Contains(t, buf.String(), "No teachers hired in that range.")
	})

	t.Run("not found and error pages", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, "notfound", MessagePage{Title: "Not found", Message: "Teacher 9 does not exist."}, nil))
		assert.Contains(t, buf.String(), "Teacher 9 does not exist.")

		buf.Reset()
		require.NoError(t, r.Render(&buf, "error", MessagePage{Title: "Error"}, nil))
		assert.Contains(t, buf.String(), "Something went wrong")
	})

	t.Run("unknown template", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Error(t, r.Render(&buf, "missing", nil, nil))
	})
}

func TestFormFromTeacher(t *testing.T) {
	salary := 1234.5
	hired := domain.DateOf(2020, time.January, 2)
	f := FormFromTeacher(domain.Teacher{ID: 7, FirstName: "A", LastName: "B", EmployeeNumber: "T7", HireDate: &hired, Salary: &salary})
	assert.Equal(t, TeacherForm{ID: "7", FirstName: "A", LastName: "B", EmployeeNumber: "T7", HireDate: "2020-01-02", Salary: "1234.5"}, f)
}
