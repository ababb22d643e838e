package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/school_management/internal/domain"
	"github.com/locvowork/school_management/internal/logger"
	"github.com/locvowork/school_management/internal/view"
)

// TeacherPageHandler serves the HTML pages. It converts service outcomes into
// views or redirects and owns no data logic.
type TeacherPageHandler struct {
	svc TeacherService
}

func NewTeacherPageHandler(svc TeacherService) *TeacherPageHandler {
	return &TeacherPageHandler{svc: svc}
}

func (h *TeacherPageHandler) Register(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/teacherpage/list")
	})

	g := e.Group("/teacherpage")
	g.GET("/list", h.List)
	g.GET("/show/:id", h.Show)
	g.GET("/new", h.New)
	g.POST("/create", h.Create)
	g.GET("/edit/:id", h.Edit)
	g.POST("/update/:id", h.Update)
	g.POST("/delete/:id", h.Delete)
	g.GET("/hired", h.Hired)
}

func (h *TeacherPageHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	teachers, err := h.svc.List(ctx, domain.TeacherFilter{})
	if err != nil {
		return h.renderError(c, err)
	}
	return c.Render(http.StatusOK, "list", view.ListPage{
		Title:    "Teachers",
		Teachers: teachers,
		Total:    int64(len(teachers)),
	})
}

func (h *TeacherPageHandler) Show(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return h.renderNotFound(c, c.Param("id"))
	}

	res := h.svc.GetWithCourses(c.Request().Context(), id)
	switch {
	case res.IsFound():
		t := res.Value
		return c.Render(http.StatusOK, "show", view.ShowPage{Title: t.FirstName + " " + t.LastName, Teacher: t})
	case res.IsNotFound():
		return h.renderNotFound(c, c.Param("id"))
	default:
		return h.renderError(c, res.Err)
	}
}

func (h *TeacherPageHandler) New(c echo.Context) error {
	return c.Render(http.StatusOK, "form", view.FormPage{Title: "New teacher", Action: "/teacherpage/create"})
}

func (h *TeacherPageHandler) Create(c echo.Context) error {
	page := view.FormPage{Title: "New teacher", Action: "/teacherpage/create"}
	if err := c.Bind(&page.Form); err != nil {
		return h.renderError(c, err)
	}

	t, fields := teacherFromForm(page.Form)
	if len(fields) > 0 {
		page.Errors = fields
		return c.Render(http.StatusBadRequest, "form", page)
	}

	if err := h.svc.Create(c.Request().Context(), &t); err != nil {
		return h.renderFormError(c, page, err)
	}
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/teacherpage/show/%d", t.ID))
}

func (h *TeacherPageHandler) Edit(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return h.renderNotFound(c, c.Param("id"))
	}

	res := h.svc.Get(c.Request().Context(), id)
	switch {
	case res.IsFound():
		return c.Render(http.StatusOK, "form", view.FormPage{
			Title:  "Edit teacher",
			Action: fmt.Sprintf("/teacherpage/update/%d", id),
			Form:   view.FormFromTeacher(res.Value),
		})
	case res.IsNotFound():
		return h.renderNotFound(c, c.Param("id"))
	default:
		return h.renderError(c, res.Err)
	}
}

func (h *TeacherPageHandler) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return h.renderNotFound(c, c.Param("id"))
	}

	page := view.FormPage{Title: "Edit teacher", Action: fmt.Sprintf("/teacherpage/update/%d", id)}
	if err := c.Bind(&page.Form); err != nil {
		return h.renderError(c, err)
	}
	// the hidden id field is optional; the path is authoritative when it is absent
	if strings.TrimSpace(page.Form.ID) == "" {
		page.Form.ID = strconv.Itoa(id)
	}

	t, fields := teacherFromForm(page.Form)
	if len(fields) > 0 {
		page.Errors = fields
		return c.Render(http.StatusBadRequest, "form", page)
	}

	if err := h.svc.Update(c.Request().Context(), id, &t); err != nil {
		return h.renderFormError(c, page, err)
	}
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/teacherpage/show/%d", id))
}

func (h *TeacherPageHandler) Delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return h.renderNotFound(c, c.Param("id"))
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return h.renderNotFound(c, c.Param("id"))
		}
		return h.renderError(c, err)
	}
	return c.Redirect(http.StatusSeeOther, "/teacherpage/list")
}

// Hired shows the range form, and the matching teachers once both bounds are given.
func (h *TeacherPageHandler) Hired(c echo.Context) error {
	page := view.HiredPage{Title: "Teachers hired between", Min: c.QueryParam("min"), Max: c.QueryParam("max")}
	if page.Min == "" && page.Max == "" {
		return c.Render(http.StatusOK, "hired", page)
	}

	from, to, err := parseDateRange(page.Min, page.Max)
	if err == nil {
		page.Teachers, err = h.svc.ListByHireDateRange(c.Request().Context(), from, to)
	}
	if err != nil {
		if fields, ok := validationFields(err); ok {
			page.Errors = fields
			return c.Render(http.StatusBadRequest, "hired", page)
		}
		return h.renderError(c, err)
	}

	page.Searched = true
	return c.Render(http.StatusOK, "hired", page)
}

// ==================== outcome rendering ====================

func (h *TeacherPageHandler) renderNotFound(c echo.Context, id string) error {
	return c.Render(http.StatusNotFound, "notfound", view.MessagePage{
		Title:   "Teacher not found",
		Message: fmt.Sprintf("No teacher with id %s exists.", id),
	})
}

func (h *TeacherPageHandler) renderError(c echo.Context, err error) error {
	logger.ErrorLogErr(c.Request().Context(), err, "page request failed")
	return c.Render(http.StatusInternalServerError, "error", view.MessagePage{Title: "Error"})
}

// renderFormError re-renders the form for errors the user can fix and falls
// back to the not-found or error page otherwise.
func (h *TeacherPageHandler) renderFormError(c echo.Context, page view.FormPage, err error) error {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		page.Errors, _ = validationFields(err)
	case domain.KindDuplicate:
		page.Errors = map[string]string{"EmployeeNumber": "Employee number is already in use."}
	case domain.KindMismatch:
		page.Errors = map[string]string{"_": "The submitted teacher does not match this page."}
	case domain.KindNotFound:
		return h.renderNotFound(c, page.Form.ID)
	default:
		return h.renderError(c, err)
	}
	return c.Render(http.StatusBadRequest, "form", page)
}

func validationFields(err error) (map[string]string, bool) {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return nil, false
	}
	return verr.Fields, true
}

// teacherFromForm converts the raw form. Values that cannot be parsed are
// reported per field.
func teacherFromForm(f view.TeacherForm) (domain.Teacher, map[string]string) {
	fields := map[string]string{}
	t := domain.Teacher{
		FirstName:      f.FirstName,
		LastName:       f.LastName,
		EmployeeNumber: f.EmployeeNumber,
	}

	if s := strings.TrimSpace(f.ID); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			fields["_"] = "Invalid teacher id."
		}
		t.ID = id
	}
	if s := strings.TrimSpace(f.HireDate); s != "" {
		d, err := domain.ParseDate(s)
		if err != nil {
			fields["HireDate"] = "Hire date must be a date (yyyy-MM-dd)."
		} else {
			t.HireDate = &d
		}
	}
	if s := strings.TrimSpace(f.Salary); s != "" {
		salary, err := strconv.ParseFloat(s, 64)
		if err != nil {
			fields["Salary"] = "Salary must be a number."
		} else {
			t.Salary = &salary
		}
	}
	if s := strings.TrimSpace(f.TeacherWorkPhone); s != "" {
		t.TeacherWorkPhone = &s
	}

	// report every problem at once when the form is already rejected
	if len(fields) > 0 {
		if more, ok := validationFields(t.Validate()); ok {
			for k, v := range more {
				if _, set := fields[k]; !set {
					fields[k] = v
				}
			}
		}
	}
	return t, fields
}
