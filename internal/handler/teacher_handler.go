package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/school_management/internal/domain"
	"github.com/locvowork/school_management/internal/service/serviceutils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TeacherService is what the API and page handlers need from the service layer.
type TeacherService interface {
	List(ctx context.Context, filter domain.TeacherFilter) ([]domain.Teacher, error)
	Get(ctx context.Context, id int) domain.Result[domain.Teacher]
	GetWithCourses(ctx context.Context, id int) domain.Result[domain.Teacher]
	ListByHireDateRange(ctx context.Context, from, to domain.Date) ([]domain.Teacher, error)
	ListCourses(ctx context.Context, teacherID int) ([]domain.Course, error)
	Count(ctx context.Context) (int64, error)
	Search(ctx context.Context, q string, limit int) ([]domain.Teacher, error)
	Create(ctx context.Context, t *domain.Teacher) error
	Update(ctx context.Context, id int, t *domain.Teacher) error
	Delete(ctx context.Context, id int) error
	ExportXLSX(ctx context.Context) ([]byte, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

type TeacherHandler struct {
	svc TeacherService
}

func NewTeacherHandler(svc TeacherService) *TeacherHandler {
	return &TeacherHandler{svc: svc}
}

// Register mounts the JSON API under /teacher.
func (h *TeacherHandler) Register(e *echo.Echo) {
	g := e.Group("/teacher")
	g.GET("", h.ListHandler)
	g.POST("", h.CreateHandler)
	// static segments are matched before :id
	g.GET("/hired", h.HiredHandler)
	g.GET("/search", h.SearchHandler)
	g.GET("/export", h.ExportHandler)
	g.GET("/:id", h.GetHandler)
	g.PUT("/:id", h.UpdateHandler)
	g.DELETE("/:id", h.DeleteHandler)
	g.GET("/:id/courses", h.CoursesHandler)
}

func (h *TeacherHandler) ListHandler(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid limit", err)
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid offset", err)
	}

	teachers, err := h.svc.List(c.Request().Context(), domain.TeacherFilter{Limit: limit, Offset: offset})
	if err != nil {
		return serviceutils.ResponseKindError(c, "Failed to list teachers", err)
	}
	return c.JSON(http.StatusOK, teachers)
}

func (h *TeacherHandler) GetHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid teacher ID", err)
	}

	res := h.svc.Get(c.Request().Context(), id)
	switch {
	case res.IsFound():
		return c.JSON(http.StatusOK, res.Value)
	case res.IsNotFound():
		return serviceutils.ResponseError(c, http.StatusNotFound, "Teacher not found", domain.ErrNotFound)
	default:
		return serviceutils.ResponseKindError(c, "Failed to get teacher", res.Err)
	}
}

func (h *TeacherHandler) CreateHandler(c echo.Context) error {
	var req domain.Teacher
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid teacher", err)
	}

	if err := h.svc.Create(c.Request().Context(), &req); err != nil {
		return serviceutils.ResponseKindError(c, "Failed to create teacher", err)
	}

	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/teacher/%d", req.ID))
	return c.JSON(http.StatusCreated, req)
}

func (h *TeacherHandler) UpdateHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid teacher ID", err)
	}

	var req domain.Teacher
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	if err := h.svc.Update(c.Request().Context(), id, &req); err != nil {
		return serviceutils.ResponseKindError(c, "Failed to update teacher", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TeacherHandler) DeleteHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid teacher ID", err)
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return serviceutils.ResponseKindError(c, "Failed to delete teacher", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HiredHandler lists teachers hired between the min and max dates, inclusive.
func (h *TeacherHandler) HiredHandler(c echo.Context) error {
	from, to, err := parseDateRange(c.QueryParam("min"), c.QueryParam("max"))
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid hire date range", err)
	}

	teachers, err := h.svc.ListByHireDateRange(c.Request().Context(), from, to)
	if err != nil {
		return serviceutils.ResponseKindError(c, "Failed to list teachers by hire date", err)
	}
	return c.JSON(http.StatusOK, teachers)
}

func (h *TeacherHandler) CoursesHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid teacher ID", err)
	}

	courses, err := h.svc.ListCourses(c.Request().Context(), id)
	if err != nil {
		return serviceutils.ResponseKindError(c, "Failed to list courses", err)
	}
	return c.JSON(http.StatusOK, courses)
}

func (h *TeacherHandler) SearchHandler(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid limit", err)
	}

	teachers, err := h.svc.Search(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return serviceutils.ResponseKindError(c, "Failed to search teachers", err)
	}
	return c.JSON(http.StatusOK, teachers)
}

// ExportHandler downloads every teacher as xlsx, or as CSV with ?format=csv.
func (h *TeacherHandler) ExportHandler(c echo.Context) error {
	ctx := c.Request().Context()

	if c.QueryParam("format") == "csv" {
		var buf bytes.Buffer
		if err := h.svc.ExportCSV(ctx, &buf); err != nil {
			return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to generate CSV file", err)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="teachers.csv"`)
		return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	}

	raw, err := h.svc.ExportXLSX(ctx)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to generate Excel file", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="teachers.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, raw)
}

// ==================== helpers ====================

func pathID(c echo.Context) (int, error) {
	return strconv.Atoi(c.Param("id"))
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// parseDateRange parses both yyyy-MM-dd bounds. Field errors are keyed by the
// query parameter name.
func parseDateRange(minRaw, maxRaw string) (domain.Date, domain.Date, error) {
	fields := map[string]string{}
	parse := func(key, raw string) domain.Date {
		if raw == "" {
			fields[key] = "Date is required (yyyy-MM-dd)."
			return domain.Date{}
		}
		d, err := domain.ParseDate(raw)
		if err != nil {
			fields[key] = "Invalid date, expected yyyy-MM-dd."
		}
		return d
	}

	from := parse("min", minRaw)
	to := parse("max", maxRaw)
	if len(fields) > 0 {
		return domain.Date{}, domain.Date{}, domain.NewValidationError(fields)
	}
	return from, to, nil
}
