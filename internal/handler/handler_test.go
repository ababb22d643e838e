package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/school_management/internal/database"
	"github.com/locvowork/school_management/internal/domain"
	"github.com/locvowork/school_management/internal/repository"
	"github.com/locvowork/school_management/internal/service"
	"github.com/locvowork/school_management/internal/service/serviceutils"
	"github.com/locvowork/school_management/internal/view"
)

// newTestServer wires both handler sets to a service backed by a temporary
// SQLite database.
func newTestServer(t *testing.T) (*echo.Echo, *sql.DB) {
	t.Helper()
	ctx := context.Background()

	cfg := database.Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "school.db"), QueryTimeout: 5 * time.Second}
	db, err := database.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db, cfg.Dialect()))

	svc := service.NewTeacherService(repository.NewTeacherRepository(database.NewProvider(db, cfg)), nil, "")

	renderer, err := view.NewRenderer()
	require.NoError(t, err)

	e := echo.New()
	e.Validator = NewRequestValidator()
	e.Renderer = renderer
	NewTeacherHandler(svc).Register(e)
	NewTeacherPageHandler(svc).Register(e)
	return e, db
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func postForm(e *echo.Echo, target string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) serviceutils.ErrorResponse {
	t.Helper()
	var body serviceutils.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func createTeacher(t *testing.T, e *echo.Echo, body string) domain.Teacher {
	t.Helper()
	rec := do(e, http.MethodPost, "/teacher", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.Teacher
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created
}

func TestTeacherAPI_CRUD(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(e, http.MethodPost, "/teacher", `{"TeacherFName":"Ann","TeacherLName":"Lee","EmployeeNumber":"T100","HireDate":"2015-08-24T00:00:00","Salary":48000.5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := int(created["TeacherId"].(float64))
	assert.Positive(t, id)
	assert.Equal(t, "/teacher/"+strconv.Itoa(id), rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, "2015-08-24T00:00:00", created["HireDate"])
	assert.Nil(t, created["TeacherWorkPhone"])

	t.Run("get", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/teacher/"+strconv.Itoa(id), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"EmployeeNumber":"T100"`)
		assert.Contains(t, rec.Body.String(), `"Salary":48000.5`)
	})

	t.Run("list", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/teacher", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var list []domain.Teacher
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Len(t, list, 1)
	})

	t.Run("update", func(t *testing.T) {
		rec := do(e, http.MethodPut, "/teacher/"+strconv.Itoa(id), `{"TeacherId":`+strconv.Itoa(id)+`,"TeacherFName":"Ann","TeacherLName":"Park","EmployeeNumber":"T100","TeacherWorkPhone":"555-010-2000"}`)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		assert.Empty(t, rec.Body.String())

		got := do(e, http.MethodGet, "/teacher/"+strconv.Itoa(id), "")
		assert.Contains(t, got.Body.String(), `"TeacherLName":"Park"`)
		assert.Contains(t, got.Body.String(), `"HireDate":null`)
	})

	t.Run("delete", func(t *testing.T) {
		rec := do(e, http.MethodDelete, "/teacher/"+strconv.Itoa(id), "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/teacher/"+strconv.Itoa(id), "").Code)
		assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/teacher/"+strconv.Itoa(id), "").Code)
	})
}

func TestTeacherAPI_Errors(t *testing.T) {
	e, _ := newTestServer(t)
	existing := createTeacher(t, e, `{"TeacherFName":"Ann","TeacherLName":"Lee","EmployeeNumber":"T1"}`)

	testCases := map[string]struct {
		method     string
		target     string
		body       string
		wantStatus int
		wantField  string
	}{
		"bad id":            {method: http.MethodGet, target: "/teacher/abc", wantStatus: http.StatusBadRequest},
		"missing teacher":   {method: http.MethodGet, target: "/teacher/999", wantStatus: http.StatusNotFound},
		"malformed body":    {method: http.MethodPost, target: "/teacher", body: `{"TeacherFName":`, wantStatus: http.StatusBadRequest},
		"missing fields":    {method: http.MethodPost, target: "/teacher", body: `{"TeacherFName":"Bob"}`, wantStatus: http.StatusBadRequest, wantField: "EmployeeNumber"},
		"bad number format": {method: http.MethodPost, target: "/teacher", body: `{"TeacherFName":"Bob","TeacherLName":"Ray","EmployeeNumber":"X9"}`, wantStatus: http.StatusBadRequest, wantField: "EmployeeNumber"},
		"duplicate number":  {method: http.MethodPost, target: "/teacher", body: `{"TeacherFName":"Bob","TeacherLName":"Ray","EmployeeNumber":"T1"}`, wantStatus: http.StatusBadRequest},
		"id mismatch": {
			method: http.MethodPut, target: "/teacher/" + strconv.Itoa(existing.ID),
			body:       `{"TeacherId":12345,"TeacherFName":"Ann","TeacherLName":"Lee","EmployeeNumber":"T1"}`,
			wantStatus: http.StatusBadRequest,
		},
		"update missing": {
			method: http.MethodPut, target: "/teacher/999",
			body:       `{"TeacherId":999,"TeacherFName":"Ann","TeacherLName":"Lee","EmployeeNumber":"T5"}`,
			wantStatus: http.StatusNotFound,
		},
		"update missing with taken number": {
			method: http.MethodPut, target: "/teacher/999",
			body:       `{"TeacherId":999,"TeacherFName":"Ann","TeacherLName":"Lee","EmployeeNumber":"T1"}`,
			wantStatus: http.StatusNotFound,
		},
		"negative limit":  {method: http.MethodGet, target: "/teacher?limit=-1", wantStatus: http.StatusBadRequest},
		"empty search":    {method: http.MethodGet, target: "/teacher/search?q=", wantStatus: http.StatusBadRequest, wantField: "q"},
		"courses bad id":  {method: http.MethodGet, target: "/teacher/x/courses", wantStatus: http.StatusBadRequest},
		"hired no bounds": {method: http.MethodGet, target: "/teacher/hired", wantStatus: http.StatusBadRequest, wantField: "min"},
		"hired bad max":   {method: http.MethodGet, target: "/teacher/hired?min=2020-01-01&max=01/02/2020", wantStatus: http.StatusBadRequest, wantField: "max"},
		"hired reversed":  {method: http.MethodGet, target: "/teacher/hired?min=2021-01-01&max=2020-01-01", wantStatus: http.StatusBadRequest, wantField: "min"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			rec := do(e, tc.method, tc.target, tc.body)
			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())

			body := decodeError(t, rec)
			assert.NotEmpty(t, body.Message)
			if tc.wantField != "" {
				assert.Contains(t, body.Fields, tc.wantField)
			}
		})
	}
}

func TestTeacherAPI_HiredAndCourses(t *testing.T) {
	e, db := newTestServer(t)

	a := createTeacher(t, e, `{"TeacherFName":"Ann","TeacherLName":"Lee","EmployeeNumber":"T1","HireDate":"2010-01-01"}`)
	b := createTeacher(t, e, `{"TeacherFName":"Bob","TeacherLName":"Ray","EmployeeNumber":"T2","HireDate":"2015-06-30"}`)
	createTeacher(t, e, `{"TeacherFName":"Cy","TeacherLName":"Po","EmployeeNumber":"T3","HireDate":"2020-01-01"}`)

	rec := do(e, http.MethodGet, "/teacher/hired?min=2010-01-01&max=2015-06-30", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hired []domain.Teacher
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hired))
	require.Len(t, hired, 2)
	assert.Equal(t, a.ID, hired[0].ID)
	assert.Equal(t, b.ID, hired[1].ID)

	rec = do(e, http.MethodGet, "/teacher/"+strconv.Itoa(b.ID)+"/courses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	_, err := db.Exec(`INSERT INTO courses (courseid, coursename, coursecode) VALUES (1, 'Algebra', 'MATH101')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO teachers_courses (teacherid, courseid) VALUES (?, 1)`, b.ID)
	require.NoError(t, err)

	rec = do(e, http.MethodGet, "/teacher/"+strconv.Itoa(b.ID)+"/courses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"CourseId":1,"CourseCode":"MATH101","CourseName":"Algebra"}]`, rec.Body.String())
}

func TestTeacherAPI_SearchAndExport(t *testing.T) {
	e, _ := newTestServer(t)
	createTeacher(t, e, `{"TeacherFName":"Ann","TeacherLName":"Lee","EmployeeNumber":"T1"}`)
	createTeacher(t, e, `{"TeacherFName":"Bob","TeacherLName":"Annis","EmployeeNumber":"T2"}`)
	createTeacher(t, e, `{"TeacherFName":"Cy","TeacherLName":"Po","EmployeeNumber":"T3"}`)

	rec := do(e, http.MethodGet, "/teacher/search?q=ann", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var found []domain.Teacher
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	assert.Len(t, found, 2)

	rec = do(e, http.MethodGet, "/teacher/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get(echo.HeaderContentType))
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = do(e, http.MethodGet, "/teacher/export?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "teachers.csv")
	assert.Len(t, strings.Split(strings.TrimSpace(rec.Body.String()), "\n"), 4)
}

func TestTeacherAPI_StoreErrors(t *testing.T) {
	e, db := newTestServer(t)
	require.NoError(t, db.Close())

	assert.Equal(t, http.StatusInternalServerError, do(e, http.MethodGet, "/teacher", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(e, http.MethodGet, "/teacher/1", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(e, http.MethodGet, "/teacher/export", "").Code)
}

func TestRequestValidator(t *testing.T) {
	v := NewRequestValidator()
	err := v.Validate(&domain.Teacher{FirstName: "A", LastName: "B", EmployeeNumber: "T1"})
	assert.NoError(t, err)

	err = v.Validate(&domain.Teacher{})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}
