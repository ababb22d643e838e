package serviceutils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/school_management/internal/domain"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(domain.KindValidation))
	assert.Equal(t, http.StatusBadRequest, StatusFor(domain.KindDuplicate))
	assert.Equal(t, http.StatusBadRequest, StatusFor(domain.KindMismatch))
	assert.Equal(t, http.StatusNotFound, StatusFor(domain.KindNotFound))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(domain.KindStore))
}

func TestResponseKindError(t *testing.T) {
	testCases := map[string]struct {
		err        error
		wantStatus int
		wantFields map[string]string
	}{
		"validation carries fields": {
			err:        domain.NewValidationError(map[string]string{"EmployeeNumber": "Employee number is required."}),
			wantStatus: http.StatusBadRequest,
			wantFields: map[string]string{"EmployeeNumber": "Employee number is required."},
		},
		"wrapped duplicate": {
			err:        fmt.Errorf("create: %w", domain.ErrDuplicateEmployeeNumber),
			wantStatus: http.StatusBadRequest,
		},
		"not found": {
			err:        domain.ErrNotFound,
			wantStatus: http.StatusNotFound,
		},
		"store": {
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, ResponseKindError(c, "Failed", tc.err))
			assert.Equal(t, tc.wantStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "Failed", body.Message)
			assert.Equal(t, tc.err.Error(), body.Error)
			assert.Equal(t, tc.wantFields, body.Fields)
		})
	}
}

func TestResponseError_LogsServerErrors(t *testing.T) {
	testCases := map[string]struct {
		err       error
		wantError interface{}
	}{
		"with error": {err: errors.New("disk full"), wantError: "disk full"},
		"nil error":  {err: nil, wantError: nil},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(zerolog.New(&buf).WithContext(req.Context()))
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(req, rec)

			require.NoError(t, ResponseError(c, http.StatusInternalServerError, "Export 100% failed", tc.err))
			assert.Equal(t, http.StatusInternalServerError, rec.Code)

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "error", entry["level"])
			assert.Equal(t, "Export 100% failed", entry["message"])
			assert.Equal(t, tc.wantError, entry["error"])
		})
	}
}
