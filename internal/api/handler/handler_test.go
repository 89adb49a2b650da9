package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityawrm/voiceguard/internal/api/domain"
	"github.com/adityawrm/voiceguard/internal/api/dto"
	"github.com/adityawrm/voiceguard/internal/api/model"
)

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind domain.ErrorKind
		want int
	}{
		{domain.KindValidation, http.StatusBadRequest},
		{domain.KindQuotaExceeded, http.StatusForbidden},
		{domain.KindNotFound, http.StatusNotFound},
		{domain.KindServiceUnavailable, http.StatusServiceUnavailable},
		{domain.KindStorageFailure, http.StatusBadGateway},
		{domain.KindDispatchFailure, http.StatusBadGateway},
		{domain.KindPersistenceFailure, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForKind(tt.kind), string(tt.kind))
	}
}

func TestWriteErrorKinded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	writeError(c, domain.NewError(domain.KindQuotaExceeded, "daily quota exhausted, used 3 of 3"))

	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "QUOTA_EXCEEDED", resp.Kind)
	assert.Equal(t, "daily quota exhausted, used 3 of 3", resp.Error)
}

func TestWriteErrorUnkinded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	writeError(c, errors.New("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Error)
	assert.NotContains(t, resp.Error, "pq:")
}

func TestStatusResponseShaping(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	completed := &model.AnalysisJob{
		AnalysisID: "a1",
		Status:     domain.StatusCompleted,
		Result:     []byte(`{"prediction":"REAL"}`),
		ErrorMessage: sql.NullString{
			String: "", Valid: false,
		},
		CreatedAt: created,
	}
	resp := statusResponse(completed)
	assert.Equal(t, json.RawMessage(`{"prediction":"REAL"}`), resp.Result)
	assert.Empty(t, resp.Error)
	assert.Equal(t, "2026-03-01T10:00:00Z", resp.CreatedAt)

	failed := &model.AnalysisJob{
		AnalysisID:   "a2",
		Status:       domain.StatusFailed,
		Result:       []byte(`{"stale":true}`),
		ErrorMessage: sql.NullString{String: "inference failed: model timed out", Valid: true},
		CreatedAt:    created,
	}
	resp = statusResponse(failed)
	assert.Nil(t, resp.Result)
	assert.Equal(t, "inference failed: model timed out", resp.Error)

	pending := &model.AnalysisJob{
		AnalysisID: "a3",
		Status:     domain.StatusPending,
		CreatedAt:  created,
	}
	resp = statusResponse(pending)
	assert.Nil(t, resp.Result)
	assert.Empty(t, resp.Error)
}
