package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adityawrm/voiceguard/internal/api/domain"
	"github.com/adityawrm/voiceguard/internal/api/dto"
	"github.com/adityawrm/voiceguard/internal/api/model"
	"github.com/adityawrm/voiceguard/internal/api/service"
)

// AnalysisHandler handles audio submission and query HTTP requests
type AnalysisHandler struct {
	logger         *slog.Logger
	service        *service.Service
	maxUploadBytes int64
}

// NewAnalysisHandler creates a new AnalysisHandler instance
func NewAnalysisHandler(deps *Dependencies) *AnalysisHandler {
	return &AnalysisHandler{
		logger:         deps.Logger,
		service:        deps.Service,
		maxUploadBytes: deps.MaxUploadBytes,
	}
}

// SubmitAudio handles POST /api/v1/analysis/audio
// Accepts a multipart upload and runs the submission saga.
func (h *AnalysisHandler) SubmitAudio(c *gin.Context) {
	userID := c.GetString("user_id")

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, domain.NewError(domain.KindValidation, "a multipart field named 'file' is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, domain.WrapError(domain.KindValidation, "failed to read uploaded file", err))
		return
	}
	defer file.Close()

	job, err := h.service.Submit(c.Request.Context(), userID, file, fileHeader.Size, fileHeader.Filename)
	if err != nil {
		h.logger.Warn("Submission rejected",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.SubmitResponse{
		Message:    "analysis accepted",
		AnalysisID: job.AnalysisID,
		Status:     job.Status,
		FileName:   job.OriginalFilename,
		Timestamp:  job.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// History handles GET /api/v1/history
// Lists the caller's jobs newest first.
func (h *AnalysisHandler) History(c *gin.Context) {
	userID := c.GetString("user_id")

	jobs, err := h.service.History(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list history",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(c, err)
		return
	}

	items := make([]dto.HistoryItem, len(jobs))
	for i, job := range jobs {
		items[i] = dto.HistoryItem{
			AnalysisID:   job.AnalysisID,
			Status:       job.Status,
			AnalysisType: job.AnalysisType,
			FileName:     job.OriginalFilename,
			CreatedAt:    job.CreatedAt.UTC().Format(time.RFC3339),
		}
		if job.Status == domain.StatusCompleted {
			items[i].Result = job.Result
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"history": items,
		"count":   len(items),
	})
}

// Status handles GET /api/v1/analysis/:analysis_id
// Returns one job, scoped to the caller.
func (h *AnalysisHandler) Status(c *gin.Context) {
	userID := c.GetString("user_id")
	analysisID := c.Param("analysis_id")

	job, err := h.service.Status(c.Request.Context(), userID, analysisID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, statusResponse(job))
}

func statusResponse(job *model.AnalysisJob) dto.StatusResponse {
	resp := dto.StatusResponse{
		AnalysisID: job.AnalysisID,
		Status:     job.Status,
		CreatedAt:  job.CreatedAt.UTC().Format(time.RFC3339),
	}
	switch job.Status {
	case domain.StatusCompleted:
		resp.Result = job.Result
	case domain.StatusFailed:
		if job.ErrorMessage.Valid {
			resp.Error = job.ErrorMessage.String
		}
	}
	return resp
}
