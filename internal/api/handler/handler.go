package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adityawrm/voiceguard/internal/api/auth"
	"github.com/adityawrm/voiceguard/internal/api/domain"
	"github.com/adityawrm/voiceguard/internal/api/dto"
	"github.com/adityawrm/voiceguard/internal/api/service"
	"github.com/adityawrm/voiceguard/internal/api/storage"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger         *slog.Logger
	Service        *service.Service
	Users          *storage.UserStore
	Tokens         *auth.TokenService
	MaxUploadBytes int64
}

// statusForKind maps a failure kind to its HTTP status code.
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindQuotaExceeded:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindStorageFailure, domain.KindDispatchFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a kinded error as an ErrorResponse. Errors without a
// kind fall through as 500 with a generic message so internals never leak.
func writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	if kind == "" {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Kind:  string(domain.KindPersistenceFailure),
			Error: "internal server error",
		})
		return
	}

	var de *domain.Error
	message := err.Error()
	if errors.As(err, &de) {
		message = de.Message
	}

	c.JSON(statusForKind(kind), dto.ErrorResponse{
		Kind:  string(kind),
		Error: message,
	})
}
