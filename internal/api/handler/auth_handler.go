package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adityawrm/voiceguard/internal/api/auth"
	"github.com/adityawrm/voiceguard/internal/api/dto"
	"github.com/adityawrm/voiceguard/internal/api/storage"
)

// AuthHandler handles registration and login requests
type AuthHandler struct {
	logger *slog.Logger
	users  *storage.UserStore
	tokens *auth.TokenService
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(deps *Dependencies) *AuthHandler {
	return &AuthHandler{
		logger: deps.Logger,
		users:  deps.Users,
		tokens: deps.Tokens,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "email and a password of at least 8 characters are required",
		})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("Failed to hash password", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to register user",
		})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.Email, hash)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "email already registered",
			})
			return
		}
		h.logger.Error("Failed to create user", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to register user",
		})
		return
	}

	h.logger.Info("User registered",
		slog.String("user_id", user.UserID),
	)

	c.JSON(http.StatusCreated, gin.H{
		"user_id": user.UserID,
		"email":   user.Email,
		"plan":    user.Plan,
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "email and password are required",
		})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			h.logger.Error("Failed to look up user", slog.String("error", err.Error()))
		}
		// same response for unknown email and bad password
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid credentials",
		})
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid credentials",
		})
		return
	}

	token, err := h.tokens.GenerateToken(user.UserID)
	if err != nil {
		h.logger.Error("Failed to generate token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to log in",
		})
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{AccessToken: token})
}
