package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/taskmaster-backend/internal/http/response"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

// POST /api/auth/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	user, err := ah.authService.Register(c.Request.Context(), services.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"user": user})
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		UsernameOrEmail string `json:"username_or_email"`
		Password        string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	res, err := ah.authService.Login(c.Request.Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"access_token": res.AccessToken,
		"token_type":   res.TokenType,
		"expires_in":   int(ah.authService.GetAccessTTL().Seconds()),
		"expires_at":   res.ExpiresAt,
		"user":         res.User,
	})
}
