package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobhub/internal/domain"
	"jobhub/internal/service"
)

// AuthHandler mantiene dependencias para los endpoints de autenticación.
type AuthHandler struct {
	logger    *zap.Logger
	authServ  *service.AuthService
	resetServ *service.ResetService
	tokenServ *service.TokenService
}

// NewAuthHandler crea una instancia de AuthHandler con sus dependencias.
func NewAuthHandler(logger *zap.Logger, authServ *service.AuthService, resetServ *service.ResetService, tokenServ *service.TokenService) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		authServ:  authServ,
		resetServ: resetServ,
		tokenServ: tokenServ,
	}
}

// Register maneja POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email          string `json:"email" binding:"required,email"`
		Password       string `json:"password" binding:"required"`
		Role           string `json:"role"`
		SubRole        string `json:"sub_role"`
		CompanyName    string `json:"company_name"`
		CIN            string `json:"cin"`
		CompanyMail    string `json:"company_mail"`
		CompanyContact string `json:"company_contact"`
		Industry       string `json:"industry"`
		CompanySize    string `json:"company_size"`
		CompanyAddress string `json:"company_address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	user, err := h.authServ.Register(c.Request.Context(), service.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		Role:           domain.Role(req.Role),
		SubRole:        domain.SubRole(req.SubRole),
		CompanyName:    req.CompanyName,
		CIN:            req.CIN,
		CompanyMail:    req.CompanyMail,
		CompanyContact: req.CompanyContact,
		Industry:       req.Industry,
		CompanySize:    req.CompanySize,
		CompanyAddress: req.CompanyAddress,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrEmailTaken):
			fail(c, http.StatusBadRequest, "Email already in use")
		case errors.Is(err, service.ErrEmailSendFailure):
			fail(c, http.StatusServiceUnavailable, "Failed to send verification email. Please try again.")
		default:
			h.logger.Error("register failed", zap.Error(err))
			fail(c, http.StatusInternalServerError, "Could not register user")
		}
		return
	}

	respond(c, http.StatusCreated, "User created successfully. Please check your email for verification code.", user)
}

// VerifyEmail maneja POST /auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req struct {
		Email   string `json:"email" binding:"required,email"`
		OTPCode string `json:"otp_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid verify email request", zap.Error(err))
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	user, err := h.authServ.VerifyEmail(c.Request.Context(), req.Email, req.OTPCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			fail(c, http.StatusBadRequest, "User not found")
		case errors.Is(err, service.ErrCodeInvalidOrExpired):
			fail(c, http.StatusBadRequest, "Invalid or expired OTP")
		default:
			h.logger.Error("verify email failed", zap.Error(err))
			fail(c, http.StatusInternalServerError, "Could not verify email")
		}
		return
	}

	respond(c, http.StatusOK, "Email verified successfully", gin.H{
		"email":             user.Email,
		"is_email_verified": true,
	})
}

// ResendVerification maneja POST /auth/resend-verification.
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid resend verification request", zap.Error(err))
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := h.authServ.ResendVerification(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			fail(c, http.StatusTooManyRequests, "Too many requests")
		case errors.Is(err, service.ErrUserNotFound):
			fail(c, http.StatusBadRequest, "User not found")
		case errors.Is(err, service.ErrAlreadyVerified):
			fail(c, http.StatusBadRequest, "Email is already verified")
		case errors.Is(err, service.ErrEmailSendFailure):
			fail(c, http.StatusServiceUnavailable, "Failed to send verification email. Please try again.")
		default:
			h.logger.Error("resend verification failed", zap.Error(err))
			fail(c, http.StatusInternalServerError, "Could not resend verification email")
		}
		return
	}

	respond(c, http.StatusOK, "Verification email sent successfully", nil)
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	user, err := h.authServ.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			fail(c, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, service.ErrEmailNotVerified):
			fail(c, http.StatusUnauthorized, "Please verify your email before logging in")
		default:
			h.logger.Error("login failed", zap.Error(err))
			fail(c, http.StatusInternalServerError, "Could not login")
		}
		return
	}

	tokens, err := h.tokenServ.IssuePair(c.Request.Context(), user)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Could not issue tokens")
		return
	}

	respond(c, http.StatusOK, "Login successful", gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// RefreshToken maneja POST /auth/refresh-token.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid refresh request", zap.Error(err))
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	tokens, err := h.tokenServ.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrTokenUnauthorized) {
			fail(c, http.StatusUnauthorized, "Invalid or expired refresh token")
			return
		}
		h.logger.Error("refresh failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Could not refresh tokens")
		return
	}

	respond(c, http.StatusOK, "Tokens refreshed successfully", tokens)
}

// Logout maneja POST /auth/logout. Siempre aparenta éxito: revela lo mismo
// para tokens válidos, revocados o desconocidos.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid logout request", zap.Error(err))
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := h.tokenServ.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
		h.logger.Warn("logout revoke failed", zap.Error(err))
	}
	respond(c, http.StatusOK, "Logged out successfully", nil)
}

// LogoutAllDevices maneja POST /auth/logout-all-devices. Requiere access
// token válido.
func (h *AuthHandler) LogoutAllDevices(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Invalid or expired access token")
		return
	}

	if err := h.tokenServ.RevokeAll(c.Request.Context(), claims.UserID); err != nil {
		h.logger.Error("logout all devices failed", zap.Error(err))
		fail(c, http.StatusBadRequest, "Failed to logout from all devices")
		return
	}
	respond(c, http.StatusOK, "Logged out from all devices successfully", nil)
}

// ForgotPassword maneja POST /auth/forgot-password. La respuesta es idéntica
// exista o no la cuenta.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid forgot password request", zap.Error(err))
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := h.resetServ.RequestReset(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			fail(c, http.StatusTooManyRequests, "Too many requests")
		case errors.Is(err, service.ErrValidation):
			fail(c, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("forgot password failed", zap.Error(err))
			fail(c, http.StatusInternalServerError, "Could not process request")
		}
		return
	}

	respond(c, http.StatusOK, "If that email exists, a reset link has been sent", nil)
}

// ResetPassword maneja POST /auth/reset-password?token=...
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	token := c.Query("token")
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid reset password request", zap.Error(err))
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := h.resetServ.ResetPassword(c.Request.Context(), token, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrResetInvalidOrExpired):
			// Siempre 400, nunca 404: no se revela si el token existió.
			fail(c, http.StatusBadRequest, "Invalid or expired reset token")
		default:
			h.logger.Error("reset password failed", zap.Error(err))
			fail(c, http.StatusInternalServerError, "Could not reset password")
		}
		return
	}

	respond(c, http.StatusOK, "Password reset successful", nil)
}
