package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"jobhub/internal/domain"
	"jobhub/internal/email"
	"jobhub/internal/repository"
)

// ErrResetInvalidOrExpired cubre token desconocido, ya usado, vencido o con
// identidad ausente por igual.
var ErrResetInvalidOrExpired = errors.New("invalid or expired reset token")

const resetTokenLength = 64

// ResetService gestiona tokens de restablecimiento de contraseña de un solo
// uso.
type ResetService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	resets      repository.ResetRepository
	emailSender email.Sender
	limiter     RateLimiter
	resetTTL    time.Duration
	frontendURL string
}

func NewResetService(logger *zap.Logger, users repository.UserRepository, resets repository.ResetRepository, emailSender email.Sender, limiter RateLimiter, resetTTL time.Duration, frontendURL string) *ResetService {
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}
	return &ResetService{
		logger:      logger,
		users:       users,
		resets:      resets,
		emailSender: emailSender,
		limiter:     limiter,
		resetTTL:    resetTTL,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// RequestReset responde igual exista o no la cuenta. Si existe, invalida los
// tokens anteriores, guarda uno nuevo y envía el enlace; un fallo de envío se
// registra pero no se expone.
func (s *ResetService) RequestReset(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if s.limiter != nil && !s.limiter.Allow(emailAddr) {
		return ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Respuesta indistinguible de la de una cuenta existente.
			return nil
		}
		return err
	}

	token, err := generateResetToken(user.Email)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	record := domain.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}
	if err := s.resets.Replace(ctx, record); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)
	if s.emailSender == nil {
		s.logger.Warn("reset link not sent, sender not configured", zap.String("email", user.Email))
		return nil
	}
	if err := s.emailSender.SendPasswordResetLink(ctx, user.Email, resetURL); err != nil {
		s.logger.Warn("send reset link failed", zap.Error(err), zap.String("email", user.Email))
	}
	return nil
}

// ResetPassword consume el token de forma atómica y reemplaza el hash de la
// contraseña. Un token ya usado nunca vuelve a funcionar.
func (s *ResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrResetInvalidOrExpired
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	userID, ok, err := s.resets.Consume(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrResetInvalidOrExpired
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrResetInvalidOrExpired
		}
		return err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hashBytes)); err != nil {
		return err
	}

	if s.emailSender != nil {
		if err := s.emailSender.SendPasswordChangedNotice(ctx, user.Email); err != nil {
			s.logger.Warn("send password changed notice failed", zap.Error(err), zap.String("email", user.Email))
		}
	}
	return nil
}

// generateResetToken deriva un token opaco de 64 caracteres alfanuméricos a
// partir de entropía propia de la identidad, un salt aleatorio y el reloj.
func generateResetToken(emailAddr string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	material := emailAddr + ":" + strconv.FormatInt(time.Now().UTC().UnixNano(), 10) + ":" + base64.StdEncoding.EncodeToString(salt)
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])[:resetTokenLength], nil
}
