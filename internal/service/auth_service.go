package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"jobhub/internal/domain"
	"jobhub/internal/email"
	"jobhub/internal/repository"
)

var (
	ErrValidation           = errors.New("invalid input")
	ErrEmailTaken           = errors.New("email already in use")
	ErrUserNotFound         = errors.New("user not found")
	ErrAlreadyVerified      = errors.New("email is already verified")
	ErrCodeInvalidOrExpired = errors.New("invalid or expired code")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmailNotVerified     = errors.New("email not verified")
	ErrEmailSendFailure     = errors.New("email send failed")
	ErrRateLimited          = errors.New("rate limited")
)

const otpLength = 6

// AuthService coordina registro, verificación de email y login.
type AuthService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	otps        repository.OTPRepository
	emailSender email.Sender
	limiter     RateLimiter
	otpTTL      time.Duration
}

func NewAuthService(logger *zap.Logger, users repository.UserRepository, otps repository.OTPRepository, emailSender email.Sender, limiter RateLimiter, otpTTL time.Duration) *AuthService {
	if otpTTL <= 0 {
		otpTTL = 15 * time.Minute
	}
	if limiter == nil {
		limiter = NewMemoryRateLimiter(otpTTL, 3)
	}
	return &AuthService{
		logger:      logger,
		users:       users,
		otps:        otps,
		emailSender: emailSender,
		limiter:     limiter,
		otpTTL:      otpTTL,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Role     domain.Role
	SubRole  domain.SubRole

	CompanyName    string
	CIN            string
	CompanyMail    string
	CompanyContact string
	Industry       string
	CompanySize    string
	CompanyAddress string
}

func (in *RegisterInput) validate() error {
	in.Email = normalizeEmail(in.Email)
	if in.Email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if len(in.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if in.Role == "" {
		in.Role = domain.RoleUser
	}

	// Validación por variante: los campos obligatorios dependen del rol.
	switch in.Role {
	case domain.RoleUser:
		if in.SubRole != domain.SubRoleFreelancer && in.SubRole != domain.SubRoleJobseeker {
			return fmt.Errorf("%w: sub_role must be freelancer or jobseeker", ErrValidation)
		}
	case domain.RoleHR:
		in.SubRole = ""
		for field, value := range map[string]string{
			"company_name":    in.CompanyName,
			"cin":             in.CIN,
			"company_mail":    in.CompanyMail,
			"company_contact": in.CompanyContact,
			"company_address": in.CompanyAddress,
		} {
			if strings.TrimSpace(value) == "" {
				return fmt.Errorf("%w: %s is required", ErrValidation, field)
			}
		}
	default:
		return fmt.Errorf("%w: unknown role %q", ErrValidation, in.Role)
	}
	return nil
}

// Register crea el usuario sin verificar, emite un OTP y dispara el correo de
// verificación. Si el envío falla se elimina el usuario y el código recién
// creados: nunca queda una cuenta inverificable.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	if err := input.validate(); err != nil {
		return domain.User{}, err
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:             uuid.NewString(),
		Email:          input.Email,
		PasswordHash:   string(hashBytes),
		Role:           input.Role,
		SubRole:        input.SubRole,
		CompanyName:    input.CompanyName,
		CIN:            input.CIN,
		CompanyMail:    input.CompanyMail,
		CompanyContact: input.CompanyContact,
		Industry:       input.Industry,
		CompanySize:    input.CompanySize,
		CompanyAddress: input.CompanyAddress,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}

	if err := s.issueVerification(ctx, user); err != nil {
		// Compensación: sin correo de verificación la cuenta sería
		// inutilizable, así que se borra todo lo creado.
		if delErr := s.otps.DeleteForUser(ctx, user.ID); delErr != nil {
			s.logger.Warn("cleanup otp after send failure", zap.Error(delErr), zap.String("user_id", user.ID))
		}
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.logger.Warn("cleanup user after send failure", zap.Error(delErr), zap.String("user_id", user.ID))
		}
		return domain.User{}, err
	}

	return user, nil
}

// VerifyEmail consume el código y marca el email como verificado. Cualquier
// código incorrecto, reutilizado o vencido produce el mismo error genérico.
func (s *AuthService) VerifyEmail(ctx context.Context, emailAddr, code string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	if emailAddr == "" {
		return domain.User{}, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !isValidOTPCode(code) {
		return domain.User{}, ErrCodeInvalidOrExpired
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	// Consumo condicional: de dos requests concurrentes con el mismo código
	// solo uno lo gasta, y un código ya gastado produce el mismo error
	// genérico que uno incorrecto.
	ok, err := s.otps.Consume(ctx, user.ID, code)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, ErrCodeInvalidOrExpired
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return domain.User{}, err
	}

	user.IsEmailVerified = true
	return user, nil
}

// ResendVerification reemite el OTP para cuentas sin verificar, invalidando
// los códigos anteriores.
func (s *AuthService) ResendVerification(ctx context.Context, emailAddr string) error {
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
			return ErrUserNotFound
		}
		return err
	}
	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}

	if err := s.issueVerification(ctx, user); err != nil {
		if delErr := s.otps.DeleteForUser(ctx, user.ID); delErr != nil {
			s.logger.Warn("cleanup otp after send failure", zap.Error(delErr), zap.String("user_id", user.ID))
		}
		return err
	}
	return nil
}

// Login autentica credenciales. No distingue "cuenta inexistente" de
// "contraseña incorrecta".
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	if !user.IsEmailVerified {
		return domain.User{}, ErrEmailNotVerified
	}
	return user, nil
}

// issueVerification genera el código, reemplaza los anteriores y lo envía.
func (s *AuthService) issueVerification(ctx context.Context, user domain.User) error {
	code, err := generateNumericOTP(otpLength)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	record := domain.VerificationCode{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: now.Add(s.otpTTL),
		CreatedAt: now,
	}
	if err := s.otps.Replace(ctx, record); err != nil {
		return err
	}

	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	if err := s.emailSender.SendVerificationCode(ctx, user.Email, code, record.ExpiresAt); err != nil {
		s.logger.Warn("send verification code failed", zap.Error(err), zap.String("email", user.Email))
		return ErrEmailSendFailure
	}
	return nil
}

// generateNumericOTP arma el código dígito a dígito con una fuente uniforme.
func generateNumericOTP(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidOTPCode(code string) bool {
	if len(code) != otpLength {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
