package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobhub/internal/domain"
	"jobhub/internal/repository"
)

// ErrTokenUnauthorized cubre firma inválida, expiración, revocación y registro
// ausente por igual: el caller nunca distingue el motivo.
var ErrTokenUnauthorized = errors.New("invalid or expired token")

const tokenIssuer = "jobhub"

// TokenService emite, valida, rota y revoca pares access/refresh. Cada token
// firmado se persiste como registro; un token sin registro vigente no
// autoriza nada, lo que habilita revocación server-side.
type TokenService struct {
	logger        *zap.Logger
	codec         TokenCodec
	users         repository.UserRepository
	tokens        repository.TokenRepository
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	maxSessions   int
}

// TokenPair es la respuesta de emisión y rotación.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type TokenServiceOptions struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	MaxSessions   int
}

func NewTokenService(logger *zap.Logger, codec TokenCodec, users repository.UserRepository, tokens repository.TokenRepository, opts TokenServiceOptions) *TokenService {
	if codec == nil {
		codec = NewJWTCodec()
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 5
	}
	return &TokenService{
		logger:        logger,
		codec:         codec,
		users:         users,
		tokens:        tokens,
		accessSecret:  []byte(opts.AccessSecret),
		refreshSecret: []byte(opts.RefreshSecret),
		accessTTL:     opts.AccessTTL,
		refreshTTL:    opts.RefreshTTL,
		maxSessions:   opts.MaxSessions,
	}
}

// IssuePair firma un par nuevo y lo persiste, podando sesiones viejas del
// usuario hasta el tope configurado.
func (s *TokenService) IssuePair(ctx context.Context, user domain.User) (TokenPair, error) {
	now := time.Now().UTC()

	access, err := s.codec.Sign(s.buildClaims(user, now, s.accessTTL, "access"), s.accessSecret)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.codec.Sign(s.buildClaims(user, now, s.refreshTTL, "refresh"), s.refreshSecret)
	if err != nil {
		return TokenPair{}, err
	}

	accessRec := domain.AccessTokenRecord{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     access,
		ExpiresAt: now.Add(s.accessTTL),
		CreatedAt: now,
	}
	refreshRec := domain.RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.tokens.InsertPair(ctx, accessRec, refreshRec, s.maxSessions); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// ValidateAccess verifica firma y expiración y exige que exista un registro
// persistido vigente: un token borrado por revocación queda rechazado aunque
// su firma sea válida.
func (s *TokenService) ValidateAccess(ctx context.Context, token string) (Claims, error) {
	claims, err := s.verify(token, s.accessSecret, "access")
	if err != nil {
		return Claims{}, err
	}
	active, err := s.tokens.AccessTokenActive(ctx, token)
	if err != nil {
		return Claims{}, err
	}
	if !active {
		return Claims{}, ErrTokenUnauthorized
	}
	return claims, nil
}

// ValidateRefresh es como ValidateAccess pero exige además que el registro no
// esté revocado.
func (s *TokenService) ValidateRefresh(ctx context.Context, token string) (Claims, error) {
	claims, err := s.verify(token, s.refreshSecret, "refresh")
	if err != nil {
		return Claims{}, err
	}
	active, err := s.tokens.RefreshTokenActive(ctx, token)
	if err != nil {
		return Claims{}, err
	}
	if !active {
		return Claims{}, ErrTokenUnauthorized
	}
	return claims, nil
}

// Refresh rota: consume el refresh presentado de forma atómica con la
// validación, re-resuelve la identidad y emite un par nuevo. De dos llamadas
// concurrentes con el mismo token solo una gana.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.verify(refreshToken, s.refreshSecret, "refresh")
	if err != nil {
		return TokenPair{}, err
	}

	won, err := s.tokens.ConsumeRefresh(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if !won {
		return TokenPair{}, ErrTokenUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		// El token ya quedó revocado; la identidad ausente no se distingue
		// de cualquier otro fallo de validación.
		return TokenPair{}, ErrTokenUnauthorized
	}

	return s.IssuePair(ctx, user)
}

// Revoke marca el refresh token como revocado. Idempotente: un token
// desconocido o ya revocado no es un error, el logout siempre aparenta éxito.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	return s.tokens.RevokeRefresh(ctx, refreshToken)
}

// RevokeAll implementa "logout everywhere" para un usuario.
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// ReapExpired elimina registros de tokens vencidos, revocados o no. Pensado
// para correr en un ticker fuera del camino de requests.
func (s *TokenService) ReapExpired(ctx context.Context) error {
	return s.tokens.DeleteExpired(ctx)
}

func (s *TokenService) buildClaims(user domain.User, now time.Time, ttl time.Duration, tokenType string) Claims {
	return Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SubRole:   user.SubRole,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func (s *TokenService) verify(token string, secret []byte, tokenType string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, ErrTokenUnauthorized
	}
	claims, err := s.codec.Verify(token, secret)
	if err != nil {
		return Claims{}, ErrTokenUnauthorized
	}
	if claims.TokenType != tokenType {
		return Claims{}, ErrTokenUnauthorized
	}
	if !validClaims(claims) {
		return Claims{}, ErrTokenUnauthorized
	}
	return claims, nil
}

func validClaims(claims Claims) bool {
	if strings.TrimSpace(claims.UserID) == "" {
		return false
	}
	if claims.Subject != claims.UserID {
		return false
	}
	return claims.Issuer == tokenIssuer
}
