package domain

import "time"

// VerificationCode es un OTP numérico de 6 dígitos ligado a un usuario.
type VerificationCode struct {
	ID        string
	UserID    string
	Code      string
	ExpiresAt time.Time
	IsUsed    bool
	CreatedAt time.Time
}

// PasswordResetToken autoriza exactamente un cambio de contraseña.
type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	IsUsed    bool
	CreatedAt time.Time
}

// AccessTokenRecord es la copia persistida de un access token emitido.
type AccessTokenRecord struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// RefreshTokenRecord es la copia persistida de un refresh token emitido.
// Una vez revocado nunca vuelve a autorizar una rotación.
type RefreshTokenRecord struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	IsRevoked bool
	CreatedAt time.Time
}
