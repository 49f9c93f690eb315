package http

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"jobhub/internal/domain"
	"jobhub/internal/service"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (f *fakeUserRepo) MarkEmailVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.IsEmailVerified = true
	f.users[id] = user
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	f.users[id] = user
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

type fakeOTPRepo struct {
	mu    sync.Mutex
	codes map[string]domain.VerificationCode
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{codes: make(map[string]domain.VerificationCode)}
}

func (f *fakeOTPRepo) Replace(_ context.Context, code domain.VerificationCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.codes {
		if c.UserID == code.UserID && !c.IsUsed {
			delete(f.codes, id)
		}
	}
	f.codes[code.ID] = code
	return nil
}

func (f *fakeOTPRepo) Consume(_ context.Context, userID, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.codes {
		if c.UserID == userID && c.Code == code && !c.IsUsed && c.ExpiresAt.After(time.Now().UTC()) {
			c.IsUsed = true
			f.codes[id] = c
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOTPRepo) DeleteForUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.codes {
		if c.UserID == userID {
			delete(f.codes, id)
		}
	}
	return nil
}

func (f *fakeOTPRepo) DeleteExpired(_ context.Context) error { return nil }

type fakeResetRepo struct {
	mu     sync.Mutex
	tokens map[string]domain.PasswordResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]domain.PasswordResetToken)}
}

func (f *fakeResetRepo) Replace(_ context.Context, token domain.PasswordResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, t := range f.tokens {
		if t.UserID == token.UserID && !t.IsUsed {
			t.IsUsed = true
			f.tokens[id] = t
		}
	}
	f.tokens[token.ID] = token
	return nil
}

func (f *fakeResetRepo) Consume(_ context.Context, token string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, t := range f.tokens {
		if t.Token == token && !t.IsUsed && t.ExpiresAt.After(time.Now().UTC()) {
			t.IsUsed = true
			f.tokens[id] = t
			return t.UserID, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeResetRepo) DeleteExpired(_ context.Context) error { return nil }

func (f *fakeResetRepo) usableCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tokens {
		if !t.IsUsed {
			n++
		}
	}
	return n
}

type fakeTokenRepo struct {
	mu      sync.Mutex
	access  map[string]domain.AccessTokenRecord
	refresh map[string]domain.RefreshTokenRecord
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		access:  make(map[string]domain.AccessTokenRecord),
		refresh: make(map[string]domain.RefreshTokenRecord),
	}
}

func (f *fakeTokenRepo) InsertPair(_ context.Context, access domain.AccessTokenRecord, refresh domain.RefreshTokenRecord, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access[access.ID] = access
	f.refresh[refresh.ID] = refresh
	return nil
}

func (f *fakeTokenRepo) AccessTokenActive(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.access {
		if a.Token == token && a.ExpiresAt.After(time.Now().UTC()) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTokenRepo) RefreshTokenActive(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.refresh {
		if r.Token == token && !r.IsRevoked && r.ExpiresAt.After(time.Now().UTC()) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTokenRepo) ConsumeRefresh(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.refresh {
		if r.Token == token && !r.IsRevoked && r.ExpiresAt.After(time.Now().UTC()) {
			r.IsRevoked = true
			f.refresh[id] = r
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTokenRepo) RevokeRefresh(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.refresh {
		if r.Token == token {
			r.IsRevoked = true
			f.refresh[id] = r
		}
	}
	return nil
}

func (f *fakeTokenRepo) RevokeAllForUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, a := range f.access {
		if a.UserID == userID {
			delete(f.access, id)
		}
	}
	for id, r := range f.refresh {
		if r.UserID == userID {
			r.IsRevoked = true
			f.refresh[id] = r
		}
	}
	return nil
}

func (f *fakeTokenRepo) DeleteExpired(_ context.Context) error { return nil }

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs []domain.Job
}

func (f *fakeJobRepo) Create(_ context.Context, job domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeJobRepo) List(_ context.Context, _, _ int) ([]domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Job(nil), f.jobs...), nil
}

type fakeSender struct {
	mu       sync.Mutex
	lastCode string
	lastURL  string
	codeErr  error
}

func (f *fakeSender) SendVerificationCode(_ context.Context, _ string, code string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.codeErr != nil {
		return f.codeErr
	}
	f.lastCode = code
	return nil
}

func (f *fakeSender) SendPasswordResetLink(_ context.Context, _ string, resetURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastURL = resetURL
	return nil
}

func (f *fakeSender) SendPasswordChangedNotice(_ context.Context, _ string) error { return nil }

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(string) bool { return true }

type testEnv struct {
	router *gin.Engine
	users  *fakeUserRepo
	otps   *fakeOTPRepo
	resets *fakeResetRepo
	tokens *fakeTokenRepo
	sender *fakeSender
	tokenS *service.TokenService
}

func newTestEnv() *testEnv {
	logger := zap.NewNop()
	users := newFakeUserRepo()
	otps := newFakeOTPRepo()
	resets := newFakeResetRepo()
	tokens := newFakeTokenRepo()
	sender := &fakeSender{}

	tokenServ := service.NewTokenService(logger, service.NewJWTCodec(), users, tokens, service.TokenServiceOptions{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		MaxSessions:   5,
	})
	authServ := service.NewAuthService(logger, users, otps, sender, allowAllLimiter{}, 15*time.Minute)
	resetServ := service.NewResetService(logger, users, resets, sender, allowAllLimiter{}, time.Hour, "http://localhost:3000")

	authH := NewAuthHandler(logger, authServ, resetServ, tokenServ)
	jobH := NewJobHandler(logger, &fakeJobRepo{})
	router := NewRouter(logger, tokenServ, authH, jobH)

	return &testEnv{
		router: router,
		users:  users,
		otps:   otps,
		resets: resets,
		tokens: tokens,
		sender: sender,
		tokenS: tokenServ,
	}
}
