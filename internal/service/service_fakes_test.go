package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"jobhub/internal/domain"
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
	if !ok || user.IsDeleted {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email && !user.IsDeleted {
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

func (f *fakeOTPRepo) DeleteExpired(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for id, c := range f.codes {
		if c.ExpiresAt.Before(now) {
			delete(f.codes, id)
		}
	}
	return nil
}

func (f *fakeOTPRepo) unusedFor(userID string) []domain.VerificationCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.VerificationCode
	for _, c := range f.codes {
		if c.UserID == userID && !c.IsUsed {
			out = append(out, c)
		}
	}
	return out
}

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

func (f *fakeResetRepo) DeleteExpired(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for id, t := range f.tokens {
		if t.ExpiresAt.Before(now) {
			delete(f.tokens, id)
		}
	}
	return nil
}

func (f *fakeResetRepo) usableFor(userID string) []domain.PasswordResetToken {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	var out []domain.PasswordResetToken
	for _, t := range f.tokens {
		if t.UserID == userID && !t.IsUsed && t.ExpiresAt.After(now) {
			out = append(out, t)
		}
	}
	return out
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

func (f *fakeTokenRepo) InsertPair(_ context.Context, access domain.AccessTokenRecord, refresh domain.RefreshTokenRecord, maxRefresh int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if maxRefresh < 1 {
		maxRefresh = 1
	}
	var kept []domain.RefreshTokenRecord
	for _, r := range f.refresh {
		if r.UserID == refresh.UserID {
			kept = append(kept, r)
		}
	}
	for len(kept) > maxRefresh-1 {
		oldest := 0
		for i, r := range kept {
			if r.CreatedAt.Before(kept[oldest].CreatedAt) {
				oldest = i
			}
		}
		delete(f.refresh, kept[oldest].ID)
		kept = append(kept[:oldest], kept[oldest+1:]...)
	}
	now := time.Now().UTC()
	for id, a := range f.access {
		if a.UserID == access.UserID && a.ExpiresAt.Before(now) {
			delete(f.access, id)
		}
	}

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

func (f *fakeTokenRepo) DeleteExpired(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for id, a := range f.access {
		if a.ExpiresAt.Before(now) {
			delete(f.access, id)
		}
	}
	for id, r := range f.refresh {
		if r.ExpiresAt.Before(now) {
			delete(f.refresh, id)
		}
	}
	return nil
}

func (f *fakeTokenRepo) refreshCountFor(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.refresh {
		if r.UserID == userID {
			n++
		}
	}
	return n
}

type fakeSender struct {
	mu         sync.Mutex
	lastTo     string
	lastCode   string
	lastURL    string
	noticeSent int
	codeErr    error
	resetErr   error
	noticeErr  error
	codesSent  int
	resetsSent int
}

func (f *fakeSender) SendVerificationCode(_ context.Context, toEmail string, code string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.codeErr != nil {
		return f.codeErr
	}
	f.lastTo = toEmail
	f.lastCode = code
	f.codesSent++
	return nil
}

func (f *fakeSender) SendPasswordResetLink(_ context.Context, toEmail string, resetURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resetErr != nil {
		return f.resetErr
	}
	f.lastTo = toEmail
	f.lastURL = resetURL
	f.resetsSent++
	return nil
}

func (f *fakeSender) SendPasswordChangedNotice(_ context.Context, toEmail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.noticeErr != nil {
		return f.noticeErr
	}
	f.lastTo = toEmail
	f.noticeSent++
	return nil
}

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(string) bool { return true }

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }
