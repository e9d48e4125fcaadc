package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/logging"
	"yoosprint/metrics"
	"yoosprint/models"
	"yoosprint/utils"
)

const (
	CodeTTL        = 60 * time.Second
	ResendCooldown = 30 * time.Second
	// MaxCodeAttempts wrong guesses burn the pending code.
	MaxCodeAttempts = 5
	// resendWindow bounds how long after a login a new code may be requested.
	resendWindow = 10 * time.Minute
)

type AuthService struct {
	users     UserStore
	mailer    Mailer
	tokens    TokenIssuer
	blackList map[string]bool
	now       func() time.Time
}

func NewAuthService(users UserStore, mailer Mailer, tokens TokenIssuer, blackList map[string]bool) *AuthService {
	return &AuthService{
		users:     users,
		mailer:    mailer,
		tokens:    tokens,
		blackList: blackList,
		now:       time.Now,
	}
}

func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department"`
}

// CodeChallenge tells the client how long the issued code stays valid and
// when a new one may be requested, both in seconds.
type CodeChallenge struct {
	Email     string `json:"email"`
	ExpiresIn int    `json:"expiresIn"`
	ResendIn  int    `json:"resendIn"`
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if err := utils.ValidatePassword(req.Password, s.blackList); err != nil {
		return nil, invalid("%s", err.Error())
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:       req.Name,
		Email:      req.Email,
		Password:   hash,
		Role:       models.RoleMember,
		Department: req.Department,
		IsActive:   true,
	}
	if err := saveUser(ctx, s.users, u, s.now()); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s registered", u.Email)
	return u, nil
}

// Login checks credentials and mails a verification code. The session is
// only issued by Verify.
func (s *AuthService) Login(ctx context.Context, email, password string) (*CodeChallenge, error) {
	u, err := s.users.FindByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(u.Password, password) {
		logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Wrong password for %s", u.Email)
		return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("account is deactivated: %w", ErrForbidden)
	}
	return s.issueCode(ctx, u)
}

// ResendCode issues a fresh code for a pending login once the cooldown has
// passed.
func (s *AuthService) ResendCode(ctx context.Context, email string) (*CodeChallenge, error) {
	u, err := s.users.FindByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("no pending login: %w", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	now := s.now()
	if u.CodeSentAt == nil || now.Sub(*u.CodeSentAt) > resendWindow {
		return nil, fmt.Errorf("no pending login: %w", ErrUnauthorized)
	}
	if wait := u.CodeSentAt.Add(ResendCooldown).Sub(now); wait > 0 {
		return nil, &CooldownError{Remaining: wait}
	}
	return s.issueCode(ctx, u)
}

func (s *AuthService) issueCode(ctx context.Context, u *models.User) (*CodeChallenge, error) {
	code, err := utils.GenerateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}
	now := s.now()
	expiry := now.Add(CodeTTL)
	u.VerificationCode = code
	u.VerificationExpiry = &expiry
	u.CodeAttempts = 0
	u.CodeSentAt = &now
	if err := saveUser(ctx, s.users, u, now); err != nil {
		return nil, err
	}

	body := fmt.Sprintf("<p>Your YooSprint verification code is <b>%s</b>.</p><p>It expires in %d seconds.</p>", code, int(CodeTTL/time.Second))
	if err := s.mailer.Send(u.Email, "Your verification code", body); err != nil {
		logging.Logger.Errorf("Event ID: VERIFICATION_EMAIL_FAILED, Description: Failed to mail code to %s: %v", u.Email, err)
		return nil, fmt.Errorf("could not deliver verification code: %w", ErrUnavailable)
	}
	metrics.VerificationCodesIssued.Inc()
	logging.Logger.Infof("Event ID: VERIFICATION_CODE_SENT, Description: Verification code sent to %s", u.Email)

	return &CodeChallenge{
		Email:     u.Email,
		ExpiresIn: int(CodeTTL / time.Second),
		ResendIn:  int(ResendCooldown / time.Second),
	}, nil
}

// Verify exchanges a valid code for a signed session token. An expired code
// is cleared so it can never be used.
func (s *AuthService) Verify(ctx context.Context, email, code string) (*Session, error) {
	u, err := s.users.FindByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("invalid verification code: %w", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	now := s.now()

	if u.VerificationCode == "" || u.VerificationExpiry == nil {
		if u.CodeSentAt != nil {
			return nil, fmt.Errorf("verification code has expired: %w", ErrExpired)
		}
		return nil, fmt.Errorf("invalid verification code: %w", ErrUnauthorized)
	}
	if !now.Before(*u.VerificationExpiry) {
		u.ClearVerification()
		if err := saveUser(ctx, s.users, u, now); err != nil {
			return nil, err
		}
		logging.Logger.Infof("Event ID: VERIFICATION_CODE_EXPIRED, Description: Expired code used for %s", u.Email)
		return nil, fmt.Errorf("verification code has expired: %w", ErrExpired)
	}
	if subtle.ConstantTimeCompare([]byte(u.VerificationCode), []byte(code)) != 1 {
		u.CodeAttempts++
		if u.CodeAttempts >= MaxCodeAttempts {
			u.ClearVerification()
			if err := saveUser(ctx, s.users, u, now); err != nil {
				return nil, err
			}
			logging.Logger.Warnf("Event ID: VERIFICATION_CODE_LOCKED, Description: Code for %s cleared after %d wrong attempts", u.Email, MaxCodeAttempts)
			return nil, fmt.Errorf("too many wrong codes, request a new one: %w", ErrTooManyRequests)
		}
		if err := saveUser(ctx, s.users, u, now); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("invalid verification code: %w", ErrUnauthorized)
	}

	u.ClearVerification()
	u.CodeSentAt = nil
	if err := saveUser(ctx, s.users, u, now); err != nil {
		return nil, err
	}
	token, err := s.tokens.GenerateToken(u.ID.Hex(), u.Email, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	logging.Logger.Infof("Event ID: LOGIN_SUCCESS, Description: User %s logged in", u.Email)
	return &Session{Token: token, ExpiresAt: now.Add(s.tokens.TTL()), User: u}, nil
}

func (s *AuthService) Me(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, wrapLookup(err, "user")
	}
	return u, nil
}

func (s *AuthService) SweepExpiredCodes(ctx context.Context) (int64, error) {
	n, err := s.users.ClearExpiredCodes(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired codes: %w", err)
	}
	if n > 0 {
		logging.Logger.Debugf("Event ID: VERIFICATION_SWEEP, Description: Cleared %d expired verification codes", n)
	}
	return n, nil
}

// RunSweeper clears expired codes every interval until ctx is done.
func (s *AuthService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepExpiredCodes(ctx); err != nil && ctx.Err() == nil {
				logging.Logger.Errorf("Event ID: VERIFICATION_SWEEP_FAILED, Description: %v", err)
			}
		}
	}
}
