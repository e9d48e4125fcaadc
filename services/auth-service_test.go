package services_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"yoosprint/models"
	"yoosprint/services"
)

var codePattern = regexp.MustCompile(`<b>(\d{6})</b>`)

func mailedCode(t *testing.T, e *env) string {
	t.Helper()
	m := codePattern.FindStringSubmatch(e.mailer.Last().Body)
	require.Len(t, m, 2, "mail should carry a six digit code")
	return m[1]
}

func TestRegisterPolicy(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u := e.newUser(t, "Ana", " Ana@Example.com ")
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, models.RoleMember, u.Role)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "Secret#123", u.Password)

	_, err := e.auth.Register(ctx, services.RegisterRequest{Name: "Weak", Email: "weak@example.com", Password: "password"})
	assert.True(t, errors.Is(err, services.ErrValidation))

	_, err = e.auth.Register(ctx, services.RegisterRequest{Name: "Dup", Email: "ana@example.com", Password: "Secret#123"})
	assert.True(t, errors.Is(err, services.ErrConflict))

	blocked := services.NewAuthService(e.users, e.mailer, fakeTokens{}, map[string]bool{"Secret#123": true})
	_, err = blocked.Register(ctx, services.RegisterRequest{Name: "Bl", Email: "bl@example.com", Password: "Secret#123"})
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestLoginVerifyFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.newUser(t, "Ana", "ana@example.com")

	_, err := e.auth.Login(ctx, "ana@example.com", "wrong")
	assert.True(t, errors.Is(err, services.ErrUnauthorized))

	challenge, err := e.auth.Login(ctx, "ana@example.com", "Secret#123")
	require.NoError(t, err)
	assert.Equal(t, 60, challenge.ExpiresIn)
	assert.Equal(t, 30, challenge.ResendIn)
	code := mailedCode(t, e)

	_, err = e.auth.Verify(ctx, "ana@example.com", "000000x")
	assert.True(t, errors.Is(err, services.ErrUnauthorized))

	e.clock.Advance(59 * time.Second)
	session, err := e.auth.Verify(ctx, "ana@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, "token:"+u.ID.Hex()+":member", session.Token)
	assert.Equal(t, e.clock.Now().Add(time.Hour), session.ExpiresAt)

	_, err = e.auth.Verify(ctx, "ana@example.com", code)
	assert.Error(t, err, "codes are single use")

	me, err := e.auth.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, me.VerificationCode)
}

func TestVerificationCodeExpires(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.newUser(t, "Ana", "ana@example.com")

	_, err := e.auth.Login(ctx, "ana@example.com", "Secret#123")
	require.NoError(t, err)
	code := mailedCode(t, e)

	e.clock.Advance(60 * time.Second)
	_, err = e.auth.Verify(ctx, "ana@example.com", code)
	assert.True(t, errors.Is(err, services.ErrExpired))

	e.clock.Advance(-30 * time.Second)
	_, err = e.auth.Verify(ctx, "ana@example.com", code)
	assert.True(t, errors.Is(err, services.ErrExpired), "an expired code stays unusable")
}

func TestWrongCodesBurnTheCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.newUser(t, "Ana", "ana@example.com")

	_, err := e.auth.Login(ctx, "ana@example.com", "Secret#123")
	require.NoError(t, err)
	code := mailedCode(t, e)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 1; i < services.MaxCodeAttempts; i++ {
		_, err = e.auth.Verify(ctx, "ana@example.com", wrong)
		require.True(t, errors.Is(err, services.ErrUnauthorized), "attempt %d: %v", i, err)
	}
	_, err = e.auth.Verify(ctx, "ana@example.com", wrong)
	assert.True(t, errors.Is(err, services.ErrTooManyRequests))

	_, err = e.auth.Verify(ctx, "ana@example.com", code)
	assert.Error(t, err, "the right code no longer works")

	_, err = e.auth.Login(ctx, "ana@example.com", "Secret#123")
	require.NoError(t, err)
	_, err = e.auth.Verify(ctx, "ana@example.com", mailedCode(t, e))
	assert.NoError(t, err)
}

func TestResendCooldown(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.newUser(t, "Ana", "ana@example.com")

	_, err := e.auth.ResendCode(ctx, "ana@example.com")
	assert.True(t, errors.Is(err, services.ErrUnauthorized), "no pending login")

	_, err = e.auth.Login(ctx, "ana@example.com", "Secret#123")
	require.NoError(t, err)
	first := mailedCode(t, e)

	e.clock.Advance(10 * time.Second)
	_, err = e.auth.ResendCode(ctx, "ana@example.com")
	require.True(t, errors.Is(err, services.ErrTooManyRequests))
	var cooldown *services.CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Equal(t, 20*time.Second, cooldown.Remaining)

	e.clock.Advance(20 * time.Second)
	challenge, err := e.auth.ResendCode(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, 60, challenge.ExpiresIn)
	second := mailedCode(t, e)

	e.clock.Advance(45 * time.Second)
	if first != second {
		_, err = e.auth.Verify(ctx, "ana@example.com", first)
		assert.True(t, errors.Is(err, services.ErrUnauthorized), "old code is replaced")
	}
	_, err = e.auth.Verify(ctx, "ana@example.com", second)
	assert.NoError(t, err, "fresh window counts from the resend")
}

func TestLoginMailFailure(t *testing.T) {
	e := newEnv(t)
	e.newUser(t, "Ana", "ana@example.com")
	e.mailer.err = errors.New("smtp down")

	_, err := e.auth.Login(context.Background(), "ana@example.com", "Secret#123")
	assert.True(t, errors.Is(err, services.ErrUnavailable))
}

func TestSweeperClearsExpiredCodes(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := newEnv(t)
	ctx := context.Background()
	u := e.newUser(t, "Ana", "ana@example.com")
	_, err := e.auth.Login(ctx, "ana@example.com", "Secret#123")
	require.NoError(t, err)
	e.clock.Advance(2 * time.Minute)

	sweepCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		e.auth.RunSweeper(sweepCtx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		got, err := e.users.FindByID(ctx, u.ID)
		return err == nil && got.VerificationCode == ""
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	_, err = e.auth.Verify(ctx, "ana@example.com", "123456")
	assert.True(t, errors.Is(err, services.ErrExpired))
}
