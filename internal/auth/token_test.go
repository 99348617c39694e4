package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	clock := newClock()
	issuer := NewTokenIssuer("super-secret").WithClock(clock.Now)

	tok, exp, err := issuer.Sign("user-1", "a@b.com", AudienceAccess, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Hour), exp)

	claims, err := issuer.Verify(tok, AudienceAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "a@b.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
}

func TestSignProducesDistinctTokens(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("k").WithClock(newClock().Now)

	t1, _, err := issuer.Sign("u1", "", AudiencePasswordReset, 15*time.Minute)
	require.NoError(t, err)
	t2, _, err := issuer.Sign("u1", "", AudiencePasswordReset, 15*time.Minute)
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	clock := newClock()
	issuer := NewTokenIssuer("k").WithClock(clock.Now)

	tok, _, err := issuer.Sign("u1", "", AudiencePasswordReset, 15*time.Minute)
	require.NoError(t, err)

	clock.Advance(14 * time.Minute)
	_, err = issuer.Verify(tok, AudiencePasswordReset)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = issuer.Verify(tok, AudiencePasswordReset)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	clock := newClock()
	tok, _, err := NewTokenIssuer("right").WithClock(clock.Now).Sign("u1", "", AudienceAccess, time.Hour)
	require.NoError(t, err)

	_, err = NewTokenIssuer("wrong").WithClock(clock.Now).Verify(tok, AudienceAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongAudience(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("k").WithClock(newClock().Now)
	tok, _, err := issuer.Sign("u1", "", AudienceAccess, time.Hour)
	require.NoError(t, err)

	_, err = issuer.Verify(tok, AudiencePasswordReset)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("k")
	for _, tok := range []string{"", "abc", "a.b.c", strings.Repeat("x", 40)} {
		_, err := issuer.Verify(tok, AudienceAccess)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	clock := newClock()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		Audience:  jwt.ClaimStrings{AudienceAccess},
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenIssuer("k").WithClock(clock.Now).Verify(tok, AudienceAccess)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
