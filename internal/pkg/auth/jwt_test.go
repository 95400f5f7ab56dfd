package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(now time.Time) *JWTService {
	s := NewJWTService(JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "scholarhub-test",
	})
	s.now = func() time.Time { return now }
	return s
}

func TestGenerateAndValidate(t *testing.T) {
	issued := time.Now()
	s := newTestService(issued)

	pair, err := s.GenerateTokenPair(Subject{UserID: 42, Email: "ada@uni.edu", Role: "committee"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, 900, pair.ExpiresIn)
	assert.Equal(t, issued.Add(24*time.Hour), pair.RefreshExpiresAt)

	claims, err := s.ValidateAndExtractClaims(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "committee", claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestValidate_Expired(t *testing.T) {
	issued := time.Now()
	s := newTestService(issued)
	pair, err := s.GenerateTokenPair(Subject{UserID: 1, Email: "a@b.c", Role: "student"})
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(time.Hour) }
	_, err = s.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidate_WrongSecretOrIssuer(t *testing.T) {
	now := time.Now()
	pair, err := newTestService(now).GenerateTokenPair(Subject{UserID: 1, Email: "a@b.c", Role: "student"})
	require.NoError(t, err)

	other := newTestService(now)
	other.config.SecretKey = "different"
	_, err = other.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	otherIssuer := newTestService(now)
	otherIssuer.config.TokenIssuer = "someone-else"
	_, err = otherIssuer.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	tok, err := ExtractBearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = ExtractBearerToken("bearer xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	tok, err = ExtractBearerToken("raw-token")
	require.NoError(t, err)
	assert.Equal(t, "raw-token", tok)

	_, err = ExtractBearerToken("  ")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))

	a, err := GenerateOpaqueToken()
	require.NoError(t, err)
	b, _ := GenerateOpaqueToken()
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
