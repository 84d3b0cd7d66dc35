package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	at, err := NewAccessToken("s3cret", 42, "alice", 5)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(5*time.Minute), at.Exp, 5*time.Second)

	cl, err := ParseAccessToken("s3cret", at.Token)
	require.NoError(t, err)
	assert.Equal(t, Claims{UserID: 42, Username: "alice"}, cl)
}

func TestParseAccessTokenRejects(t *testing.T) {
	at, err := NewAccessToken("s3cret", 42, "alice", 5)
	require.NoError(t, err)

	_, err = ParseAccessToken("other", at.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken("s3cret", "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewAccessToken("s3cret", 42, "alice", -1)
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	raw, err := noSub.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenNumericSubject(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 7,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)
	cl, err := ParseAccessToken("k", raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), cl.UserID)
	assert.Empty(t, cl.Username)
}

func TestRefreshTokenAndHash(t *testing.T) {
	rt, err := NewRefreshToken(2)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	assert.Len(t, HashToken(rt.Raw), 64)
	assert.Equal(t, HashToken("x"), HashToken("x"))
	assert.NotEqual(t, HashToken("x"), HashToken("y"))
}

func TestOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		assert.True(t, ValidOTPFormat(code), code)
		assert.GreaterOrEqual(t, code, "100000")
	}
	assert.False(t, ValidOTPFormat("12345"))
	assert.False(t, ValidOTPFormat("12a456"))
	assert.False(t, ValidOTPFormat("1234567"))

	h := HashToken("123456")
	assert.True(t, MatchOTP(h, "123456"))
	assert.False(t, MatchOTP(h, "654321"))
	assert.False(t, MatchOTP("", "123456"))
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("pw", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "pw"))
	assert.False(t, VerifyPassword(h, "nope"))
}
