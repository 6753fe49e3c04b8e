package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-bytes-long!!"

func newTestCodec() *Codec {
	return NewCodec(testSecret, time.Hour, 7*24*time.Hour)
}

func TestIssueAccess_RoundTrip(t *testing.T) {
	codec := newTestCodec()

	token, err := codec.IssueAccess("jane@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := codec.ExtractSubject(token)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", subject)

	assert.NoError(t, codec.Validate(token, "jane@example.com"))
}

func TestIssueRefresh_RoundTrip(t *testing.T) {
	codec := newTestCodec()

	token, err := codec.IssueRefresh("jane@example.com")
	require.NoError(t, err)

	subject, err := codec.ExtractSubject(token)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", subject)
	assert.NoError(t, codec.Validate(token, "jane@example.com"))
}

func TestIssue_TokensAreUnique(t *testing.T) {
	codec := newTestCodec()

	first, err := codec.IssueAccess("jane@example.com")
	require.NoError(t, err)
	second, err := codec.IssueAccess("jane@example.com")
	require.NoError(t, err)

	// Distinct jti per token even within the same second.
	assert.NotEqual(t, first, second)
}

func TestExtractSubject_ExpiredToken_StillExtracts(t *testing.T) {
	issued := time.Now().Add(-48 * time.Hour)
	codec := NewCodec(testSecret, time.Hour, 7*24*time.Hour).
		WithClock(func() time.Time { return issued })

	token, err := codec.IssueAccess("expired@example.com")
	require.NoError(t, err)

	// Back to the real clock: the token is long expired.
	codec.WithClock(time.Now)
	require.Error(t, codec.Validate(token, "expired@example.com"))

	subject, err := codec.ExtractSubject(token)
	require.NoError(t, err)
	assert.Equal(t, "expired@example.com", subject)
}

func TestExtractSubject_TamperedSignature_Fails(t *testing.T) {
	codec := newTestCodec()

	token, err := codec.IssueAccess("jane@example.com")
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = codec.ExtractSubject(tampered)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractSubject_WrongSecret_Fails(t *testing.T) {
	token, err := newTestCodec().IssueAccess("jane@example.com")
	require.NoError(t, err)

	other := NewCodec("completely-different-secret-value!!!", time.Hour, time.Hour)
	_, err = other.ExtractSubject(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractSubject_Malformed(t *testing.T) {
	codec := newTestCodec()
	for _, tok := range []string{"", "garbage", "a.b", "a.b.c"} {
		_, err := codec.ExtractSubject(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestValidate_Expired(t *testing.T) {
	issued := time.Now()
	codec := NewCodec(testSecret, time.Hour, 7*24*time.Hour).
		WithClock(func() time.Time { return issued })

	token, err := codec.IssueAccess("jane@example.com")
	require.NoError(t, err)

	// One second before expiry the token is still good.
	codec.WithClock(func() time.Time { return issued.Add(time.Hour - time.Second) })
	assert.NoError(t, codec.Validate(token, "jane@example.com"))

	// Past expiry it is rejected.
	codec.WithClock(func() time.Time { return issued.Add(time.Hour + time.Second) })
	err = codec.Validate(token, "jane@example.com")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_SubjectMismatch(t *testing.T) {
	codec := newTestCodec()

	token, err := codec.IssueAccess("jane@example.com")
	require.NoError(t, err)

	err = codec.Validate(token, "someone.else@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.True(t, strings.Contains(err.Error(), "subject mismatch"))
}

func TestAccessTTL(t *testing.T) {
	codec := NewCodec(testSecret, 42*time.Minute, time.Hour)
	assert.Equal(t, 42*time.Minute, codec.AccessTTL())
}
