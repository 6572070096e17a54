package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-bytes-long"

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCodec(t *testing.T, clock *fakeClock) *Codec {
	t.Helper()
	c, err := New(Config{
		Secret:     testSecret,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Now:        clock.Now,
	})
	require.NoError(t, err)
	return c
}

func TestNew_RejectsWeakSecret(t *testing.T) {
	weak := []string{
		"",
		"short",
		strings.Repeat("x", MinSecretBytes-1),
		strings.Repeat("a", MinSecretBytes),
		strings.Repeat("a", 4*MinSecretBytes),
	}
	for _, secret := range weak {
		_, err := New(Config{Secret: secret, AccessTTL: time.Minute, RefreshTTL: time.Hour})
		require.ErrorIs(t, err, ErrWeakSecret, "%q", secret)
	}

	_, err := New(Config{Secret: strings.Repeat("xy", MinSecretBytes/2), AccessTTL: time.Minute, RefreshTTL: time.Hour})
	require.NoError(t, err)
}

func TestNew_RejectsNonPositiveTTL(t *testing.T) {
	_, err := New(Config{Secret: testSecret, AccessTTL: 0, RefreshTTL: time.Hour})
	require.Error(t, err)
}

func TestCodec_AccessRoundtrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	raw, err := c.IssueAccess("ana", "3f2d7a2e-0000-0000-0000-000000000001", "user")
	require.NoError(t, err)

	claims, err := c.ParseClaims(raw)
	require.NoError(t, err)
	assert.Equal(t, "ana", claims.Subject)
	assert.Equal(t, "3f2d7a2e-0000-0000-0000-000000000001", claims.UserID)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, KindAccess, claims.Kind)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, clock.t.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, clock.t.Add(15*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestCodec_RefreshRoundtrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	raw, err := c.IssueRefresh("ana", "user-1")
	require.NoError(t, err)

	kind, err := c.ExtractKind(raw)
	require.NoError(t, err)
	assert.Equal(t, KindRefresh, kind)

	subject, err := c.ExtractSubject(raw)
	require.NoError(t, err)
	assert.Equal(t, "ana", subject)

	claims, err := c.ParseClaims(raw)
	require.NoError(t, err)
	assert.Empty(t, claims.Role)
	assert.Equal(t, clock.t.Add(7*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestCodec_TokensIssuedInSameSecondDiffer(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	first, err := c.IssueRefresh("ana", "user-1")
	require.NoError(t, err)
	second, err := c.IssueRefresh("ana", "user-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCodec_Expired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	raw, err := c.IssueAccess("ana", "user-1", "user")
	require.NoError(t, err)

	clock.Advance(15*time.Minute + time.Second)

	_, err = c.ParseClaims(raw)
	require.ErrorIs(t, err, ErrExpired)

	_, err = c.ExtractSubject(raw)
	require.ErrorIs(t, err, ErrExpired)
}

func TestCodec_BadSignature(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	other, err := New(Config{
		Secret:     strings.Repeat("z9", MinSecretBytes/2),
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		Now:        clock.Now,
	})
	require.NoError(t, err)

	foreign, err := other.IssueAccess("ana", "user-1", "admin")
	require.NoError(t, err)
	_, err = c.ParseClaims(foreign)
	require.ErrorIs(t, err, ErrBadSignature)

	// Payload swapped under an otherwise valid signature.
	ours, err := c.IssueAccess("ana", "user-1", "user")
	require.NoError(t, err)
	forged, err := c.IssueAccess("mallory", "user-2", "admin")
	require.NoError(t, err)
	oursParts := strings.Split(ours, ".")
	forgedParts := strings.Split(forged, ".")
	spliced := oursParts[0] + "." + forgedParts[1] + "." + oursParts[2]
	_, err = c.ParseClaims(spliced)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestCodec_SignatureCheckedBeforeExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)
	other, err := New(Config{
		Secret:     strings.Repeat("z9", MinSecretBytes/2),
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		Now:        clock.Now,
	})
	require.NoError(t, err)

	foreign, err := other.IssueAccess("ana", "user-1", "user")
	require.NoError(t, err)
	clock.Advance(time.Hour)

	_, err = c.ParseClaims(foreign)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestCodec_RejectsOtherAlgorithms(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ana",
			IssuedAt:  jwt.NewNumericDate(clock.t),
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
		Kind: KindAccess,
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = c.ParseClaims(unsigned)
	require.ErrorIs(t, err, ErrBadSignature)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = c.ParseClaims(hs512)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestCodec_Malformed(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	for _, raw := range []string{"", "not-a-token", "a.b.c", "a.b"} {
		_, err := c.ParseClaims(raw)
		require.ErrorIs(t, err, ErrMalformed, "input %q", raw)
	}
}

func TestCodec_MissingExpiryIsMalformed(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "ana"},
		Kind:             KindAccess,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = c.ParseClaims(raw)
	require.ErrorIs(t, err, ErrMalformed)
}
