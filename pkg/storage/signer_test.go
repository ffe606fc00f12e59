package storage

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLShape(t *testing.T) {
	s, err := NewHMACSigner("http://files.local/files", "secret", time.Hour)
	require.NoError(t, err)

	signed, err := s.SignedURL("photos/abc.jpg")
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "/files/photos/abc.jpg", u.Path)
	assert.NotEmpty(t, u.Query().Get("sig"))
	assert.NotEmpty(t, u.Query().Get("expires"))
}

func TestSignedURLRoundTripsThroughVerify(t *testing.T) {
	s, err := NewHMACSigner("http://files.local", "secret", time.Hour)
	require.NoError(t, err)

	signed, err := s.SignedURL("photos/abc.jpg")
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	require.NoError(t, err)

	assert.True(t, s.Verify("photos/abc.jpg", expires, u.Query().Get("sig")))
	assert.False(t, s.Verify("photos/other.jpg", expires, u.Query().Get("sig")))
	assert.False(t, s.Verify("photos/abc.jpg", expires, "forged"))
}

func TestSignedURLExpiry(t *testing.T) {
	s, err := NewHMACSigner("http://files.local", "secret", time.Hour)
	require.NoError(t, err)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	signed, err := s.SignedURL("photos/abc.jpg")
	require.NoError(t, err)

	u, _ := url.Parse(signed)
	expires, _ := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	assert.Equal(t, base.Add(time.Hour).Unix(), expires)

	// Still valid just before expiry, rejected after.
	s.now = func() time.Time { return base.Add(59 * time.Minute) }
	assert.True(t, s.Verify("photos/abc.jpg", expires, u.Query().Get("sig")))

	s.now = func() time.Time { return base.Add(61 * time.Minute) }
	assert.False(t, s.Verify("photos/abc.jpg", expires, u.Query().Get("sig")))
}

func TestNewHMACSignerRequiresKey(t *testing.T) {
	_, err := NewHMACSigner("http://files.local", "", time.Hour)
	require.Error(t, err)
}
