// Package storage provides signed, time-bounded read URLs for stored photo
// files. File upload and serving belong to the surrounding system; the
// pipeline only needs a URL a vision model can fetch for a short while.
package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ObjectStore produces readable URLs for stored object paths.
type ObjectStore interface {
	// SignedURL returns a time-bounded read URL for the object at path.
	SignedURL(path string) (string, error)
}

// HMACSigner signs object paths with an expiry, matching the verification
// done by the upstream file gateway.
type HMACSigner struct {
	baseURL string
	key     []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewHMACSigner creates a signer. ttl defaults to one hour.
func NewHMACSigner(baseURL, signingKey string, ttl time.Duration) (*HMACSigner, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("signing key is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &HMACSigner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		key:     []byte(signingKey),
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// SignedURL implements ObjectStore.
func (s *HMACSigner) SignedURL(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("object path is required")
	}
	path = "/" + strings.TrimPrefix(path, "/")

	expires := s.now().Add(s.ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", s.sign(path, expires))

	return s.baseURL + path + "?" + q.Encode(), nil
}

// Verify reports whether sig is valid for path and expires, and the URL has
// not expired. The file gateway calls this on every read.
func (s *HMACSigner) Verify(path string, expires int64, sig string) bool {
	if s.now().Unix() > expires {
		return false
	}
	path = "/" + strings.TrimPrefix(path, "/")
	return hmac.Equal([]byte(sig), []byte(s.sign(path, expires)))
}

func (s *HMACSigner) sign(path string, expires int64) string {
	mac := hmac.New(sha256.New, s.key)
	fmt.Fprintf(mac, "%s\n%d", path, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// Ensure HMACSigner implements ObjectStore at compile time.
var _ ObjectStore = (*HMACSigner)(nil)
