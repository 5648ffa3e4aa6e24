// Package proofs issues and checks time-limited URLs for proof objects
// kept in the household's file store.
package proofs

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

// Signer produces HMAC-signed URLs of the form
// {base}/{path}?expires={unix}&sig={hex}.
type Signer struct {
	baseURL string
	secret  []byte
	now     func() time.Time
}

func NewSigner(baseURL, secret string) *Signer {
	return &Signer{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
		now:     time.Now,
	}
}

func (s *Signer) sign(path string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%d", path, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignURL returns a URL for the object that stops working after ttl.
func (s *Signer) SignURL(path string, ttl time.Duration) string {
	path = strings.TrimLeft(path, "/")
	expires := s.now().Add(ttl).Unix()

	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", s.sign(path, expires))
	return s.baseURL + "/" + path + "?" + q.Encode()
}

// Verify checks a path/expires/sig triple as found in an incoming URL.
func (s *Signer) Verify(path string, expires int64, sig string) error {
	if s.now().Unix() > expires {
		return fmt.Errorf("url expired")
	}
	want := s.sign(strings.TrimLeft(path, "/"), expires)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}
