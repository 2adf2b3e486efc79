package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenInvalid = errors.New("invalid signed token")
	ErrTokenExpired = errors.New("signed token expired")
)

// Grant is the payload carried by a signed download token.
type Grant struct {
	Subject   string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner creates and validates HMAC signed download tokens.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign issues a token for subject and path valid for the signer TTL.
func (s *SignedURLSigner) Sign(subject, path string) (string, Grant, error) {
	if subject == "" || path == "" {
		return "", Grant{}, fmt.Errorf("subject and path required")
	}
	if len(s.secret) == 0 {
		return "", Grant{}, fmt.Errorf("signing secret missing")
	}
	grant := Grant{Subject: subject, Path: path, ExpiresAt: s.now().Add(s.ttl).Truncate(time.Second)}
	payload := encodeGrant(grant)
	return payload + "." + s.mac(payload), grant, nil
}

// Verify checks the signature and expiry of token.
func (s *SignedURLSigner) Verify(token string) (Grant, error) {
	idx := strings.LastIndexByte(token, '.')
	if idx <= 0 {
		return Grant{}, ErrTokenInvalid
	}
	payload, signature := token[:idx], token[idx+1:]
	if !hmac.Equal([]byte(s.mac(payload)), []byte(signature)) {
		return Grant{}, ErrTokenInvalid
	}
	grant, err := decodeGrant(payload)
	if err != nil {
		return Grant{}, ErrTokenInvalid
	}
	if s.now().After(grant.ExpiresAt) {
		return grant, ErrTokenExpired
	}
	return grant, nil
}

func (s *SignedURLSigner) mac(payload string) string {
	m := hmac.New(sha256.New, s.secret)
	_, _ = m.Write([]byte(payload))
	return hex.EncodeToString(m.Sum(nil))
}

func encodeGrant(g Grant) string {
	raw := strings.Join([]string{g.Subject, strconv.FormatInt(g.ExpiresAt.Unix(), 10), g.Path}, "\n")
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeGrant(payload string) (Grant, error) {
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Grant{}, err
	}
	parts := strings.SplitN(string(raw), "\n", 3)
	if len(parts) != 3 {
		return Grant{}, ErrTokenInvalid
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Grant{}, err
	}
	return Grant{Subject: parts[0], Path: parts[2], ExpiresAt: time.Unix(exp, 0)}, nil
}
