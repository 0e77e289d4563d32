package mediagate

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Purpose is the authorization intent encoded in an access token.
type Purpose string

const (
	PurposeMediaAccess Purpose = "media-access"
	PurposePublicShare Purpose = "public-share"
)

// maxExpSeconds bounds exp so that it fits time.Time.
const maxExpSeconds = 1 << 40

// minTokenLength rejects obviously malformed tokens before any decoding.
const minTokenLength = 10

// Claims is the decoded payload of an accepted access token.
// The set of implementations is closed: MediaAccessClaims and PublicShareClaims.
type Claims interface {
	Purpose() Purpose
	// Expiry returns the exp claim and whether one was present.
	Expiry() (time.Time, bool)
	claims()
}

// MediaAccessClaims authorize an authenticated user to read media.
type MediaAccessClaims struct {
	Subject   string
	ExpiresAt *time.Time
}

func (MediaAccessClaims) Purpose() Purpose { return PurposeMediaAccess }

func (c MediaAccessClaims) Expiry() (time.Time, bool) { return expiry(c.ExpiresAt) }

func (MediaAccessClaims) claims() {}

// PublicShareClaims authorize anonymous access through a public share link.
// They only exist for payloads carrying isPublic == true.
type PublicShareClaims struct {
	Subject   string
	ExpiresAt *time.Time
}

func (PublicShareClaims) Purpose() Purpose { return PurposePublicShare }

func (c PublicShareClaims) Expiry() (time.Time, bool) { return expiry(c.ExpiresAt) }

func (PublicShareClaims) claims() {}

func expiry(t *time.Time) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}

// TokenVerifier validates compact HMAC-SHA256 signed access tokens
// ("header.payload.signature", base64url segments).
//
// A verifier is immutable and safe for concurrent use.
type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

// VerifierOption configures a TokenVerifier.
type VerifierOption func(*TokenVerifier)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *TokenVerifier) {
		v.now = now
	}
}

// NewTokenVerifier creates a verifier for tokens signed with secret.
// An empty secret yields a verifier that rejects everything.
func NewTokenVerifier(secret string, opts ...VerifierOption) *TokenVerifier {
	v := &TokenVerifier{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Configured reports whether a signing secret is set.
func (v *TokenVerifier) Configured() bool {
	return len(v.secret) > 0
}

// Valid reports whether token is accepted.
func (v *TokenVerifier) Valid(token string) bool {
	_, err := v.Verify(token)
	return err == nil
}

// VerifyToken reports whether token is a valid access token signed with
// secret, evaluated at the current time.
func VerifyToken(token, secret string) bool {
	return NewTokenVerifier(secret).Valid(token)
}

// Verify checks the token and returns its claims.
//
// The checks run in this order and stop at the first failure:
//  1. a secret is configured
//  2. the token has at least 10 characters and exactly 3 segments
//  3. all segments are valid base64url
//  4. the signature matches HMAC-SHA256(secret, "header.payload")
//  5. the payload is JSON
//  6. exp, when present, is not in the past
//  7. purpose is media-access, or public-share with isPublic == true
//
// Every error wraps ErrUnauthorized. Callers must not expose the message.
func (v *TokenVerifier) Verify(token string) (Claims, error) {
	if !v.Configured() {
		return nil, ErrNoSecret
	}

	if len(token) < minTokenLength {
		return nil, fmt.Errorf("token too short: %w", ErrUnauthorized)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("token must have 3 segments, got %d: %w", len(parts), ErrUnauthorized)
	}

	headerB64, payloadB64, signatureB64 := parts[0], parts[1], parts[2]

	if _, err := decodeSegment(headerB64); err != nil {
		return nil, fmt.Errorf("decode header: %w", ErrUnauthorized)
	}

	payload, err := decodeSegment(payloadB64)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", ErrUnauthorized)
	}

	signature, err := decodeSegment(signatureB64)
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", ErrUnauthorized)
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(headerB64 + "." + payloadB64))
	if !hmac.Equal(mac.Sum(nil), signature) {
		return nil, fmt.Errorf("signature mismatch: %w", ErrUnauthorized)
	}

	return v.checkClaims(payload)
}

// rawClaims mirrors the payload JSON. IsPublic stays raw so that only the
// literal JSON true is accepted.
type rawClaims struct {
	Purpose  Purpose         `json:"purpose"`
	Subject  string          `json:"sub"`
	Exp      *json.Number    `json:"exp"`
	IsPublic json.RawMessage `json:"isPublic"`
}

func (v *TokenVerifier) checkClaims(payload []byte) (Claims, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var raw rawClaims
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse payload: %w", ErrUnauthorized)
	}

	expiresAt, err := parseExp(raw.Exp)
	if err != nil {
		return nil, err
	}
	if expiresAt != nil && v.now().After(*expiresAt) {
		return nil, fmt.Errorf("token expired at %s: %w", expiresAt.UTC().Format(time.RFC3339), ErrUnauthorized)
	}

	switch raw.Purpose {
	case PurposeMediaAccess:
		return MediaAccessClaims{Subject: raw.Subject, ExpiresAt: expiresAt}, nil
	case PurposePublicShare:
		if !bytes.Equal(bytes.TrimSpace(raw.IsPublic), []byte("true")) {
			return nil, fmt.Errorf("public-share token without isPublic: %w", ErrUnauthorized)
		}
		return PublicShareClaims{Subject: raw.Subject, ExpiresAt: expiresAt}, nil
	default:
		return nil, fmt.Errorf("invalid purpose %q: %w", raw.Purpose, ErrUnauthorized)
	}
}

// parseExp converts the exp claim, in seconds since the epoch, keeping
// fractional seconds. A missing exp means no expiry.
func parseExp(n *json.Number) (*time.Time, error) {
	if n == nil {
		return nil, nil
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("invalid exp claim: %w", ErrUnauthorized)
	}
	f = math.Max(math.Min(f, maxExpSeconds), -maxExpSeconds)
	sec, frac := math.Modf(f)
	t := time.Unix(int64(sec), int64(frac*1e9))
	return &t, nil
}

// decodeSegment decodes a base64url segment, tolerating missing or present
// '=' padding.
func decodeSegment(s string) ([]byte, error) {
	s = strings.NewReplacer("-", "+", "_", "/").Replace(s)
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return base64.StdEncoding.DecodeString(s)
}
