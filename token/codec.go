package token

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpiryBuffer is how long before its real expiry a token stops being usable.
const DefaultExpiryBuffer = 60 * time.Second

var (
	// ErrMalformed is returned when a token does not have three segments.
	ErrMalformed = errors.New("token: malformed")
	// ErrPayload is returned when the payload segment is not base64-encoded JSON.
	ErrPayload = errors.New("token: invalid payload")
)

// Codec decodes tokens against an injectable clock.
type Codec struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewCodec creates a Codec using the wall clock.
func NewCodec() *Codec {
	return &Codec{Now: time.Now}
}

var defaultCodec = NewCodec()

// segmentAlphabet maps the standard base64 alphabet onto the URL-safe one so
// both encodings decode through the same path.
var segmentAlphabet = strings.NewReplacer("+", "-", "/", "_")

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

func (c *Codec) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Decode reads the claims of tok without looking at its signature.
func (c *Codec) Decode(tok string) (*Claims, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}

	raw, err := segmentParser.DecodeSegment(segmentAlphabet.Replace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return nil, fmt.Errorf("%w: not a JSON object", ErrPayload)
	}

	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	return &claims, nil
}

// IsExpired reports whether tok is unusable with the default buffer.
func (c *Codec) IsExpired(tok string) bool {
	return c.IsExpiredWithin(tok, DefaultExpiryBuffer)
}

// IsExpiredWithin reports whether tok is undecodable, has no expiry, or
// expires before now+buffer. Comparison is at whole-second granularity.
func (c *Codec) IsExpiredWithin(tok string, buffer time.Duration) bool {
	claims, err := c.Decode(tok)
	if err != nil || !claims.hasExpiry() {
		return true
	}
	now := c.now().Unix()
	return claims.ExpiresAt.Unix() < now+int64(buffer/time.Second)
}

// ExpiresAt returns the expiry of tok. The second result is false when tok
// cannot be decoded or has no expiry.
func (c *Codec) ExpiresAt(tok string) (time.Time, bool) {
	claims, err := c.Decode(tok)
	if err != nil || !claims.hasExpiry() {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// ExpirationEpochMillis returns the expiry of tok in epoch milliseconds.
func (c *Codec) ExpirationEpochMillis(tok string) (int64, bool) {
	exp, ok := c.ExpiresAt(tok)
	if !ok {
		return 0, false
	}
	return exp.Unix() * 1000, true
}

// TimeUntilExpiry returns how long tok stays valid, never negative.
func (c *Codec) TimeUntilExpiry(tok string) time.Duration {
	return time.Duration(c.MillisUntilExpiry(tok)) * time.Millisecond
}

// MillisUntilExpiry returns the milliseconds until tok expires, floored at 0.
func (c *Codec) MillisUntilExpiry(tok string) int64 {
	exp, ok := c.ExpirationEpochMillis(tok)
	if !ok {
		return 0
	}
	return max(0, exp-c.now().UnixMilli())
}

// ExtractUser projects the identity carried by tok, or nil if it cannot be decoded.
func (c *Codec) ExtractUser(tok string) *User {
	claims, err := c.Decode(tok)
	if err != nil {
		return nil
	}
	id := claims.UserID
	if id == "" {
		id = claims.Subject
	}
	return &User{
		ID:       id,
		Email:    "",
		TenantID: claims.TenantID,
		Role:     claims.Role,
		Scopes:   claims.Scopes,
	}
}

// Decode reads the claims of tok using the wall clock codec.
func Decode(tok string) (*Claims, error) { return defaultCodec.Decode(tok) }

// IsExpired reports whether tok is unusable with the default buffer.
func IsExpired(tok string) bool { return defaultCodec.IsExpired(tok) }

// IsExpiredWithin reports whether tok expires before now+buffer.
func IsExpiredWithin(tok string, buffer time.Duration) bool {
	return defaultCodec.IsExpiredWithin(tok, buffer)
}

// ExpiresAt returns the expiry of tok.
func ExpiresAt(tok string) (time.Time, bool) { return defaultCodec.ExpiresAt(tok) }

// ExpirationEpochMillis returns the expiry of tok in epoch milliseconds.
func ExpirationEpochMillis(tok string) (int64, bool) { return defaultCodec.ExpirationEpochMillis(tok) }

// TimeUntilExpiry returns how long tok stays valid.
func TimeUntilExpiry(tok string) time.Duration { return defaultCodec.TimeUntilExpiry(tok) }

// MillisUntilExpiry returns the milliseconds until tok expires.
func MillisUntilExpiry(tok string) int64 { return defaultCodec.MillisUntilExpiry(tok) }

// ExtractUser projects the identity carried by tok.
func ExtractUser(tok string) *User { return defaultCodec.ExtractUser(tok) }
