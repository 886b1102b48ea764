package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ChallengeMethodS256 is the only challenge method produced here.
const ChallengeMethodS256 = "S256"

const (
	verifierBytes = 32
	nonceBytes    = 16
)

// ErrRandomUnavailable is returned when the random source fails. There is
// no fallback value.
var ErrRandomUnavailable = errors.New("pkce: random source unavailable")

// Params are the PKCE values for one authorization request.
type Params struct {
	CodeVerifier        string `json:"codeVerifier"`
	CodeChallenge       string `json:"codeChallenge"`
	CodeChallengeMethod string `json:"codeChallengeMethod"`
}

// GenerateCodeVerifier returns 32 random bytes, base64url without padding.
func GenerateCodeVerifier() (string, error) { return randomString(rand.Reader, verifierBytes) }

// GenerateNonce returns 16 random bytes, base64url without padding.
func GenerateNonce() (string, error) { return randomString(rand.Reader, nonceBytes) }

// GenerateCodeChallenge returns the S256 challenge for verifier.
func GenerateCodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GeneratePKCEParams returns a fresh verifier and its challenge.
func GeneratePKCEParams() (Params, error) { return generateParams(rand.Reader) }

func generateParams(r io.Reader) (Params, error) {
	verifier, err := randomString(r, verifierBytes)
	if err != nil {
		return Params{}, err
	}
	return Params{
		CodeVerifier:        verifier,
		CodeChallenge:       GenerateCodeChallenge(verifier),
		CodeChallengeMethod: ChallengeMethodS256,
	}, nil
}

func randomString(r io.Reader, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRandomUnavailable, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
