// Package captcha assembles the proof-of-interaction payload that gates
// registration, login and other risk-sensitive operations. The server issues
// a five-field challenge bundle; the client solves the displayed puzzle and
// submits the bundle plus the solved position under fixed field names.
package captcha

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/sjson"
)

// hintMask deobfuscates the Hint byte.
const hintMask = 0x5A

var (
	// ErrMissingChallenge is returned when an operation requires a challenge
	// and none was provided.
	ErrMissingChallenge = errors.New("captcha: challenge required")
	// ErrPartialChallenge is returned when some but not all server-issued
	// fields are present. A partial bundle is a contract violation and must
	// never be sent.
	ErrPartialChallenge = errors.New("captcha: partial challenge bundle")
)

// Challenge is the server-issued bundle from GET /captcha. Hint is a
// client-side rendering aid and is never echoed back.
type Challenge struct {
	Challenge string `json:"challenge"`
	Puzzle    string `json:"puzzle"`
	Cipher    string `json:"cipher"`
	Nonce     string `json:"nonce"`
	Proof     string `json:"proof"`
	Hint      string `json:"hint,omitempty"`
}

// Validate checks the all-or-nothing invariant: either every server field is
// present or the bundle is unusable.
func (c *Challenge) Validate() error {
	fields := []string{c.Challenge, c.Puzzle, c.Cipher, c.Nonce, c.Proof}
	present := 0
	for _, f := range fields {
		if f != "" {
			present++
		}
	}
	switch present {
	case len(fields):
		return nil
	case 0:
		return ErrMissingChallenge
	default:
		return ErrPartialChallenge
	}
}

// HintPosition decodes the optional hint into the target position: a single
// base64 byte XOR-masked by the server. Headless clients use it in place of
// a rendered slider.
func (c *Challenge) HintPosition() (float64, bool) {
	if c.Hint == "" {
		return 0, false
	}
	raw, err := base64.StdEncoding.DecodeString(c.Hint)
	if err != nil || len(raw) != 1 {
		return 0, false
	}
	return float64(raw[0] ^ hintMask), true
}

// Solution pairs a challenge with the user's positional answer, the x
// coordinate at which the slider puzzle was released.
type Solution struct {
	Challenge *Challenge
	Position  float64
}

// Apply decorates a JSON request body with the six captcha fields. The body
// must already be valid JSON (an empty body is treated as {}). A nil
// solution returns the body unchanged, preserving the challenge-less login
// path; whether the server accepts it is a server-side policy.
func (s *Solution) Apply(body []byte) ([]byte, error) {
	if s == nil {
		return body, nil
	}
	if s.Challenge == nil {
		return nil, ErrMissingChallenge
	}
	if err := s.Challenge.Validate(); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("captcha: request body is not valid JSON")
	}
	var err error
	for _, field := range []struct {
		key   string
		value interface{}
	}{
		{"captcha_challenge", s.Challenge.Challenge},
		{"captcha_puzzle", s.Challenge.Puzzle},
		{"captcha_cipher", s.Challenge.Cipher},
		{"captcha_nonce", s.Challenge.Nonce},
		{"captcha_proof", s.Challenge.Proof},
		{"captcha_position", s.Position},
	} {
		body, err = sjson.SetBytes(body, field.key, field.value)
		if err != nil {
			return nil, fmt.Errorf("captcha: set %s failed: %w", field.key, err)
		}
	}
	return body, nil
}
