package captcha

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/tidwall/gjson"
)

func completeChallenge() *Challenge {
	return &Challenge{
		Challenge: "ch",
		Puzzle:    "pz",
		Cipher:    "ci",
		Nonce:     "no",
		Proof:     "pr",
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	if err := completeChallenge().Validate(); err != nil {
		t.Fatalf("Validate() complete bundle error = %v", err)
	}
	if err := (&Challenge{}).Validate(); !errors.Is(err, ErrMissingChallenge) {
		t.Fatalf("Validate() empty bundle error = %v, want ErrMissingChallenge", err)
	}
	partial := completeChallenge()
	partial.Proof = ""
	if err := partial.Validate(); !errors.Is(err, ErrPartialChallenge) {
		t.Fatalf("Validate() partial bundle error = %v, want ErrPartialChallenge", err)
	}
}

func TestApplySetsFixedFieldNames(t *testing.T) {
	t.Parallel()
	solution := &Solution{Challenge: completeChallenge(), Position: 142.5}
	body, err := solution.Apply([]byte(`{"username":"alice","password":"pw"}`))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !json.Valid(body) {
		t.Fatalf("Apply() produced invalid JSON: %s", body)
	}
	for field, want := range map[string]string{
		"username":          "alice",
		"captcha_challenge": "ch",
		"captcha_puzzle":    "pz",
		"captcha_cipher":    "ci",
		"captcha_nonce":     "no",
		"captcha_proof":     "pr",
	} {
		if got := gjson.GetBytes(body, field).String(); got != want {
			t.Fatalf("body field %s = %q, want %q", field, got, want)
		}
	}
	if got := gjson.GetBytes(body, "captcha_position").Float(); got != 142.5 {
		t.Fatalf("body field captcha_position = %v, want 142.5", got)
	}
}

func TestApplyNilSolutionLeavesBodyUnchanged(t *testing.T) {
	t.Parallel()
	var solution *Solution
	in := []byte(`{"username":"alice"}`)
	out, err := solution.Apply(in)
	if err != nil {
		t.Fatalf("Apply() on nil solution error = %v", err)
	}
	if string(out) != string(in) {
		t.Fatalf("Apply() on nil solution = %s, want unchanged %s", out, in)
	}
}

func TestApplyRejectsIncompleteBundle(t *testing.T) {
	t.Parallel()
	if _, err := (&Solution{Position: 10}).Apply([]byte(`{}`)); !errors.Is(err, ErrMissingChallenge) {
		t.Fatalf("Apply() without challenge error = %v, want ErrMissingChallenge", err)
	}
	partial := completeChallenge()
	partial.Nonce = ""
	if _, err := (&Solution{Challenge: partial, Position: 10}).Apply([]byte(`{}`)); !errors.Is(err, ErrPartialChallenge) {
		t.Fatalf("Apply() partial challenge error = %v, want ErrPartialChallenge", err)
	}
}

func TestApplyEmptyBody(t *testing.T) {
	t.Parallel()
	body, err := (&Solution{Challenge: completeChallenge(), Position: 1}).Apply(nil)
	if err != nil {
		t.Fatalf("Apply() on empty body error = %v", err)
	}
	if got := gjson.GetBytes(body, "captcha_challenge").String(); got != "ch" {
		t.Fatalf("captcha_challenge = %q, want %q", got, "ch")
	}
}

func TestHintPosition(t *testing.T) {
	t.Parallel()
	// 0x08 ^ 0x5A = 0x52 = 82; base64 of 0x08 is "CA==".
	c := completeChallenge()
	c.Hint = "CA=="
	position, ok := c.HintPosition()
	if !ok {
		t.Fatalf("HintPosition() ok = false, want true")
	}
	if position != 82 {
		t.Fatalf("HintPosition() = %v, want 82", position)
	}

	c.Hint = ""
	if _, ok = c.HintPosition(); ok {
		t.Fatalf("HintPosition() on empty hint ok = true, want false")
	}
	c.Hint = "not base64!"
	if _, ok = c.HintPosition(); ok {
		t.Fatalf("HintPosition() on bad hint ok = true, want false")
	}
}
