package invites

import (
	"strings"
	"testing"
)

func TestRandomCodeLength(t *testing.T) {
	for _, n := range []int{4, 6, 8, 12, 20} {
		code := randomCode(n)
		if len(code) != n {
			t.Errorf("randomCode(%d) length = %d, want %d", n, len(code), n)
		}
	}
}

func TestRandomCodeAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := randomCode(8)
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
		for _, bad := range "0O1Ilo" {
			if strings.ContainsRune(code, bad) {
				t.Fatalf("code %q contains ambiguous character %q", code, bad)
			}
		}
	}
}

func TestRandomCodeUniformPositions(t *testing.T) {
	// Every output position must draw from the whole alphabet. A generator
	// leaking the fixed uuid version nibble pins one position per uuid to
	// the first half of the alphabet.
	const length = 14
	const rounds = 500
	upperHalf := codeAlphabet[len(codeAlphabet)/2:]

	sawUpper := make([]bool, length)
	for i := 0; i < rounds; i++ {
		code := randomCode(length)
		for pos, c := range code {
			if strings.ContainsRune(upperHalf, c) {
				sawUpper[pos] = true
			}
		}
	}
	for pos, ok := range sawUpper {
		if !ok {
			t.Errorf("position %d never drew from the upper half of the alphabet in %d codes", pos, rounds)
		}
	}
}

func TestRandomCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[randomCode(8)] = true
	}
	if len(seen) < 45 {
		t.Errorf("expected near-unique codes, got %d distinct of 50", len(seen))
	}
}
