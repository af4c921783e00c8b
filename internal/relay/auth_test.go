package relay

import "testing"

func TestCheckToken(t *testing.T) {
	if !checkToken("secret", "secret") {
		t.Fatal("equal tokens should match")
	}
	if checkToken("secre", "secret") {
		t.Fatal("different-length tokens should never match")
	}
	if checkToken("wrong1", "secret") {
		t.Fatal("different tokens should not match")
	}
	if checkToken("", "secret") {
		t.Fatal("empty token should not match a non-empty one")
	}
}
