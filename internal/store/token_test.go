package store

import (
	"strings"
	"testing"
)

func TestRandomToken_Format(t *testing.T) {
	tok := RandomToken("telegram")

	if !strings.HasPrefix(tok, "telegram") {
		t.Errorf("token %q should start with provider name", tok)
	}
	suffix := strings.TrimPrefix(tok, "telegram")
	if len(suffix) != 36 {
		t.Errorf("token suffix length = %d, want 36", len(suffix))
	}
	for _, c := range suffix {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("token suffix contains non-hex character %q", c)
		}
	}
}

func TestRandomToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		tok := RandomToken("whatsapp")
		if seen[tok] {
			t.Fatalf("duplicate token generated: %s", tok)
		}
		seen[tok] = true
	}
}

func TestRandomBetaCode_Format(t *testing.T) {
	code := RandomBetaCode()
	if len(code) != 10 {
		t.Errorf("code length = %d, want 10", len(code))
	}
}
