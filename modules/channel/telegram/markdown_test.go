package telegram

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"punctuation", "Done! See notes.md", `Done\! See notes\.md`},
		{"all specials", "_*[]()~`>#+-=|{}.!", "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := EscapeMarkdownV2(tt.in); got != tt.want {
				t.Errorf("EscapeMarkdownV2(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatMarkdownV2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text escaped", "Saved. Check app!", `Saved\. Check app\!`},
		{"bold preserved", "*Welcome* to the service.", `*Welcome* to the service\.`},
		{"specials inside bold escaped", "*v1.2!*", `*v1\.2\!*`},
		{"unmatched asterisk escaped", "2 * 3 = 6", `2 \* 3 \= 6`},
		{"two bold spans", "*a* and *b*", `*a* and *b*`},
		{"newlines kept", "line one\nline two.", "line one\nline two\\."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatMarkdownV2(tt.in); got != tt.want {
				t.Errorf("formatMarkdownV2(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
