package telegram

import "strings"

// markdownV2SpecialChars lists all characters that must be escaped in
// Telegram MarkdownV2.
var markdownV2SpecialChars = strings.NewReplacer(
	`_`, `\_`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`(`, `\(`,
	`)`, `\)`,
	`~`, `\~`,
	"`", "\\`",
	`>`, `\>`,
	`#`, `\#`,
	`+`, `\+`,
	`-`, `\-`,
	`=`, `\=`,
	`|`, `\|`,
	`{`, `\{`,
	`}`, `\}`,
	`.`, `\.`,
	`!`, `\!`,
)

// EscapeMarkdownV2 escapes all special characters for Telegram
// MarkdownV2 format. Special chars: _ * [ ] ( ) ~ ` > # + - = | { } . !
func EscapeMarkdownV2(text string) string {
	return markdownV2SpecialChars.Replace(text)
}

// formatMarkdownV2 converts reply text to MarkdownV2: *bold* spans keep
// their asterisks with the inner text escaped, everything else is
// escaped. An asterisk without a closing partner is escaped literally.
func formatMarkdownV2(text string) string {
	var result strings.Builder
	runes := []rune(text)
	n := len(runes)
	i := 0

	for i < n {
		if runes[i] == '*' {
			end := findClosing(runes, i+1, '*')
			if end > 0 {
				inner := string(runes[i+1 : end])
				result.WriteByte('*')
				result.WriteString(EscapeMarkdownV2(inner))
				result.WriteByte('*')
				i = end + 1
				continue
			}
		}
		result.WriteString(EscapeMarkdownV2(string(runes[i])))
		i++
	}

	return result.String()
}

// findClosing finds the index of the closing delimiter starting from
// start. Returns -1 if not found.
func findClosing(runes []rune, start int, delim rune) int {
	for i := start; i < len(runes); i++ {
		if runes[i] == delim {
			return i
		}
	}
	return -1
}
