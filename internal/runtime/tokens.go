package runtime

import "unicode/utf8"

// EstimateTokens approximates the token count of text using the usual
// four-characters-per-token rule of thumb. Used when the backend reports no
// usage data.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	tokens := n / 4
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}
