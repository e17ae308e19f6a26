package ollama

import "strings"

// cleanText collapses runs of whitespace to single spaces and trims the
// result. Embedding models behave poorly on raw control characters.
func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
