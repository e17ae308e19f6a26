package assist

import (
	"strings"

	"github.com/crestdesk/crestdesk/core"
)

// Questions injected when the retrieved sources point at client-side
// causes the model tends not to ask about.
const (
	deviceTimeQuestion = "Is your device's date and time set correctly (ideally set to automatic)?"
	browserQuestion    = "Which browser are you using, and at what time did the issue occur?"
)

// normalizeQuestion canonicalizes a question for dedupe comparison:
// lowercase, login spellings unified, whitespace collapsed, trailing
// punctuation stripped.
func normalizeQuestion(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.ReplaceAll(q, "log in", "login")
	q = strings.ReplaceAll(q, "sign in", "signin")
	q = strings.Join(strings.Fields(q), " ")
	q = strings.TrimRight(q, ".?!")
	return q
}

// dedupeQuestions drops questions that normalize to the same text,
// keeping first occurrences in order.
func dedupeQuestions(questions []string) []string {
	seen := make(map[string]bool, len(questions))
	result := make([]string, 0, len(questions))
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		norm := normalizeQuestion(q)
		if seen[norm] {
			continue
		}
		seen[norm] = true
		result = append(result, q)
	}
	return result
}

// injectQuestions appends diagnostic questions warranted by the
// retrieved sources, unless the model already asked an equivalent one.
func injectQuestions(questions []string, hits []*core.Hit, filter topicFilter) []string {
	if !filter.login {
		return questions
	}

	var mentionsDeviceTime, mentionsBrowser, mentionsTimestamp bool
	for _, hit := range hits {
		content := strings.ToLower(hit.Content)
		if strings.Contains(content, "device time") {
			mentionsDeviceTime = true
		}
		if strings.Contains(content, "browser") {
			mentionsBrowser = true
		}
		if strings.Contains(content, "timestamp") {
			mentionsTimestamp = true
		}
	}

	asked := func(keyword string) bool {
		for _, q := range questions {
			if strings.Contains(normalizeQuestion(q), keyword) {
				return true
			}
		}
		return false
	}

	if mentionsDeviceTime && !asked("device time") && !asked("time") {
		questions = append(questions, deviceTimeQuestion)
	}
	if mentionsBrowser && mentionsTimestamp && !asked("browser") {
		questions = append(questions, browserQuestion)
	}
	return questions
}
