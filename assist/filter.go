package assist

import (
	"strings"

	"github.com/crestdesk/crestdesk/core"
)

// SimilarityThreshold is the minimum similarity for a hit to count as a
// strong match in the relevance cascade.
const SimilarityThreshold = 0.6

// Keyword sets classifying the query and scoring hit relevance. Matched
// case-insensitively as substrings.
var (
	loginQueryKeywords   = []string{"login", "log in", "signin", "sign in", "password", "reset", "otp", "token"}
	billingQueryKeywords = []string{"charged", "charge", "billing", "refund", "invoice", "payment"}

	loginHitKeywords   = []string{"login", "log in", "password", "reset", "token", "device time", "timestamp", "browser"}
	billingHitKeywords = []string{"charged", "charge", "billing", "refund", "invoice", "payment"}
)

// topicFilter carries the query classification through hit selection.
type topicFilter struct {
	login   bool
	billing bool
}

// classifyQuery detects whether the ticket is about login trouble,
// billing trouble, or both.
func classifyQuery(query string) topicFilter {
	q := strings.ToLower(query)
	return topicFilter{
		login:   containsAny(q, loginQueryKeywords),
		billing: containsAny(q, billingQueryKeywords),
	}
}

// relevant reports whether a hit's content matches the detected topic.
// With no topic detected, every hit is relevant. A login-only query also
// drops chunks that touch billing.
func (f topicFilter) relevant(hit *core.Hit) bool {
	if !f.login && !f.billing {
		return true
	}
	content := strings.ToLower(hit.Content)
	if f.login && containsAny(content, loginHitKeywords) &&
		!containsAny(content, billingHitKeywords) {
		return true
	}
	if f.billing && containsAny(content, billingHitKeywords) {
		return true
	}
	return false
}

// selectHits picks the hits handed to the model. The cascade prefers
// strong on-topic matches, falls back to any on-topic match, and keeps
// the raw ranking when the topic filter would leave nothing. Hits are
// deduplicated by chunk and capped at topK.
func selectHits(hits []*core.Hit, filter topicFilter, topK int) []*core.Hit {
	var strong, onTopic []*core.Hit
	for _, hit := range hits {
		if !filter.relevant(hit) {
			continue
		}
		onTopic = append(onTopic, hit)
		if hit.Similarity >= SimilarityThreshold {
			strong = append(strong, hit)
		}
	}

	selected := hits
	if len(strong) > 0 {
		selected = strong
	} else if len(onTopic) > 0 {
		selected = onTopic
	}

	seen := make(map[core.ChunkID]bool, len(selected))
	result := make([]*core.Hit, 0, len(selected))
	for _, hit := range selected {
		if seen[hit.ChunkID] {
			continue
		}
		seen[hit.ChunkID] = true
		result = append(result, hit)
		if len(result) == topK {
			break
		}
	}
	return result
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
