package assist

import (
	"fmt"
	"strings"
	"time"

	"github.com/crestdesk/crestdesk/core"
)

// Prompt size limits. Characters count runes.
const (
	MaxCommentsForLLM     = 3
	MaxCommentCharsForLLM = 800
	MaxSourceCharsForLLM  = 1200
)

const systemPrompt = `You are an AI support assistant drafting responses for helpdesk agents.
Respond with strict JSON only, no prose and no markdown fences, using exactly these keys:
{"customer_reply": string, "internal_notes": string, "next_steps": [string], "questions_for_customer": [string], "citations": [{"source": string, "filename": string, "chunkId": string}]}

Rules:
- customer_reply is a complete draft the agent can send as-is, matching the requested tone.
- Ground every claim in the knowledge base excerpts; cite the excerpts you used.
- If the excerpts do not answer the question, say so in internal_notes and ask clarifying questions.
- HARD RULE: do not mention refunds, credits, or billing adjustments unless the ticket is explicitly about billing or charges, and never promise them. Billing decisions belong to a human agent; route them to internal_notes.`

// buildQueryText renders the ticket into the retrieval query: title,
// description, and the most recent comments.
func buildQueryText(ticket *core.Ticket, comments []*core.Comment) string {
	var b strings.Builder
	b.WriteString("TITLE: ")
	b.WriteString(ticket.Title)
	b.WriteString("\n\nDESCRIPTION: ")
	b.WriteString(ticket.Description)
	b.WriteString("\n\nCOMMENTS:")

	for _, comment := range lastComments(comments, MaxCommentsForLLM) {
		b.WriteString("\n- (")
		b.WriteString(comment.CreatedAt.UTC().Format(time.RFC3339))
		b.WriteString(") ")
		b.WriteString(truncate(comment.Body, MaxCommentCharsForLLM))
	}
	return b.String()
}

// buildUserPrompt renders the context block handed to the model.
func buildUserPrompt(ticket *core.Ticket, comments []*core.Comment, hits []*core.Hit, tone string) string {
	if tone == "" {
		tone = "professional"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Requested tone: %s\n\n", tone)
	fmt.Fprintf(&b, "TICKET\nTitle: %s\nDescription: %s\n", ticket.Title, ticket.Description)

	recent := lastComments(comments, MaxCommentsForLLM)
	if len(recent) > 0 {
		b.WriteString("\nRECENT COMMENTS\n")
		for _, comment := range recent {
			fmt.Fprintf(&b, "- (%s) %s\n",
				comment.CreatedAt.UTC().Format(time.RFC3339),
				truncate(comment.Body, MaxCommentCharsForLLM))
		}
	}

	if len(hits) > 0 {
		b.WriteString("\nKNOWLEDGE BASE EXCERPTS\n")
		for i, hit := range hits {
			fmt.Fprintf(&b, "[%d] source=%s filename=%q chunkId=%d similarity=%.2f\n%s\n",
				i+1, hit.SourceID, hit.Filename, hit.ChunkID,
				hit.Similarity, truncate(hit.Content, MaxSourceCharsForLLM))
		}
	} else {
		b.WriteString("\nKNOWLEDGE BASE EXCERPTS\n(none found)\n")
	}
	return b.String()
}

// lastComments returns the final n comments in their original order.
func lastComments(comments []*core.Comment, n int) []*core.Comment {
	if len(comments) <= n {
		return comments
	}
	return comments[len(comments)-n:]
}

// truncate cuts text to limit runes, marking the cut.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "\n...[truncated]"
}
