// Copyright 2025 Crestdesk Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/crestdesk/crestdesk/ai"
	"github.com/crestdesk/crestdesk/core"
	"github.com/crestdesk/crestdesk/kb"
	"github.com/crestdesk/crestdesk/usage"
)

const (
	// MaxCommentLen bounds the rendered assist comment body.
	MaxCommentLen = 4800

	// DedupeWindow is how recently a posted assist comment suppresses a
	// fresh model call for the same ticket.
	DedupeWindow = 60 * time.Second

	// AuthorAssist is the author ID assist comments are posted under.
	AuthorAssist = "system-ai-assist"
)

// TicketStore is the slice of ticket storage the assist pipeline needs.
type TicketStore interface {
	GetTicket(ctx context.Context, tenantID, id string) (*core.Ticket, error)
	AddComment(ctx context.Context, comment *core.Comment) (*core.Comment, error)
	ListComments(ctx context.Context, tenantID, ticketID string) ([]*core.Comment, error)
}

// Retriever finds knowledge chunks for a query text.
type Retriever interface {
	Query(ctx context.Context, tenantID, query string, topK int) ([]*core.Hit, error)
}

// Gate enforces the tenant's monthly AI call quota.
type Gate interface {
	AssertCanUseAI(ctx context.Context, tenantID string) error
}

// Request asks for an assist draft on one ticket.
type Request struct {
	TenantID string
	TicketID string
	// UserID is the agent requesting the draft; recorded on the usage
	// event and the posted comment's metadata.
	UserID string
	// TopK bounds retrieval; zero selects the default.
	TopK int
	// Tone steers the drafted reply, e.g. "friendly" or "formal".
	Tone string
	// DryRun previews the draft without posting a comment.
	DryRun bool
}

// Result is one assist outcome.
type Result struct {
	Reply       core.StructuredReply
	Raw         string // verbatim model output
	ParseFailed bool   // Raw did not parse; Reply is zero
	Hits        []*core.Hit
	TopK        int
	Query       string
	Cached      bool
	CacheType   string // "comment" or "dryrun" when Cached
	CommentID   string // set when a comment was posted
	// CommentError reports a failed comment write; the draft itself is
	// still returned.
	CommentError string
}

// Service orchestrates ticket assist: quota check, comment dedupe,
// retrieval with topic filtering, the model call, post-processing, and
// either posting a comment or caching a preview.
type Service struct {
	tickets TicketStore
	search  Retriever
	chat    ai.ChatModel
	gate    Gate
	usage   *usage.Recorder
	cache   *ReplyCache
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates an assist service. The gate may be nil to disable
// quota enforcement; the recorder may be nil to disable metering.
func NewService(tickets TicketStore, search Retriever, chat ai.ChatModel, gate Gate, recorder *usage.Recorder) *Service {
	return &Service{
		tickets: tickets,
		search:  search,
		chat:    chat,
		gate:    gate,
		usage:   recorder,
		cache:   NewReplyCache(DefaultCacheTTL, DefaultCacheMaxItems),
		logger:  slog.Default().With("component", "assist"),
		now:     time.Now,
	}
}

// Suggest produces an assist draft for the ticket. Unless DryRun is set,
// the draft is posted as a ticket comment carrying a machine-readable
// marker block; a comment posted within the dedupe window short-circuits
// the whole pipeline.
func (s *Service) Suggest(ctx context.Context, req Request) (*Result, error) {
	if req.TenantID == "" {
		return nil, core.ErrEmptyTenant
	}
	if req.TicketID == "" {
		return nil, core.NewFault(core.FaultInput, "ticket id is required")
	}

	if s.gate != nil {
		if err := s.gate.AssertCanUseAI(ctx, req.TenantID); err != nil {
			return nil, err
		}
	}

	ticket, err := s.tickets.GetTicket(ctx, req.TenantID, req.TicketID)
	if err != nil {
		return nil, err
	}
	comments, err := s.tickets.ListComments(ctx, req.TenantID, req.TicketID)
	if err != nil {
		return nil, err
	}

	topK := kb.ClampTopK(req.TopK)

	if result := s.findRecentDraft(comments); result != nil {
		s.logUsage(ctx, req, result)
		return result, nil
	}

	query := buildQueryText(ticket, comments)
	cacheKey := s.cacheKey(req, topK, comments, query)

	if req.DryRun {
		if cached := s.cache.Get(cacheKey); cached != nil {
			result := *cached
			result.Cached = true
			result.CacheType = "dryrun"
			s.logUsage(ctx, req, &result)
			return &result, nil
		}
	}

	hits, err := s.search.Query(ctx, req.TenantID, query, topK)
	if err != nil {
		return nil, err
	}
	filter := classifyQuery(query)
	selected := selectHits(hits, filter, topK)

	raw, err := s.chat.Chat(ctx, []ai.Message{
		ai.SystemMessage(systemPrompt),
		ai.UserMessage(buildUserPrompt(ticket, comments, selected, req.Tone)),
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Raw:   raw,
		Hits:  selected,
		TopK:  topK,
		Query: query,
	}

	reply, parseErr := parseReply(raw)
	if parseErr != nil {
		// Keep the raw output so the agent still sees something useful;
		// post-processing needs structure we don't have.
		result.ParseFailed = true
		s.logger.Warn("model output did not parse", "ticket", req.TicketID, "err", parseErr)
	} else {
		reply.QuestionsForCustomer = dedupeQuestions(
			injectQuestions(dedupeQuestions(reply.QuestionsForCustomer), selected, filter))
		if len(reply.Citations) == 0 {
			reply.Citations = citationsFromHits(selected)
		}
		result.Reply = *reply
	}

	switch {
	case req.DryRun:
		// A failed parse is never cached; the next preview regenerates.
		if !result.ParseFailed {
			s.cache.Put(cacheKey, result)
		}
	case !result.ParseFailed:
		comment, err := s.postComment(ctx, req, &result.Reply, topK, len(selected))
		if err != nil {
			// The draft still goes back to the agent.
			result.CommentError = err.Error()
			s.logger.Warn("assist comment not persisted", "ticket", req.TicketID, "err", err)
		} else {
			result.CommentID = comment.ID
		}
	}

	s.logUsage(ctx, req, result)
	return result, nil
}

// DraftReply is Suggest in preview mode, returning just the drafted
// customer reply text.
func (s *Service) DraftReply(ctx context.Context, req Request) (string, error) {
	req.DryRun = true
	result, err := s.Suggest(ctx, req)
	if err != nil {
		return "", err
	}
	if result.ParseFailed {
		return result.Raw, nil
	}
	return result.Reply.CustomerReply, nil
}

// findRecentDraft scans comments newest first for an assist comment
// inside the dedupe window and rebuilds the result from its marker block.
func (s *Service) findRecentDraft(comments []*core.Comment) *Result {
	cutoff := s.now().Add(-DedupeWindow)
	for i := len(comments) - 1; i >= 0; i-- {
		comment := comments[i]
		if comment.CreatedAt.Before(cutoff) {
			break
		}
		if comment.AuthorID != AuthorAssist {
			continue
		}
		payload := extractMarker(comment.Body)
		if payload == nil {
			continue
		}
		return &Result{
			Reply:     payload.StructuredReply,
			TopK:      payload.KbTopK,
			Cached:    true,
			CacheType: "comment",
			CommentID: comment.ID,
		}
	}
	return nil
}

// cacheKey derives the preview cache key from everything that shapes
// the draft: ticket identity, knobs, and the conversation state.
func (s *Service) cacheKey(req Request, topK int, comments []*core.Comment, query string) uint64 {
	var newestMs int64
	if len(comments) > 0 {
		newestMs = comments[len(comments)-1].CreatedAt.UnixMilli()
	}
	return core.KeyFromContent(fmt.Sprintf("%s|%s|topK=%d|tone=%s|cc=%d|ncm=%d|q=%s",
		req.TenantID, req.TicketID, topK, req.Tone, len(comments), newestMs, query))
}

// postComment renders the reply into a comment and appends it to the
// ticket under the assist author.
func (s *Service) postComment(ctx context.Context, req Request, reply *core.StructuredReply, topK, hitCount int) (*core.Comment, error) {
	body := renderCommentBody(reply, topK, hitCount)
	return s.tickets.AddComment(ctx, &core.Comment{
		TenantID: req.TenantID,
		TicketID: req.TicketID,
		AuthorID: AuthorAssist,
		Body:     body,
	})
}

// logUsage records the assist call, best-effort.
func (s *Service) logUsage(ctx context.Context, req Request, result *Result) {
	s.usage.Log(ctx, &core.UsageEvent{
		TenantID: req.TenantID,
		UserID:   req.UserID,
		Type:     core.UsageAiAssistCall,
		Amount:   1,
		Meta: map[string]string{
			"ticketId":  req.TicketID,
			"dryRun":    strconv.FormatBool(req.DryRun),
			"cached":    strconv.FormatBool(result.Cached),
			"cacheType": result.CacheType,
		},
	})
}

// parseReply extracts and unmarshals the model's JSON, tolerating code
// fences and prose around the object.
func parseReply(raw string) (*core.StructuredReply, error) {
	text := strings.TrimSpace(raw)
	begin := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if begin < 0 || end <= begin {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var reply core.StructuredReply
	if err := json.Unmarshal([]byte(text[begin:end+1]), &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// citationsFromHits builds citations when the model declined to.
func citationsFromHits(hits []*core.Hit) []core.Citation {
	citations := make([]core.Citation, 0, len(hits))
	for _, hit := range hits {
		citations = append(citations, core.Citation{
			Source:   hit.SourceID,
			Filename: hit.Filename,
			ChunkID:  strconv.FormatUint(uint64(hit.ChunkID), 10),
		})
	}
	return citations
}

// renderCommentBody lays out the human-readable draft followed by the
// marker block, clamped to MaxCommentLen with the marker block kept
// intact; only the human part gets truncated.
func renderCommentBody(reply *core.StructuredReply, topK, hitCount int) string {
	var b strings.Builder
	b.WriteString("[AI Assist] Draft reply:\n")
	b.WriteString(reply.CustomerReply)
	if reply.InternalNotes != "" {
		b.WriteString("\n\nInternal notes:\n")
		b.WriteString(reply.InternalNotes)
	}
	if len(reply.NextSteps) > 0 {
		b.WriteString("\n\nNext steps:")
		for _, step := range reply.NextSteps {
			b.WriteString("\n- ")
			b.WriteString(step)
		}
	}
	if len(reply.QuestionsForCustomer) > 0 {
		b.WriteString("\n\nQuestions for the customer:")
		for _, q := range reply.QuestionsForCustomer {
			b.WriteString("\n- ")
			b.WriteString(q)
		}
	}

	human := b.String()
	marker := renderMarkerBlock(reply, topK, hitCount)

	const sep = "\n\n"
	const ellipsis = "\n\n...[truncated]"
	budget := MaxCommentLen - len(marker) - len(sep)
	if len(human) > budget {
		cut := budget - len(ellipsis)
		if cut < 0 {
			cut = 0
		}
		// Back off to a rune boundary so the cut never splits a character.
		for cut > 0 && !utf8.RuneStart(human[cut]) {
			cut--
		}
		human = human[:cut] + ellipsis
	}
	return human + sep + marker
}
