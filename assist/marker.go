package assist

import (
	"encoding/json"
	"strings"

	"github.com/crestdesk/crestdesk/core"
)

// Marker delimiters embedding the structured reply inside a posted
// comment. A later assist call for the same ticket finds the block and
// reuses the reply instead of calling the model again.
const (
	markerBegin = "[AIAssistResponseJSON]"
	markerEnd   = "[/AIAssistResponseJSON]"
)

// markerPayload is the JSON stored between the marker delimiters.
type markerPayload struct {
	core.StructuredReply
	KbTopK int `json:"kbTopK"`
	KbHits int `json:"kbHits"`
}

// renderMarkerBlock serializes the reply into a marker block.
func renderMarkerBlock(reply *core.StructuredReply, topK, hits int) string {
	payload := markerPayload{
		StructuredReply: *reply,
		KbTopK:          topK,
		KbHits:          hits,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return markerBegin + "\n" + string(data) + "\n" + markerEnd
}

// extractMarker parses a marker block out of a comment body. Returns
// nil when the body has no block or the block doesn't parse.
func extractMarker(body string) *markerPayload {
	begin := strings.Index(body, markerBegin)
	if begin < 0 {
		return nil
	}
	rest := body[begin+len(markerBegin):]
	end := strings.Index(rest, markerEnd)
	if end < 0 {
		return nil
	}

	var payload markerPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(rest[:end])), &payload); err != nil {
		return nil
	}
	return &payload
}
