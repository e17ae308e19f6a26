package assist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestdesk/crestdesk/core"
)

func TestMarkerRoundTrip(t *testing.T) {
	reply := &core.StructuredReply{
		CustomerReply:        "Please try resetting your password again.",
		InternalNotes:        "Third reset attempt this week.",
		NextSteps:            []string{"Verify email deliverability"},
		QuestionsForCustomer: []string{"Which browser are you using?"},
		Citations: []core.Citation{
			{Source: "src-1", Filename: "faq.md", ChunkID: "42"},
		},
	}

	block := renderMarkerBlock(reply, 5, 3)
	require.True(t, strings.HasPrefix(block, markerBegin))
	require.True(t, strings.HasSuffix(block, markerEnd))

	payload := extractMarker("[AI Assist] Draft reply:\nsome text\n\n" + block)
	require.NotNil(t, payload)
	assert.Equal(t, *reply, payload.StructuredReply)
	assert.Equal(t, 5, payload.KbTopK)
	assert.Equal(t, 3, payload.KbHits)
}

func TestExtractMarker_Garbage(t *testing.T) {
	assert.Nil(t, extractMarker(""))
	assert.Nil(t, extractMarker("a plain comment without a block"))
	assert.Nil(t, extractMarker(markerBegin+"\n{not json}\n"+markerEnd))
	// Opening delimiter without a closing one.
	assert.Nil(t, extractMarker(markerBegin+`{"customer_reply":"x"}`))
}

func TestExtractMarker_FirstBlockWins(t *testing.T) {
	first := renderMarkerBlock(&core.StructuredReply{CustomerReply: "first"}, 5, 1)
	second := renderMarkerBlock(&core.StructuredReply{CustomerReply: "second"}, 5, 1)

	payload := extractMarker(first + "\n" + second)
	require.NotNil(t, payload)
	assert.Equal(t, "first", payload.CustomerReply)
}
