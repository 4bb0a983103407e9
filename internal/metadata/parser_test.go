package metadata

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

const sampleBlock = `<tt:MetadataStream>
<tt:VideoAnalytics>
<tt:Frame>
<tt:Object ObjectId="3">
<tt:Appearance>
<tt:BoundingBox left="10.5" top="20.2" right="100.9" bottom="200.1"/>
<tt:Class>
<tt:ClassCandidate>
<tt:Type>Person</tt:Type>
<tt:Likelihood>0.87</tt:Likelihood>
</tt:ClassCandidate>
</tt:Class>
</tt:Appearance>
</tt:Object>
<tt:Object ObjectId="4">
<tt:Appearance>
<tt:BoundingBox left="0" top="0" right="5" bottom="5"/>
</tt:Appearance>
</tt:Object>
</tt:Frame>
</tt:VideoAnalytics>
</tt:MetadataStream>`

func TestParseBlockExtractsObjectsAndClass(t *testing.T) {
	events := parseBlock(sampleBlock)
	require.Len(t, events, 2)

	assert.Equal(t, 3, events[0].ObjectID)
	assert.Equal(t, 10, events[0].Left)
	assert.Equal(t, 20, events[0].Top)
	assert.Equal(t, 100, events[0].Right)
	assert.Equal(t, 200, events[0].Bottom)
	assert.Equal(t, "Person", events[0].Type)
	assert.InDelta(t, 0.87, events[0].Confidence, 0.001)

	assert.Equal(t, 4, events[1].ObjectID)
	assert.Equal(t, "Unknown", events[1].Type, "missing ClassCandidate defaults to Unknown")
	assert.Equal(t, float32(0), events[1].Confidence)
}

func TestParseBlockNoObjectsReturnsEmpty(t *testing.T) {
	events := parseBlock(`<tt:MetadataStream><tt:VideoAnalytics></tt:VideoAnalytics></tt:MetadataStream>`)
	assert.Empty(t, events)
}

func TestDrainCompleteBlocksEnqueuesEvenEmptyFrames(t *testing.T) {
	var frames []Frame
	p := New("rtsp://camera/stream", func(f Frame) { frames = append(frames, f) }, testLogger())

	var xmlBuffer strings.Builder
	xmlBuffer.WriteString(`<tt:MetadataStream><tt:VideoAnalytics></tt:VideoAnalytics></tt:MetadataStream>`)
	xmlBuffer.WriteString(sampleBlock)
	p.drainCompleteBlocks(&xmlBuffer)

	require.Len(t, frames, 2)
	assert.Empty(t, frames[0].Events)
	assert.Len(t, frames[1].Events, 2)
}
