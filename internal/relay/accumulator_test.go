package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccumulatorConcatenatesDeltas(t *testing.T) {
	acc := &chunkAccumulator{}

	acc.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n"))
	acc.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\", world\"}}]}\n\n"))
	acc.Write([]byte("data: [DONE]\n\n"))

	require.Equal(t, "Hello, world", acc.Text())
}

func TestAccumulatorHandlesChunkSplitMidEvent(t *testing.T) {
	acc := &chunkAccumulator{}

	// A single SSE event arriving in two arbitrary pieces.
	acc.Write([]byte("data: {\"choices\":[{\"delta\":{\"con"))
	acc.Write([]byte("tent\":\"answer\"}}]}\n\n"))

	require.Equal(t, "answer", acc.Text())
}

func TestAccumulatorHandlesMultiByteRuneSplitAcrossChunks(t *testing.T) {
	acc := &chunkAccumulator{}

	event := []byte("data: {\"choices\":[{\"delta\":{\"content\":\"héllo wörld\"}}]}\n\n")

	// Split inside the two-byte encoding of 'é'.
	split := 0
	for i, b := range event {
		if b == 0xc3 {
			split = i + 1
			break
		}
	}
	require.NotZero(t, split)

	acc.Write(event[:split])
	acc.Write(event[split:])

	require.Equal(t, "héllo wörld", acc.Text())
}

func TestAccumulatorIgnoresNonDataLines(t *testing.T) {
	acc := &chunkAccumulator{}

	acc.Write([]byte(": keepalive\n"))
	acc.Write([]byte("event: ping\n"))
	acc.Write([]byte("data: {\"choices\":[{\"delta\":{}}]}\n\n"))
	acc.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n"))

	require.Equal(t, "ok", acc.Text())
}

func TestAccumulatorCRLFLines(t *testing.T) {
	acc := &chunkAccumulator{}

	acc.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\r\n\r\n"))
	acc.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\r\n\r\n"))

	require.Equal(t, "ab", acc.Text())
}
