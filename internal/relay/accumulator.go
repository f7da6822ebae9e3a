package relay

import (
	"bytes"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	dataPrefix   = []byte("data: ")
	doneSentinel = []byte("[DONE]")
)

// chunkAccumulator reconstructs the assistant's complete reply from the raw
// bytes of a streamed completion response. Upstream chunks can split anywhere,
// including in the middle of a multi-byte character or a JSON event, so
// incoming bytes are carried in a buffer and only complete lines are decoded.
//
// An accumulator is owned by exactly one in-flight relay and is never reused.
type chunkAccumulator struct {
	carry bytes.Buffer
	text  strings.Builder
}

// Write feeds one upstream chunk into the accumulator.
func (a *chunkAccumulator) Write(p []byte) {
	a.carry.Write(p)

	for {
		raw := a.carry.Bytes()
		idx := bytes.IndexByte(raw, '\n')
		if idx < 0 {
			return
		}

		line := make([]byte, idx)
		copy(line, raw[:idx])
		a.carry.Next(idx + 1)

		a.consumeLine(bytes.TrimSuffix(line, []byte("\r")))
	}
}

// consumeLine extracts the textual delta from one server-sent event line.
func (a *chunkAccumulator) consumeLine(line []byte) {
	if !bytes.HasPrefix(line, dataPrefix) {
		return
	}

	data := bytes.TrimPrefix(line, dataPrefix)
	if bytes.HasPrefix(data, doneSentinel) {
		return
	}

	for _, content := range gjson.GetBytes(data, "choices.#.delta.content").Array() {
		a.text.WriteString(content.String())
	}
}

// Text returns the accumulated reply so far.
func (a *chunkAccumulator) Text() string {
	return a.text.String()
}
