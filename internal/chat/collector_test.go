package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStream = `data: {"model":"gpt-4o-mini","choices":[{"delta":{"content":"The"}}]}

data: {"choices":[{"delta":{"content":" answer"}}]}

data: {"choices":[{"delta":{"content":" is 42."}}]}

data: {"choices":[],"usage":{"prompt_tokens":120,"completion_tokens":8,"total_tokens":128}}

data: [DONE]

`

func TestCollectReassemblesAnswer(t *testing.T) {
	got, err := Collect(strings.NewReader(sampleStream))
	require.NoError(t, err)

	assert.Equal(t, "The answer is 42.", got.Text)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 120, got.Usage.PromptTokens)
	assert.Equal(t, 8, got.Usage.CompletionTokens)
	assert.Equal(t, 128, got.Usage.TotalTokens)
}

func TestCollectStopsAtDone(t *testing.T) {
	stream := sampleStream + `data: {"choices":[{"delta":{"content":"IGNORED"}}]}` + "\n"

	got, err := Collect(strings.NewReader(stream))
	require.NoError(t, err)
	assert.NotContains(t, got.Text, "IGNORED")
}

func TestCollectSkipsMalformedFrames(t *testing.T) {
	stream := "data: {not json}\n\n" +
		`data: {"choices":[{"delta":{"content":"ok"}}]}` + "\n\n" +
		"data: [DONE]\n"

	got, err := Collect(strings.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Text)
}

func TestCollectIgnoresNonDataLines(t *testing.T) {
	stream := ": keepalive comment\n" +
		"event: message\n" +
		`data: {"choices":[{"delta":{"content":"hi"}}]}` + "\n\n"

	got, err := Collect(strings.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Text)
}

func TestCollectEmptyStream(t *testing.T) {
	got, err := Collect(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got.Text)
	assert.Zero(t, got.Usage.TotalTokens)
}
