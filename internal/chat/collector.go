package chat

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/askpage/askpage/internal/llm"
)

// Collected is the reassembled result of one streamed answer
type Collected struct {
	Text  string
	Model string
	Usage llm.Usage
}

type streamFrame struct {
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *llm.Usage `json:"usage"`
}

// Collect drains an OpenAI-style SSE stream and reassembles the full answer
// text plus the token usage carried by the final frames. Frames that fail to
// parse are skipped; the stream ends at EOF or a [DONE] sentinel.
func Collect(r io.Reader) (*Collected, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out Collected
	var sb strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == "[DONE]" {
			break
		}

		var frame streamFrame
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			continue
		}
		if frame.Model != "" {
			out.Model = frame.Model
		}
		for _, c := range frame.Choices {
			sb.WriteString(c.Delta.Content)
		}
		if frame.Usage != nil {
			out.Usage = *frame.Usage
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	out.Text = sb.String()
	return &out, nil
}
