package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/freshcart/shopmate/internal/logging"
)

// fallbackReply is returned whenever the provider cannot be reached or
// produces nothing. The chat UI must always end a turn with some text.
const fallbackReply = "Sorry, the shopping assistant is a little busy right now — please try again in a moment."

// doneSentinel terminates the provider's SSE stream.
const doneSentinel = "[DONE]"

// dataPrefix marks a payload-bearing SSE frame.
const dataPrefix = "data: "

// StreamClient performs streamed completion exchanges against an
// OpenAI-compatible chat-completions endpoint.
type StreamClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	log     *logging.Logger
}

// NewStreamClient creates a streaming client. baseURL is the provider root,
// e.g. "https://api.openai.com".
func NewStreamClient(baseURL, apiKey, model string, log *logging.Logger) *StreamClient {
	return &StreamClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
		log:     log.Sub("llm"),
	}
}

// Model returns the configured model identifier.
func (c *StreamClient) Model() string { return c.model }

// Wire shapes for the chat-completions endpoint. Content is either a plain
// string or a list of typed parts when an image rides along.

type wireMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type wirePart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *wireImageURL `json:"image_url,omitempty"`
}

type wireImageURL struct {
	URL string `json:"url"`
}

type wireRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// buildWireMessages assembles the upstream message list: the system
// instruction first, then the transcript, with an optional image attached
// to the last user turn as a multi-part content block.
func buildWireMessages(ex Exchange) []wireMessage {
	msgs := make([]wireMessage, 0, len(ex.Messages)+1)
	if ex.System != "" {
		msgs = append(msgs, wireMessage{Role: RoleSystem, Content: ex.System})
	}
	for _, m := range ex.Messages {
		msgs = append(msgs, wireMessage{Role: m.Role, Content: m.Content})
	}

	if ex.Image == nil {
		return msgs
	}

	url := fmt.Sprintf("data:%s;base64,%s", ex.Image.MimeType, ex.Image.Data)
	imagePart := wirePart{Type: "image_url", ImageURL: &wireImageURL{URL: url}}

	// Attach to the trailing user turn when there is one; a bare image with
	// no user text still needs a turn to ride on.
	if n := len(msgs); n > 0 && msgs[n-1].Role == RoleUser {
		if text, ok := msgs[n-1].Content.(string); ok {
			parts := []wirePart{}
			if text != "" {
				parts = append(parts, wirePart{Type: "text", Text: text})
			}
			msgs[n-1].Content = append(parts, imagePart)
			return msgs
		}
	}
	msgs = append(msgs, wireMessage{Role: RoleUser, Content: []wirePart{imagePart}})
	return msgs
}

// StreamDeltas issues the provider exchange and invokes onDelta once per
// decoded text delta, in wire order. It returns a ProviderError for
// failures before any data arrives; a mid-stream failure is returned after
// the deltas already delivered, which stand as a best-effort partial reply.
// Callers wanting the never-fail conversational contract use Request.
func (c *StreamClient) StreamDeltas(ctx context.Context, ex Exchange, onDelta func(delta string) error) error {
	body := wireRequest{
		Model:    c.model,
		Messages: buildWireMessages(ex),
		Stream:   true,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return &ProviderError{Provider: "completions", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ProviderError{
			Provider: "completions",
			Message:  strings.TrimSpace(string(msg)),
			Code:     resp.StatusCode,
		}
	}

	// bufio.Reader buffers any partial line left over from a read boundary
	// until the next chunk arrives; only complete newline-terminated lines
	// are processed.
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading stream: %w", err)
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		data := strings.TrimPrefix(line, dataPrefix)
		if data == doneSentinel {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// A single malformed frame never aborts the stream.
			c.log.Debug().Str("frame", data).Msg("skipping unparseable stream frame")
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := onDelta(delta); err != nil {
			return err
		}
	}
}

// Request performs one full conversational exchange. It never fails: any
// transport problem degrades to a canned fallback reply, and a mid-stream
// drop keeps whatever text already accumulated. onChunk receives the
// cumulative text after every delta, and one final call with the cleaned
// text when a recommendation block was stripped, so the last rendered
// frame never flashes raw JSON.
func (c *StreamClient) Request(ctx context.Context, req Request, onChunk ChunkFunc) *ExchangeResult {
	var full strings.Builder

	err := c.StreamDeltas(ctx, Exchange{
		System:   req.System,
		Messages: req.Messages,
		Image:    req.Image,
	}, func(delta string) error {
		full.WriteString(delta)
		if onChunk != nil {
			onChunk(full.String())
		}
		return nil
	})

	raw := full.String()
	if err != nil {
		if raw == "" {
			c.log.Warn().Err(err).Msg("completion failed before any output, using fallback reply")
			if onChunk != nil {
				onChunk(fallbackReply)
			}
			return &ExchangeResult{Text: fallbackReply, RawText: fallbackReply}
		}
		c.log.Warn().Err(err).Int("chars", len(raw)).Msg("stream dropped mid-reply, keeping partial text")
	}
	if raw == "" {
		if onChunk != nil {
			onChunk(fallbackReply)
		}
		return &ExchangeResult{Text: fallbackReply, RawText: fallbackReply}
	}

	clean, items := ExtractRecommendations(raw, req.Catalog)
	if clean != raw && onChunk != nil {
		onChunk(clean)
	}
	return &ExchangeResult{Text: clean, RawText: raw, Recommendations: items}
}
