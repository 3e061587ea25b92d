// Package llm implements the streamed completion exchange against an
// OpenAI-compatible chat-completions endpoint, including incremental SSE
// decoding and extraction of the product-recommendation side channel the
// assistant embeds in its replies.
package llm

import (
	"context"
	"fmt"

	"github.com/freshcart/shopmate/internal/domain"
)

// Role constants for upstream messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single prompt turn sent upstream.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ImageAttachment is an inline image sent alongside a user turn.
// Data carries the base64 payload without any data-URL prefix.
type ImageAttachment struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Exchange is one outbound streamed request. The system instruction is
// kept separate from Messages and prepended as a system-role message at
// request time; it is never part of a stored transcript.
type Exchange struct {
	System   string
	Messages []Message
	Image    *ImageAttachment
}

// Request is the conversational form of an exchange, carrying the catalog
// snapshot used to resolve recommended product identifiers.
type Request struct {
	System   string
	Messages []Message
	Image    *ImageAttachment
	Catalog  *domain.Catalog
}

// ExchangeResult is the decoded output of one completion.
// Text never contains the raw fenced recommendation block; RawText is the
// model output verbatim and is what belongs in the stored transcript so
// future prompt context matches what the model actually produced.
type ExchangeResult struct {
	Text            string
	RawText         string
	Recommendations []domain.CatalogItem
}

// ChunkFunc receives the cumulative text-so-far after each decoded delta.
type ChunkFunc func(cumulative string)

// Completer is the exchange interface chat sessions depend on.
// Request must never fail: transport problems degrade to a canned
// conversational fallback so the UI always has something to display.
type Completer interface {
	Request(ctx context.Context, req Request, onChunk ChunkFunc) *ExchangeResult
}

// ProviderError is returned when the upstream provider fails before the
// stream starts.
type ProviderError struct {
	Provider string
	Message  string
	Code     int // HTTP status, 0 when the request never reached the provider
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
