package llm

import (
	"context"
	"strings"
)

// MockCompleter is a test double for Completer. Deltas are replayed through
// onChunk cumulatively, then the scripted reply goes through the normal
// extraction path against the request's catalog.
type MockCompleter struct {
	Deltas      []string
	RequestFunc func(ctx context.Context, req Request, onChunk ChunkFunc) *ExchangeResult

	// Requests records every request seen, for assertions.
	Requests []Request
}

func (m *MockCompleter) Request(ctx context.Context, req Request, onChunk ChunkFunc) *ExchangeResult {
	m.Requests = append(m.Requests, req)
	if m.RequestFunc != nil {
		return m.RequestFunc(ctx, req, onChunk)
	}

	var full strings.Builder
	for _, d := range m.Deltas {
		full.WriteString(d)
		if onChunk != nil {
			onChunk(full.String())
		}
	}
	raw := full.String()
	if raw == "" {
		raw = "mock reply"
		if onChunk != nil {
			onChunk(raw)
		}
	}

	clean, items := ExtractRecommendations(raw, req.Catalog)
	if clean != raw && onChunk != nil {
		onChunk(clean)
	}
	return &ExchangeResult{Text: clean, RawText: raw, Recommendations: items}
}
