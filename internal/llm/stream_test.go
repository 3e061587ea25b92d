package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/freshcart/shopmate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

// sseServer streams the given frames as SSE data lines, flushing between
// each so the client sees them as separate network reads.
func sseServer(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		w.Header().Set("Content-Type", "text/event-stream")
		fl, ok := w.(http.Flusher)
		require.True(t, ok)
		for _, f := range frames {
			fmt.Fprint(w, f)
			fl.Flush()
		}
	}))
}

func deltaFrame(content string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", content)
}

func TestRequestCumulativeChunks(t *testing.T) {
	srv := sseServer(t, []string{
		deltaFrame("He"),
		deltaFrame("llo"),
		"data: [DONE]\n\n",
	})
	defer srv.Close()

	c := NewStreamClient(srv.URL, "key", "test-model", testLogger())

	var chunks []string
	res := c.Request(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, func(cumulative string) {
		chunks = append(chunks, cumulative)
	})

	assert.Equal(t, []string{"He", "Hello"}, chunks)
	assert.Equal(t, "Hello", res.Text)
	assert.Equal(t, "Hello", res.RawText)
	assert.Empty(t, res.Recommendations)
}

func TestRequestBuffersPartialFrames(t *testing.T) {
	// One frame split across two flushes; the halves are not valid JSON on
	// their own and must be reassembled before decoding.
	srv := sseServer(t, []string{
		"data: {\"choices\":[{\"delta\"",
		":{\"content\":\"whole\"}}]}\n\n",
		"data: [DONE]\n\n",
	})
	defer srv.Close()

	c := NewStreamClient(srv.URL, "key", "test-model", testLogger())

	var chunks []string
	res := c.Request(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, func(cumulative string) {
		chunks = append(chunks, cumulative)
	})

	assert.Equal(t, []string{"whole"}, chunks)
	assert.Equal(t, "whole", res.Text)
}

func TestRequestSkipsMalformedFrames(t *testing.T) {
	srv := sseServer(t, []string{
		deltaFrame("ok"),
		"data: {not json}\n\n",
		": keepalive comment\n\n",
		deltaFrame(" fine"),
		"data: [DONE]\n\n",
	})
	defer srv.Close()

	c := NewStreamClient(srv.URL, "key", "test-model", testLogger())

	res := c.Request(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, nil)

	assert.Equal(t, "ok fine", res.Text)
}

func TestRequestStripsRecommendationBlock(t *testing.T) {
	srv := sseServer(t, []string{
		deltaFrame("Try the mangoes!\n"),
		deltaFrame("```json\n{\"recommendedProductIds\":[\"A\"]}\n```"),
		"data: [DONE]\n\n",
	})
	defer srv.Close()

	c := NewStreamClient(srv.URL, "key", "test-model", testLogger())

	var last string
	res := c.Request(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "fruit?"}},
		Catalog:  testCatalog(),
	}, func(cumulative string) {
		last = cumulative
	})

	assert.Equal(t, "Try the mangoes!", res.Text)
	assert.Contains(t, res.RawText, "recommendedProductIds")
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, "A", res.Recommendations[0].ID)

	// The final chunk delivered is the cleaned text, so the UI never ends
	// on a frame showing the raw JSON block.
	assert.Equal(t, "Try the mangoes!", last)
}

func TestRequestFallsBackWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewStreamClient(srv.URL, "key", "test-model", testLogger())

	var chunks []string
	res := c.Request(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, func(cumulative string) {
		chunks = append(chunks, cumulative)
	})

	assert.Equal(t, fallbackReply, res.Text)
	assert.Equal(t, []string{fallbackReply}, chunks)
}

func TestRequestFallsBackOnProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewStreamClient(srv.URL, "key", "test-model", testLogger())

	res := c.Request(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, nil)

	assert.Equal(t, fallbackReply, res.Text)
}

func TestRequestFallsBackOnEmptyStream(t *testing.T) {
	srv := sseServer(t, []string{"data: [DONE]\n\n"})
	defer srv.Close()

	c := NewStreamClient(srv.URL, "key", "test-model", testLogger())

	res := c.Request(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, nil)

	assert.Equal(t, fallbackReply, res.Text)
	assert.Equal(t, fallbackReply, res.RawText)
}

func TestStreamDeltasProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such model", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewStreamClient(srv.URL, "key", "test-model", testLogger())

	err := c.StreamDeltas(context.Background(), Exchange{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, func(delta string) error { return nil })

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusNotFound, perr.Code)
	assert.Contains(t, perr.Message, "no such model")
}

func TestBuildWireMessagesImageAttachment(t *testing.T) {
	msgs := buildWireMessages(Exchange{
		System:   "be helpful",
		Messages: []Message{{Role: RoleUser, Content: "what is this?"}},
		Image:    &ImageAttachment{MimeType: "image/png", Data: "aGk="},
	})

	require.Len(t, msgs, 2)
	assert.Equal(t, RoleSystem, msgs[0].Role)

	parts, ok := msgs[1].Content.([]wirePart)
	require.True(t, ok)
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].Type)
	assert.Equal(t, "what is this?", parts[0].Text)
	assert.Equal(t, "image_url", parts[1].Type)
	assert.Equal(t, "data:image/png;base64,aGk=", parts[1].ImageURL.URL)
}
