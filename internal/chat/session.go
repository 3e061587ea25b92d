package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/shopmate/internal/domain"
	"github.com/freshcart/shopmate/internal/llm"
	"github.com/freshcart/shopmate/internal/logging"
)

// ErrNilCatalog is returned by Start and Resume when no catalog snapshot
// is supplied. An empty catalog is fine; a missing one is a caller bug.
var ErrNilCatalog = errors.New("chat: catalog snapshot is required")

// ErrEmptyMessage is returned by Send when there is nothing to send.
var ErrEmptyMessage = errors.New("chat: message has no text and no image")

// HistoryEntry is an externally persisted transcript entry handed to
// Resume. Entries still mid-stream or with a system role are discarded
// during rebuild.
type HistoryEntry struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Streaming bool   `json:"streaming,omitempty"`
}

// Session is one shopping-assistant conversation. It owns the transcript
// and the cached snapshots the system instruction is rendered from.
//
// A session is not safe for concurrent use: callers issue at most one
// Send at a time, matching the one-exchange-per-conversation shape of the
// chat UI. Independent sessions may run concurrently.
type Session struct {
	ID string

	client llm.Completer
	prompt PromptBuilder
	log    *logging.Logger
	now    func() time.Time

	catalog *domain.Catalog
	user    *domain.UserProfile
	orders  []domain.Order
	cart    []domain.CartLine

	turns []domain.Turn
}

// NewSession creates an empty session bound to a completion client.
// Start or Resume must be called before Send.
func NewSession(client llm.Completer, log *logging.Logger) *Session {
	return &Session{
		ID:     uuid.NewString(),
		client: client,
		prompt: StorePromptBuilder{},
		log:    log.Sub("chat"),
		now:    time.Now,
	}
}

// Start resets the session for a fresh conversation and caches the given
// snapshots for prompt building. catalog must be non-nil; user may be nil
// for an anonymous visitor.
//
// When productContext is supplied the transcript is seeded with a
// synthetic user turn asking the assistant to introduce that product, and
// Start returns an empty greeting: the caller is expected to follow up
// with an immediate Send to fetch the assistant's opener. Without product
// context a locally generated greeting is appended as the sole assistant
// turn and returned, skipping the network round-trip.
func (s *Session) Start(catalog *domain.Catalog, user *domain.UserProfile, productContext *domain.CatalogItem, orders []domain.Order, cart []domain.CartLine) (string, error) {
	if catalog == nil {
		return "", ErrNilCatalog
	}
	s.catalog = catalog
	s.user = user
	s.orders = orders
	s.cart = cart
	s.turns = nil

	if productContext != nil {
		seed := fmt.Sprintf(
			"I'm looking at %s. Briefly introduce it and tell me why I might want it.",
			productContext.Name)
		s.append(domain.RoleUser, seed)
		s.log.Debug().Str("session", s.ID).Str("product", productContext.ID).Msg("session seeded with product context")
		return "", nil
	}

	greeting := s.greeting()
	s.append(domain.RoleAssistant, greeting)
	s.log.Debug().Str("session", s.ID).Msg("session started with local greeting")
	return greeting, nil
}

// Resume rebuilds the transcript from externally held history, refreshing
// the cached snapshots at the same time. System-role entries, entries
// still streaming, and empty entries are dropped; everything else maps
// onto the user/assistant role pair.
func (s *Session) Resume(catalog *domain.Catalog, user *domain.UserProfile, history []HistoryEntry, orders []domain.Order, cart []domain.CartLine) error {
	if catalog == nil {
		return ErrNilCatalog
	}
	s.catalog = catalog
	s.user = user
	s.orders = orders
	s.cart = cart
	s.turns = nil

	for _, h := range history {
		if h.Streaming || h.Role == string(domain.RoleSystem) || strings.TrimSpace(h.Content) == "" {
			continue
		}
		role := domain.RoleUser
		if h.Role == string(domain.RoleAssistant) {
			role = domain.RoleAssistant
		}
		s.append(role, h.Content)
	}
	s.log.Debug().Str("session", s.ID).Int("turns", len(s.turns)).Msg("session resumed from history")
	return nil
}

// Send runs one exchange: append the user's turn, render a fresh system
// instruction from the cached snapshots, stream the completion, and store
// the assistant's reply. onChunk receives the cumulative text after every
// delta and may be nil.
//
// The stored assistant turn keeps the raw model output, recommendation
// block included, so future prompt context matches what the model
// produced; the returned result carries the cleaned text and the resolved
// recommendations.
//
// Send never fails on transport problems: the client degrades to a
// fallback reply, which is stored and returned like any other.
func (s *Session) Send(ctx context.Context, text string, image *llm.ImageAttachment, onChunk llm.ChunkFunc) (*llm.ExchangeResult, error) {
	if s.catalog == nil {
		return nil, ErrNilCatalog
	}

	text = strings.TrimSpace(text)
	if text == "" && image == nil {
		return nil, ErrEmptyMessage
	}
	// An image-only send must not create an empty-content turn; the image
	// rides on the request without a transcript entry.
	if text != "" {
		s.append(domain.RoleUser, text)
	}

	system := s.prompt.BuildSystemInstruction(PromptData{
		Catalog: s.catalog,
		User:    s.user,
		Orders:  s.orders,
		Cart:    s.cart,
		Now:     s.now(),
	})

	res := s.client.Request(ctx, llm.Request{
		System:   system,
		Messages: s.history(),
		Image:    image,
		Catalog:  s.catalog,
	}, onChunk)

	s.append(domain.RoleAssistant, res.RawText)
	s.log.Debug().
		Str("session", s.ID).
		Int("chars", len(res.Text)).
		Int("recommendations", len(res.Recommendations)).
		Msg("exchange complete")
	return res, nil
}

// Transcript returns a copy of the stored turns in order.
func (s *Session) Transcript() []domain.Turn {
	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// history maps the transcript into upstream messages. The system
// instruction is never part of it; it is injected per request.
func (s *Session) history() []llm.Message {
	msgs := make([]llm.Message, 0, len(s.turns))
	for _, t := range s.turns {
		msgs = append(msgs, llm.Message{Role: string(t.Role), Content: t.Content})
	}
	return msgs
}

func (s *Session) append(role domain.Role, content string) {
	s.turns = append(s.turns, domain.Turn{Role: role, Content: content, Timestamp: s.now()})
}

func (s *Session) greeting() string {
	name := ""
	if s.user != nil && s.user.Name != "" {
		name = " " + s.user.Name
	}
	switch h := s.now().Hour(); {
	case h >= 5 && h < 12:
		return fmt.Sprintf("Good morning%s! What can I help you find today?", name)
	case h >= 12 && h < 17:
		return fmt.Sprintf("Good afternoon%s! What can I help you find today?", name)
	default:
		return fmt.Sprintf("Good evening%s! What can I help you find today?", name)
	}
}
