// Package agent runs the knowledge-augmented conversation loop: retrieve
// context, replay session history, call the chat model, persist the turn.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/libbotai/libbot/internal/chat"
	"github.com/libbotai/libbot/internal/knowledge"
)

// Searcher retrieves knowledge chunks for a query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]knowledge.Scored, error)
	TopK() int
}

// HistoryStore reads and appends session conversation turns.
type HistoryStore interface {
	Append(ctx context.Context, sessionID, role, content string) error
	Recent(ctx context.Context, sessionID string, n int) ([]HistoryEntry, error)
}

// HistoryEntry is one stored turn as the agent consumes it.
type HistoryEntry struct {
	Role    string
	Content string
}

// Agent answers one user message per Run call.
type Agent struct {
	logger        *slog.Logger
	provider      chat.Provider
	searcher      Searcher
	history       HistoryStore
	persona       Persona
	historyWindow int
}

// New creates the agent. Searcher and history may be nil; the agent then
// answers from the model alone.
func New(log *slog.Logger, provider chat.Provider, searcher Searcher, history HistoryStore, persona Persona, historyWindow int) *Agent {
	if log == nil {
		log = slog.Default()
	}
	return &Agent{
		logger:        log.With(slog.String("service", "agent")),
		provider:      provider,
		searcher:      searcher,
		history:       history,
		persona:       persona,
		historyWindow: historyWindow,
	}
}

// Run produces a reply for the session. Retrieval and history failures
// degrade to answering without that context; only a chat-model failure is
// returned to the caller.
func (a *Agent) Run(ctx context.Context, text string, sessionID string) (string, error) {
	if a.provider == nil {
		return "", fmt.Errorf("chat provider not configured")
	}

	var hits []knowledge.Scored
	if a.searcher != nil {
		found, err := a.searcher.Search(ctx, text, a.searcher.TopK())
		if err != nil {
			a.logger.Warn("knowledge search failed, answering without context",
				slog.String("session", sessionID),
				slog.Any("error", err))
		} else {
			hits = found
		}
	}

	messages := []chat.Message{{Role: chat.RoleSystem, Content: systemPrompt(a.persona, hits)}}
	if a.history != nil && a.historyWindow > 0 {
		entries, err := a.history.Recent(ctx, sessionID, a.historyWindow*2)
		if err != nil {
			a.logger.Warn("history load failed, answering without history",
				slog.String("session", sessionID),
				slog.Any("error", err))
		} else {
			for _, entry := range entries {
				messages = append(messages, chat.Message{Role: entry.Role, Content: entry.Content})
			}
		}
	}
	messages = append(messages, chat.Message{Role: chat.RoleUser, Content: text})

	reply, err := a.provider.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat model: %w", err)
	}

	if a.history != nil {
		if err := a.history.Append(ctx, sessionID, chat.RoleUser, text); err != nil {
			a.logger.Warn("persist user turn failed", slog.String("session", sessionID), slog.Any("error", err))
		}
		if err := a.history.Append(ctx, sessionID, chat.RoleAssistant, reply); err != nil {
			a.logger.Warn("persist assistant turn failed", slog.String("session", sessionID), slog.Any("error", err))
		}
	}
	return reply, nil
}
