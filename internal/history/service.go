// Package history persists per-session conversation history in Postgres,
// keyed by the channel session key.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one stored conversation turn.
type Entry struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Service reads and writes session history rows.
type Service struct {
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// NewService creates a history service.
func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		logger: log.With(slog.String("service", "history")),
		pool:   pool,
	}
}

// Append stores one turn for the session.
func (s *Service) Append(ctx context.Context, sessionID, role, content string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO session_messages (id, session_id, role, content) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), sessionID, role, content)
	if err != nil {
		return fmt.Errorf("insert session message: %w", err)
	}
	return nil
}

// Recent returns the session's last n turns in chronological order.
func (s *Service) Recent(ctx context.Context, sessionID string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, role, content, created_at
		 FROM session_messages
		 WHERE session_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("query session messages: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, n)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Role, &e.Content, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session message: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session messages: %w", err)
	}

	// Newest-first from the query; the agent wants oldest-first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
