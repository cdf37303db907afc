// Package history provides SQLite-based persistence for chat transcripts.
// An empty path keeps the database in memory for the life of the process.
// If opening the DB or executing queries fails, the store falls back to an in-memory slice.
package history

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/disha-ai/disha/internal/career"
	"github.com/disha-ai/disha/internal/logger"
)

// Entry is one persisted chat message.
type Entry struct {
	WorkspaceID string
	Message     career.Message
}

// Store persists transcript messages per workspace.
type Store struct {
	mu       sync.Mutex
	fallback []Entry

	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the transcript database at path.
func Open(path string) *Store {
	s := &Store{log: logger.For("history")}

	dsn := ":memory:"
	if path != "" {
		dsn = "file:" + path + "?_pragma=busy_timeout(10000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		s.log.Warn("sqlite open failed; using in-memory history", "error", err)
		return s
	}
	// A single connection keeps one shared :memory: database.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS messages (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        workspace_id TEXT NOT NULL,
        message_id TEXT NOT NULL,
        role TEXT NOT NULL,
        content TEXT NOT NULL,
        created_at INTEGER NOT NULL
    );`); err != nil {
		s.log.Warn("sqlite table creation failed; using in-memory history", "error", err)
		db.Close()
		return s
	}
	s.db = db
	s.log.Info("sqlite history DB initialized", "path", path)
	return s
}

// Save appends msg to the workspace transcript.
func (s *Store) Save(ctx context.Context, workspaceID string, msg career.Message) {
	if s.db != nil {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO messages (workspace_id, message_id, role, content, created_at) VALUES (?,?,?,?,?);`,
			workspaceID, msg.ID, string(msg.Role), msg.Text, msg.Timestamp.UnixMilli())
		if err == nil {
			return
		}
		s.log.Error("failed to store message in sqlite; falling back to memory", "error", err)
	}

	s.mu.Lock()
	s.fallback = append(s.fallback, Entry{WorkspaceID: workspaceID, Message: msg})
	s.mu.Unlock()
}

// List returns the messages of a workspace in the order they were saved.
func (s *Store) List(ctx context.Context, workspaceID string) []career.Message {
	var out []career.Message
	if s.db != nil {
		rows, err := s.db.QueryContext(ctx,
			`SELECT message_id, role, content, created_at FROM messages WHERE workspace_id = ? ORDER BY seq ASC;`,
			workspaceID)
		if err == nil {
			defer rows.Close()
			for rows.Next() {
				var (
					m    career.Message
					role string
					ms   int64
				)
				if err := rows.Scan(&m.ID, &role, &m.Text, &ms); err != nil {
					s.log.Warn("skipping unreadable history row", "error", err)
					continue
				}
				m.Role = career.Role(role)
				m.Timestamp = time.UnixMilli(ms)
				out = append(out, m)
			}
		} else {
			s.log.Error("history query failed", "error", err)
		}
	}

	s.mu.Lock()
	for _, e := range s.fallback {
		if e.WorkspaceID == workspaceID {
			out = append(out, e.Message)
		}
	}
	s.mu.Unlock()
	return out
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
