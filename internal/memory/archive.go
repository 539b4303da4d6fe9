// Archive Database collaborator: indexes completed memory-journal
// entries so the archive agent's "indexed_items"/"retrieval_score"
// output and the /miq-archive-search slash command have something real
// to query. FTS5 when the build supports it, LIKE fallback otherwise.
package memory

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ArchivedEntry is a memory-journal entry preserved for full-text search.
type ArchivedEntry struct {
	ID         string    `json:"id"`
	AgentKey   string    `json:"agent_key"`
	TaskID     string    `json:"task_id"`
	Content    string    `json:"content"` // input+output summary, concatenated
	Success    bool      `json:"success"`
	Timestamp  time.Time `json:"timestamp"`
	ArchivedAt time.Time `json:"archived_at"`
}

// SearchResult is a single full-text hit, with the snippet used to
// build the highlight shown in the archive agent's card.
type SearchResult struct {
	Entry     ArchivedEntry `json:"entry"`
	Highlight string        `json:"highlight,omitempty"`
}

// ArchiveStore indexes journal entries in a pure-Go SQLite database.
type ArchiveStore struct {
	db         *sql.DB
	ftsEnabled bool
}

// NewArchiveStore opens (creating if needed) the archive database at
// dbPath. Pass nil logger to suppress startup logging.
func NewArchiveStore(dbPath string, logger *slog.Logger) (*ArchiveStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}

	s := &ArchiveStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive migrate: %w", err)
	}
	s.ftsEnabled = s.tryEnableFTS()

	if logger != nil {
		logger.Info("archive database initialized", "path", dbPath, "fts5", s.ftsEnabled)
	}
	return s, nil
}

func (s *ArchiveStore) FTSEnabled() bool { return s.ftsEnabled }

func (s *ArchiveStore) Close() error { return s.db.Close() }

func (s *ArchiveStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS archive_entries (
			id TEXT PRIMARY KEY,
			agent_key TEXT NOT NULL,
			task_id TEXT NOT NULL,
			content TEXT NOT NULL,
			success INTEGER NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			archived_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_archive_agent ON archive_entries(agent_key, timestamp);
	`)
	return err
}

func (s *ArchiveStore) tryEnableFTS() bool {
	_, err := s.db.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS archive_fts USING fts5(
			content, content=archive_entries, content_rowid=rowid
		);
	`)
	return err == nil
}

// IndexEntry archives one journal entry, syncing the FTS index when available.
func (s *ArchiveStore) IndexEntry(agentKey, taskID, content string, success bool, ts time.Time) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate archive entry id: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO archive_entries (id, agent_key, task_id, content, success, timestamp, archived_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.String(), agentKey, taskID, content, success,
		ts.Format(time.RFC3339Nano), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("index entry: %w", err)
	}

	if s.ftsEnabled {
		rowID, err := result.LastInsertId()
		if err == nil {
			_, _ = s.db.Exec(`INSERT INTO archive_fts(rowid, content) VALUES (?, ?)`, rowID, content)
		}
	}
	return nil
}

// Search runs a full-text query, falling back to LIKE if FTS5 is unavailable.
func (s *ArchiveStore) Search(query string, agentKey string, limit int) ([]SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = 10
	}

	var rows *sql.Rows
	var err error

	if s.ftsEnabled {
		sqlq := `
			SELECT ae.id, ae.agent_key, ae.task_id, ae.content, ae.success, ae.timestamp, ae.archived_at,
			       snippet(archive_fts, 0, '**', '**', '...', 32)
			FROM archive_fts
			JOIN archive_entries ae ON archive_fts.rowid = ae.rowid
			WHERE archive_fts MATCH ?`
		args := []any{query}
		if agentKey != "" {
			sqlq += " AND ae.agent_key = ?"
			args = append(args, agentKey)
		}
		sqlq += " ORDER BY rank LIMIT ?"
		args = append(args, limit)
		rows, err = s.db.Query(sqlq, args...)
	} else {
		sqlq := `
			SELECT id, agent_key, task_id, content, success, timestamp, archived_at, ''
			FROM archive_entries WHERE content LIKE ?`
		args := []any{"%" + query + "%"}
		if agentKey != "" {
			sqlq += " AND agent_key = ?"
			args = append(args, agentKey)
		}
		sqlq += " ORDER BY timestamp DESC LIMIT ?"
		args = append(args, limit)
		rows, err = s.db.Query(sqlq, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var e ArchivedEntry
		var tsStr, archivedStr string
		var success int
		var highlight string
		if err := rows.Scan(&e.ID, &e.AgentKey, &e.TaskID, &e.Content, &success, &tsStr, &archivedStr, &highlight); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		e.Success = success != 0
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, tsStr)
		e.ArchivedAt, _ = time.Parse(time.RFC3339Nano, archivedStr)
		out = append(out, SearchResult{Entry: e, Highlight: highlight})
	}
	return out, rows.Err()
}

// Count returns the number of indexed entries, optionally filtered by agent.
func (s *ArchiveStore) Count(agentKey string) (int, error) {
	q := "SELECT COUNT(*) FROM archive_entries"
	args := []any{}
	if agentKey != "" {
		q += " WHERE agent_key = ?"
		args = append(args, agentKey)
	}
	var n int
	err := s.db.QueryRow(q, args...).Scan(&n)
	return n, err
}
