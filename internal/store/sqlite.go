package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/PratikDhanave/sms-webhook-inbox/internal/models"
)

//go:embed schema_sqlite.sql
var sqliteSchemaSQL string

// SQLiteStore keeps messages in a local SQLite file. Use ":memory:" for an
// in-memory database; it is pinned to a single connection.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ MessageStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("store: sqlite path required")
	}

	dsn := sqliteDSN(path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	if path == ":memory:" {
		// every new connection would see its own empty database
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchemaSQL); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Insert relies on the primary key: a conflicting row is skipped and
// reported as zero rows affected.
func (s *SQLiteStore) Insert(ctx context.Context, msg models.Message) (bool, error) {
	if msg.MessageID == "" {
		return false, errors.New("store: message_id required")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages(message_id, from_msisdn, to_msisdn, ts, text, created_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT (message_id) DO NOTHING
	`, msg.MessageID, msg.From, msg.To, msg.TS, msg.Text, createdAt(s.now()))
	if err != nil {
		return false, fmt.Errorf("store: insert message: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: insert message: %w", err)
	}
	return n == 1, nil
}

func (s *SQLiteStore) Query(ctx context.Context, f QueryFilter) ([]models.Message, int, error) {
	var (
		conds []string
		args  []any
	)
	if f.From != "" {
		conds = append(conds, "from_msisdn = ?")
		args = append(args, f.From)
	}
	if f.Since != "" {
		conds = append(conds, "ts >= ?")
		args = append(args, f.Since)
	}
	if f.Contains != "" {
		// instr is case-sensitive, LIKE is not
		conds = append(conds, "instr(text, ?) > 0")
		args = append(args, f.Contains)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count messages: %w", err)
	}

	pageArgs := append(append([]any{}, args...), f.Limit, f.Offset)
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, from_msisdn, to_msisdn, ts, text, created_at
		FROM messages
		`+where+`
		ORDER BY ts ASC, message_id ASC
		LIMIT ? OFFSET ?
	`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: query messages: %w", err)
	}
	defer rows.Close()

	out := []models.Message{}
	for rows.Next() {
		var (
			m    models.Message
			text sql.NullString
		)
		if err := rows.Scan(&m.MessageID, &m.From, &m.To, &m.TS, &text, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("store: scan message: %w", err)
		}
		if text.Valid {
			t := text.String
			m.Text = &t
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: query messages: %w", err)
	}
	return out, total, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (models.Stats, error) {
	var (
		st          models.Stats
		first, last sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT from_msisdn), MIN(ts), MAX(ts)
		FROM messages
	`).Scan(&st.TotalMessages, &st.SendersCount, &first, &last)
	if err != nil {
		return models.Stats{}, fmt.Errorf("store: stats totals: %w", err)
	}
	if first.Valid {
		st.FirstMessageTS = &first.String
	}
	if last.Valid {
		st.LastMessageTS = &last.String
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT from_msisdn, COUNT(*) AS cnt
		FROM messages
		GROUP BY from_msisdn
		ORDER BY cnt DESC, from_msisdn ASC
		LIMIT ?
	`, TopSendersLimit)
	if err != nil {
		return models.Stats{}, fmt.Errorf("store: stats senders: %w", err)
	}
	defer rows.Close()

	st.MessagesPerSender = []models.SenderStats{}
	for rows.Next() {
		var sender models.SenderStats
		if err := rows.Scan(&sender.From, &sender.Count); err != nil {
			return models.Stats{}, fmt.Errorf("store: scan sender: %w", err)
		}
		st.MessagesPerSender = append(st.MessagesPerSender, sender)
	}
	if err := rows.Err(); err != nil {
		return models.Stats{}, fmt.Errorf("store: stats senders: %w", err)
	}
	return st, nil
}

// sqliteDSN adds WAL and busy-timeout options, keeping any query string the
// caller already put on path.
func sqliteDSN(path string) string {
	if path == ":memory:" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_journal_mode=WAL&_busy_timeout=5000"
}
