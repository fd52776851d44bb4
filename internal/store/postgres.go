package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PratikDhanave/sms-webhook-inbox/internal/models"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore is the durable persistence layer for messages.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ MessageStore = (*PostgresStore)(nil)

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
func NewPostgresStore(dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool, now: time.Now}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// Ping is used by readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// Insert persists msg and returns inserted=false when message_id already
// exists. Duplicate detection is the primary key constraint; the existing
// row, including its created_at, is left untouched.
func (p *PostgresStore) Insert(ctx context.Context, msg models.Message) (bool, error) {
	if msg.MessageID == "" {
		return false, errors.New("store: message_id required")
	}

	// RETURNING 1 only when inserted; duplicates return no rows.
	var one int
	err := p.pool.QueryRow(ctx, `
		INSERT INTO messages(message_id, from_msisdn, to_msisdn, ts, text, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (message_id) DO NOTHING
		RETURNING 1
	`, msg.MessageID, msg.From, msg.To, msg.TS, msg.Text, createdAt(p.now())).Scan(&one)

	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("store: insert message: %w", err)
}

// Query returns one page of matching messages ordered by (ts, message_id)
// and the number of matches ignoring pagination.
func (p *PostgresStore) Query(ctx context.Context, f QueryFilter) ([]models.Message, int, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.From != "" {
		add("from_msisdn = $%d", f.From)
	}
	if f.Since != "" {
		add("ts >= $%d", f.Since)
	}
	if f.Contains != "" {
		add("strpos(text, $%d) > 0", f.Contains)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM messages "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count messages: %w", err)
	}

	pageArgs := append(append([]any{}, args...), f.Limit, f.Offset)
	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
		SELECT message_id, from_msisdn, to_msisdn, ts, text, created_at
		FROM messages
		%s
		ORDER BY ts ASC, message_id ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2), pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: query messages: %w", err)
	}
	defer rows.Close()

	out := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.MessageID, &m.From, &m.To, &m.TS, &m.Text, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("store: scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: query messages: %w", err)
	}
	return out, total, nil
}

// Stats aggregates the whole table.
func (p *PostgresStore) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats

	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT from_msisdn), MIN(ts), MAX(ts)
		FROM messages
	`).Scan(&st.TotalMessages, &st.SendersCount, &st.FirstMessageTS, &st.LastMessageTS)
	if err != nil {
		return models.Stats{}, fmt.Errorf("store: stats totals: %w", err)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT from_msisdn, COUNT(*) AS cnt
		FROM messages
		GROUP BY from_msisdn
		ORDER BY cnt DESC, from_msisdn COLLATE "C" ASC
		LIMIT $1
	`, TopSendersLimit)
	if err != nil {
		return models.Stats{}, fmt.Errorf("store: stats senders: %w", err)
	}
	defer rows.Close()

	st.MessagesPerSender = []models.SenderStats{}
	for rows.Next() {
		var s models.SenderStats
		if err := rows.Scan(&s.From, &s.Count); err != nil {
			return models.Stats{}, fmt.Errorf("store: scan sender: %w", err)
		}
		st.MessagesPerSender = append(st.MessagesPerSender, s)
	}
	if err := rows.Err(); err != nil {
		return models.Stats{}, fmt.Errorf("store: stats senders: %w", err)
	}
	return st, nil
}
