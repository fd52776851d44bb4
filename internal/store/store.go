package store

import (
	"context"
	"time"

	"github.com/PratikDhanave/sms-webhook-inbox/internal/models"
)

// TopSendersLimit caps messages_per_sender in Stats.
const TopSendersLimit = 10

// MessageStore is the durable messages table.
//
// Insert is idempotent on message_id. The uniqueness check and the row
// creation are a single statement, so under concurrent deliveries of the same
// id exactly one caller observes inserted=true.
type MessageStore interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, msg models.Message) (bool, error)
	Query(ctx context.Context, f QueryFilter) ([]models.Message, int, error)
	Stats(ctx context.Context) (models.Stats, error)
	Ping(ctx context.Context) error
	Close() error
}

// QueryFilter selects and pages messages. Empty filter strings are ignored.
type QueryFilter struct {
	Limit    int
	Offset   int
	From     string // exact sender match
	Since    string // ts >= Since, compared byte-wise
	Contains string // case-sensitive substring of text
}

// createdAt formats the server ingestion time the way ts values are written.
func createdAt(now time.Time) string {
	return now.UTC().Format("2006-01-02T15:04:05.000000Z")
}
