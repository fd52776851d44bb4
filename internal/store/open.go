package store

import (
	"errors"
	"strings"
)

// Open picks a backend from the DATABASE_URL scheme:
//
//	postgres://..., postgresql://...  -> PostgresStore
//	sqlite:///abs/path.db, sqlite://rel.db, plain path -> SQLiteStore
func Open(databaseURL string) (MessageStore, error) {
	url := strings.TrimSpace(databaseURL)
	switch {
	case url == "":
		return nil, errors.New("store: database url required")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return NewPostgresStore(url)
	default:
		return NewSQLiteStore(SQLitePath(url))
	}
}

// SQLitePath strips the sqlite:// scheme. sqlite:////data/app.db names the
// absolute path /data/app.db, sqlite:///app.db the relative path app.db.
func SQLitePath(url string) string {
	switch {
	case strings.HasPrefix(url, "sqlite:///"):
		return strings.TrimPrefix(url, "sqlite:///")
	case strings.HasPrefix(url, "sqlite://"):
		return strings.TrimPrefix(url, "sqlite://")
	default:
		return url
	}
}
