package watchlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

const (
	createWatchlistsTable = `create table if not exists watchlists (
	key        text primary key,
	payload    bytea not null,
	updated_at timestamptz not null default now()
)`
	selectWatchlist = `select payload from watchlists where key = $1`
	upsertWatchlist = `insert into watchlists (key, payload, updated_at) values ($1, $2, now())
on conflict (key) do update set payload = excluded.payload, updated_at = excluded.updated_at`
)

// PostgresStorage keeps one row per key in the watchlists table.
type PostgresStorage struct {
	conn sqlx.SqlConn
}

func NewPostgresStorage(conn sqlx.SqlConn) *PostgresStorage {
	return &PostgresStorage{conn: conn}
}

// EnsureSchema creates the watchlists table when it does not exist.
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	if _, err := p.conn.ExecCtx(ctx, createWatchlistsTable); err != nil {
		return fmt.Errorf("watchlist: create table: %w", err)
	}
	return nil
}

type watchlistRow struct {
	Payload []byte `db:"payload"`
}

func (p *PostgresStorage) Load(ctx context.Context, key string) ([]byte, error) {
	var row watchlistRow
	err := p.conn.QueryRowCtx(ctx, &row, selectWatchlist, key)
	switch {
	case errors.Is(err, sqlx.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("watchlist: select %s: %w", key, err)
	}
	return row.Payload, nil
}

func (p *PostgresStorage) Save(ctx context.Context, key string, payload []byte) error {
	if _, err := p.conn.ExecCtx(ctx, upsertWatchlist, key, payload); err != nil {
		return fmt.Errorf("watchlist: upsert %s: %w", key, err)
	}
	return nil
}
