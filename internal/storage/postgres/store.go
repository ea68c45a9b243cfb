package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pairpool/internal/model"
)

// Store provides Postgres persistence for pool events and state snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InsertEvents appends event records, skipping already-stored sequence
// numbers so replays are idempotent.
func (s *Store) InsertEvents(ctx context.Context, events []model.EventRecord) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(`
			INSERT INTO pool_events (
				pool_address, seq, event_name, event_ts, data, ingested_at
			) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (pool_address, seq) DO NOTHING
		`,
			ev.Pool,
			int64(ev.Seq),
			ev.EventName,
			int64(ev.Timestamp),
			[]byte(ev.Data),
			ev.IngestedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertPoolState inserts or updates committed pool state snapshots.
func (s *Store) UpsertPoolState(ctx context.Context, states []model.PoolState) error {
	if len(states) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, st := range states {
		batch.Queue(`
			INSERT INTO pool_state (
				pool_address, token0, token1, reserve0, reserve1, total_shares,
				price0_cumulative, price1_cumulative, block_timestamp_last, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				reserve0 = EXCLUDED.reserve0,
				reserve1 = EXCLUDED.reserve1,
				total_shares = EXCLUDED.total_shares,
				price0_cumulative = EXCLUDED.price0_cumulative,
				price1_cumulative = EXCLUDED.price1_cumulative,
				block_timestamp_last = EXCLUDED.block_timestamp_last,
				updated_at = now()
		`,
			st.Pool,
			st.Token0,
			st.Token1,
			st.Reserve0,
			st.Reserve1,
			st.TotalShares,
			st.Price0Cumulative,
			st.Price1Cumulative,
			int64(st.BlockTimestampLast),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range states {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutEventBatch adapts the store to the storage.EventSink interface.
func (s *Store) PutEventBatch(events []model.EventRecord) error {
	return s.InsertEvents(context.Background(), events)
}
