package sink

import (
	"context"

	"github.com/jackc/pgx/v5"
	xsax "github.com/qydysky/xsax"
)

// PostgresStore mirrors SqliteStore for deployments that already run
// Postgres: same row shape, batched insert through a pgx.Batch so a
// large document costs one round trip per flush rather than one per
// event.
type PostgresStore struct {
	conn  *pgx.Conn
	runID string

	pending []Record
	lastErr error
}

const postgresSchema = `create table if not exists events (
	run_id text not null,
	seq integer not null,
	kind text not null,
	name text, text text, value text,
	prefix text, local text, uri text, err text,
	primary key (run_id, seq)
)`

func OpenPostgres(ctx context.Context, dsn, runID string) (*PostgresStore, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, postgresSchema); err != nil {
		conn.Close(ctx)
		return nil, err
	}
	return &PostgresStore{conn: conn, runID: runID}, nil
}

func (s *PostgresStore) Sink() xsax.Sink {
	return xsax.FuncSink(func(e xsax.Event) {
		s.pending = append(s.pending, RecordOf(len(s.pending), e))
		if e.Kind == xsax.EventEnd {
			s.lastErr = s.flush(context.Background())
		}
	})
}

func (s *PostgresStore) flush(ctx context.Context) error {
	batch := &pgx.Batch{}
	for _, r := range s.pending {
		batch.Queue(
			`insert into events values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			s.runID, r.Seq, r.Kind, r.Name, r.Text, r.Value, r.Prefix, r.Local, r.URI, r.Err,
		)
	}
	s.pending = s.pending[:0]
	return s.conn.SendBatch(ctx, batch).Close()
}

func (s *PostgresStore) Err() error { return s.lastErr }

func (s *PostgresStore) Close(ctx context.Context) error { return s.conn.Close(ctx) }
