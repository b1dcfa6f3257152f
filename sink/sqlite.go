package sink

import (
	"context"
	"database/sql"

	xsax "github.com/qydysky/xsax"
	_ "modernc.org/sqlite"
)

// SqliteStore writes one row per emitted event. Events are staged in
// memory and flushed in a single transaction on end, so a crashed
// parse leaves no half-document behind.
type SqliteStore struct {
	db    *sql.DB
	runID string

	pending []Record
	lastErr error
}

const sqliteSchema = `create table if not exists events (
	run_id text not null,
	seq integer not null,
	kind text not null,
	name text, text text, value text,
	prefix text, local text, uri text, err text,
	primary key (run_id, seq)
)`

// OpenSqlite opens (or creates) the event store at path. runID keys
// this parse's rows; pass a fresh uuid per run.
func OpenSqlite(ctx context.Context, path, runID string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A :memory: DSN gives every pooled connection its own database;
	// pin the pool to one connection so the schema and the inserts
	// agree on which database they are talking to.
	db.SetMaxOpenConns(1)
	if err := BeginTx[any](db, ctx, &sql.TxOptions{}).Do(SqlFunc[any]{
		Ty:    Execf,
		Ctx:   ctx,
		Query: sqliteSchema,
	}).Fin(); err != nil {
		db.Close()
		return nil, err
	}
	return &SqliteStore{db: db, runID: runID}, nil
}

// Sink stages each event; the flush to disk happens on EventEnd.
func (s *SqliteStore) Sink() xsax.Sink {
	return xsax.FuncSink(func(e xsax.Event) {
		s.pending = append(s.pending, RecordOf(len(s.pending), e))
		if e.Kind == xsax.EventEnd {
			s.lastErr = s.flush(context.Background())
		}
	})
}

func (s *SqliteStore) flush(ctx context.Context) error {
	tx := BeginTx[any](s.db, ctx, &sql.TxOptions{})
	for _, r := range s.pending {
		tx = tx.Do(SqlFunc[any]{
			Ty:    Execf,
			Ctx:   ctx,
			Query: `insert into events values (?,?,?,?,?,?,?,?,?,?)`,
			Args:  []any{s.runID, r.Seq, r.Kind, r.Name, r.Text, r.Value, r.Prefix, r.Local, r.URI, r.Err},
		})
	}
	s.pending = s.pending[:0]
	return tx.Fin()
}

// Err reports the outcome of the last flush.
func (s *SqliteStore) Err() error { return s.lastErr }

func (s *SqliteStore) Close() error { return s.db.Close() }

// Count returns how many rows this run has stored.
func (s *SqliteStore) Count(ctx context.Context) (n int, err error) {
	err = BeginTx[int](s.db, ctx, &sql.TxOptions{ReadOnly: true}).Do(SqlFunc[int]{
		Ty:    Queryf,
		Ctx:   ctx,
		Query: `select count(*) from events where run_id = ?`,
		Args:  []any{s.runID},
		AfterQF: func(dataP *int, rows *sql.Rows, txE error) (*int, error) {
			for rows.Next() {
				if err := rows.Scan(&n); err != nil {
					return nil, err
				}
			}
			return nil, rows.Err()
		},
	}).Fin()
	return
}
