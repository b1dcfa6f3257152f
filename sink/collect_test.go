package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	xsax "github.com/qydysky/xsax"
)

const testDoc = `<r a="1"><c>text &amp; more</c><!-- note --></r>`

func drive(t *testing.T, s xsax.Sink, chunks ...string) {
	t.Helper()
	p := xsax.NewParser(s, xsax.WithStrict(true))
	for _, c := range chunks {
		if err := p.Write(c); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.End(); err != nil {
		t.Fatal(err)
	}
}

func TestCollectFingerprintChunkingStable(t *testing.T) {
	whole := NewCollect()
	drive(t, whole.Sink(), testDoc)

	split := NewCollect()
	drive(t, split.Sink(), testDoc[:7], testDoc[7:20], testDoc[20:])

	if whole.Fingerprint() == "" {
		t.Fatal("empty fingerprint")
	}
	if whole.Fingerprint() != split.Fingerprint() {
		t.Fatal("fingerprint depends on chunking")
	}
	if len(whole.Events) != len(split.Events) {
		t.Fatalf("event counts differ: %d vs %d", len(whole.Events), len(split.Events))
	}
}

func TestCollectFingerprintDistinguishesKinds(t *testing.T) {
	a := NewCollect()
	drive(t, a.Sink(), `<r><!--x--></r>`)
	b := NewCollect()
	drive(t, b.Sink(), `<r>x</r>`)
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("comment and text collided")
	}
}

func TestRecordOf(t *testing.T) {
	c := NewCollect()
	drive(t, c.Sink(), testDoc)

	kinds := map[string]bool{}
	for i, e := range c.Events {
		r := RecordOf(i, e)
		kinds[r.Kind] = true
		if r.Seq != i {
			t.Fatalf("seq %d != %d", r.Seq, i)
		}
	}
	for _, want := range []string{"ready", "opentagstart", "attribute", "opentag", "text", "comment", "closetag", "end"} {
		if !kinds[want] {
			t.Fatalf("missing kind %q in %v", want, kinds)
		}
	}
}

func TestSqliteStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSqlite(ctx, ":memory:", "run-1")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	drive(t, store.Sink(), testDoc)
	if store.Err() != nil {
		t.Fatal(store.Err())
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Fatal("no rows stored")
	}
}

func TestSqlTxRollsBackOnError(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := BeginTx[any](db, ctx, &sql.TxOptions{}).Do(SqlFunc[any]{
		Ty:    Execf,
		Ctx:   ctx,
		Query: "create table t (x text)",
	}).Fin(); err != nil {
		t.Fatal(err)
	}

	err = BeginTx[any](db, ctx, &sql.TxOptions{}).Do(SqlFunc[any]{
		Ty:    Execf,
		Ctx:   ctx,
		Query: "insert into t values (?)",
		Args:  []any{"kept?"},
	}).Do(SqlFunc[any]{
		Ty:    Execf,
		Ctx:   ctx,
		Query: "insert into no_such_table values (1)",
	}).Fin()
	if err == nil {
		t.Fatal("want error")
	}

	var n int
	if err := db.QueryRow("select count(*) from t").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rollback left %d rows", n)
	}
}

func TestWSHubBroadcast(t *testing.T) {
	hub := NewWSHub()
	defer hub.Close()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	for i := 0; hub.Viewers() == 0 && i < 100; i++ {
		time.Sleep(10 * time.Millisecond)
	}

	drive(t, hub.Sink(), testDoc)

	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatal(err)
	}
	if r.Kind != "ready" {
		t.Fatalf("first frame kind = %q", r.Kind)
	}
}
