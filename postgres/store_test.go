package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/velmie/eventqueue"
)

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.value
	return nil
}

type fakeDB struct {
	rows    map[string]string
	execs   []string
	args    [][]any
	execErr error
	pingErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: make(map[string]string)}
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execs = append(db.execs, sql)
	db.args = append(db.args, args)
	if db.execErr != nil {
		return pgconn.CommandTag{}, db.execErr
	}
	switch {
	case strings.HasPrefix(sql, "INSERT"):
		db.rows[args[0].(string)] = args[1].(string)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.HasPrefix(sql, "DELETE"):
		delete(db.rows, args[0].(string))
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (db *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	value, ok := db.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: value}
}

func (db *fakeDB) Ping(context.Context) error {
	return db.pingErr
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func TestNewStoreRequiresDB(t *testing.T) {
	if _, err := NewStore(nil); !errors.Is(err, ErrDBRequired) {
		t.Fatalf("expected ErrDBRequired, got %v", err)
	}
}

func TestNewStoreRejectsInvalidTable(t *testing.T) {
	if _, err := NewStore(newFakeDB(), WithTable("kv drop")); !errors.Is(err, ErrInvalidTableName) {
		t.Fatalf("expected ErrInvalidTableName, got %v", err)
	}
}

func TestStoreGetSetRemove(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store, err := NewStore(db, WithClock(fixedClock{now: now}))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, ok, err := store.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "k", "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !strings.Contains(db.execs[0], "ON CONFLICT (store_key) DO UPDATE") {
		t.Fatalf("expected upsert, got %s", db.execs[0])
	}
	if got := db.args[0][2]; got != now {
		t.Fatalf("expected updated_at %v, got %v", now, got)
	}

	value, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || value != "[]" {
		t.Fatalf("unexpected get: %q %v %v", value, ok, err)
	}

	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(newFakeDB())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, _, err := store.Get(ctx, ""); !errors.Is(err, ErrKeyRequired) {
		t.Fatalf("expected ErrKeyRequired, got %v", err)
	}
	if err := store.Set(ctx, "", "v"); !errors.Is(err, ErrKeyRequired) {
		t.Fatalf("expected ErrKeyRequired, got %v", err)
	}
	if err := store.Remove(ctx, ""); !errors.Is(err, ErrKeyRequired) {
		t.Fatalf("expected ErrKeyRequired, got %v", err)
	}
}

func TestStoreWrapsQueryErrors(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	db.execErr = errors.New("conn reset")
	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.Set(ctx, "k", "v"); err == nil || !strings.Contains(err.Error(), "conn reset") {
		t.Fatalf("expected wrapped exec error, got %v", err)
	}
	if err := store.EnsureSchema(ctx); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestSchema(t *testing.T) {
	schema, err := Schema("app.eventqueue_kv")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS app.eventqueue_kv") {
		t.Fatalf("unexpected schema: %s", schema)
	}
	if _, err := Schema(""); !errors.Is(err, ErrInvalidTableName) {
		t.Fatalf("expected ErrInvalidTableName, got %v", err)
	}
}

func TestProviderCreatesSchema(t *testing.T) {
	db := newFakeDB()
	storage, err := Provider(db, WithCreateSchema(true))(context.Background())
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	if _, ok := storage.(*Store); !ok {
		t.Fatalf("expected *Store, got %T", storage)
	}
	if len(db.execs) != 1 || !strings.HasPrefix(db.execs[0], "CREATE TABLE") {
		t.Fatalf("expected schema creation, got %v", db.execs)
	}
}

func TestProviderReportsUnavailable(t *testing.T) {
	db := newFakeDB()
	db.pingErr = errors.New("refused")

	_, err := Provider(db)(context.Background())
	if !errors.Is(err, eventqueue.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}

	storage := eventqueue.NewResolver(Provider(db), nil).Resolve(context.Background())
	if _, ok := storage.(*eventqueue.MemoryStorage); !ok {
		t.Fatalf("expected memory fallback, got %T", storage)
	}
}
