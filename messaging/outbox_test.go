package messaging

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"qreport/config"
	"qreport/store"
)

func newOutboxDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: store.DriverSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Publishing needs a broker; offline behavior doesn't, and that is the
// path the device lives on most of the day.
func TestDrainLeavesOutboxWhenDisconnected(t *testing.T) {
	db := newOutboxDB(t)
	cfg := config.Defaults()

	if _, err := db.EnqueueOutbox("field", []byte(`{"checkup_uuid":"cu-1"}`), TypeCheckUpCompleted); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	client := NewClient(&cfg.Messaging, zap.NewNop().Sugar())
	d := NewOutboxDrainer(db, client, cfg, zap.NewNop().Sugar())
	d.drain()

	pending, err := db.CountPendingOutbox()
	if err != nil {
		t.Fatalf("count pending: %v", err)
	}
	if pending != 1 {
		t.Errorf("pending = %d, want 1 (message must wait for the broker)", pending)
	}
}

func TestProgressReporterDirtySet(t *testing.T) {
	db := newOutboxDB(t)
	cfg := config.Defaults()

	client := NewClient(&cfg.Messaging, zap.NewNop().Sugar())
	pr := NewProgressReporter(client, db, cfg, zap.NewNop().Sugar())

	pr.RecordActivity(7)
	pr.RecordActivity(7)
	pr.RecordActivity(9)

	pr.mu.Lock()
	n := len(pr.dirty)
	pr.mu.Unlock()
	if n != 2 {
		t.Errorf("dirty set = %d entries, want 2", n)
	}

	// A disconnected flush keeps the digests for the next interval
	pr.flush()
	pr.mu.Lock()
	n = len(pr.dirty)
	pr.mu.Unlock()
	if n != 2 {
		t.Errorf("dirty set = %d entries after offline flush, want 2", n)
	}
}
