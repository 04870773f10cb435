package messaging

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"qreport/checkup"
	"qreport/config"
	"qreport/store"
)

// ProgressReporter accumulates checklist activity per check-up and
// periodically sends checkup.progress digests to the office. Follows the
// Heartbeater pattern.
type ProgressReporter struct {
	client   *Client
	db       *store.DB
	src      Address
	dst      Address
	topic    string
	interval time.Duration
	log      *zap.SugaredLogger

	mu    sync.Mutex
	dirty map[int64]struct{}

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewProgressReporter creates a reporter for this field device.
func NewProgressReporter(client *Client, db *store.DB, cfg *config.Config, log *zap.SugaredLogger) *ProgressReporter {
	interval := cfg.Messaging.ProgressInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &ProgressReporter{
		client:   client,
		db:       db,
		src:      FieldAddress(cfg.Org, cfg.DeviceID),
		dst:      OfficeAddress(cfg.Org),
		topic:    cfg.Messaging.ReportTopic,
		interval: interval,
		log:      log,
		dirty:    make(map[int64]struct{}),
		stopCh:   make(chan struct{}),
	}
}

// RecordActivity marks a check-up as changed since the last digest.
func (pr *ProgressReporter) RecordActivity(checkupID int64) {
	pr.mu.Lock()
	pr.dirty[checkupID] = struct{}{}
	pr.mu.Unlock()
}

// Start begins the periodic flush loop.
func (pr *ProgressReporter) Start() {
	go pr.loop()
}

// Stop flushes any remaining digests and halts the loop.
func (pr *ProgressReporter) Stop() {
	pr.stopOnce.Do(func() {
		close(pr.stopCh)
		pr.flush()
	})
}

func (pr *ProgressReporter) loop() {
	ticker := time.NewTicker(pr.interval)
	defer ticker.Stop()
	for {
		select {
		case <-pr.stopCh:
			return
		case <-ticker.C:
			pr.flush()
		}
	}
}

func (pr *ProgressReporter) flush() {
	// Offline digests stay in the dirty set and flush on reconnect.
	if !pr.client.IsConnected() {
		return
	}

	pr.mu.Lock()
	if len(pr.dirty) == 0 {
		pr.mu.Unlock()
		return
	}
	// Swap out the dirty set
	snapshot := pr.dirty
	pr.dirty = make(map[int64]struct{})
	pr.mu.Unlock()

	for checkupID := range snapshot {
		pr.report(checkupID)
	}
}

// report sends one digest. Completed check-ups are skipped, their final
// report travels as checkup.completed through the outbox.
func (pr *ProgressReporter) report(checkupID int64) {
	cu, err := pr.db.GetCheckUp(checkupID)
	if err != nil {
		pr.log.Warnf("progress_reporter: load check-up %d: %v", checkupID, err)
		return
	}
	if cu.Status != checkup.StatusInProgress {
		return
	}

	counts, err := pr.db.CountItemsByStatus(checkupID)
	if err != nil {
		pr.log.Warnf("progress_reporter: count items for %d: %v", checkupID, err)
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}

	env, err := NewEnvelope(TypeCheckUpProgress, pr.src, pr.dst, &CheckUpProgress{
		CheckUpUUID: cu.UUID,
		Island:      cu.IslandName,
		Done:        total - counts[checkup.ItemPending],
		Total:       total,
		NOK:         counts[checkup.ItemNOK],
	})
	if err != nil {
		pr.log.Errorf("progress_reporter: build digest: %v", err)
		return
	}
	if err := pr.client.PublishEnvelope(pr.topic, env); err != nil {
		pr.log.Warnf("progress_reporter: send digest for %s: %v", cu.UUID, err)
	}
}
