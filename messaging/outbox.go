package messaging

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"qreport/config"
	"qreport/store"
)

// OutboxDrainer periodically wraps pending outbox rows in envelopes and
// publishes them on the report topic.
type OutboxDrainer struct {
	db       *store.DB
	client   *Client
	src      Address
	dst      Address
	topic    string
	interval time.Duration
	log      *zap.SugaredLogger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewOutboxDrainer creates a new outbox drainer.
func NewOutboxDrainer(db *store.DB, client *Client, cfg *config.Config, log *zap.SugaredLogger) *OutboxDrainer {
	return &OutboxDrainer{
		db:       db,
		client:   client,
		src:      FieldAddress(cfg.Org, cfg.DeviceID),
		dst:      OfficeAddress(cfg.Org),
		topic:    cfg.Messaging.ReportTopic,
		interval: cfg.Messaging.OutboxDrainInterval,
		log:      log,
		stopChan: make(chan struct{}),
	}
}

// Start begins the outbox drain loop.
func (d *OutboxDrainer) Start() {
	d.wg.Add(1)
	go d.drainLoop()
}

// Stop stops the outbox drain loop.
func (d *OutboxDrainer) Stop() {
	select {
	case <-d.stopChan:
	default:
		close(d.stopChan)
	}
	d.wg.Wait()
}

func (d *OutboxDrainer) drainLoop() {
	defer d.wg.Done()

	interval := d.interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.drain()
		}
	}
}

func (d *OutboxDrainer) drain() {
	if !d.client.IsConnected() {
		return
	}

	msgs, err := d.db.ListPendingOutbox(50)
	if err != nil {
		d.log.Errorf("list pending outbox: %v", err)
		return
	}

	for _, msg := range msgs {
		env := NewRawEnvelope(msg.MsgType, d.src, d.dst, msg.Payload)
		if err := d.client.PublishEnvelope(d.topic, env); err != nil {
			d.log.Warnf("publish outbox msg %d (%s): %v", msg.ID, msg.MsgType, err)
			d.db.IncrementOutboxRetries(msg.ID)
			continue
		}
		if err := d.db.AckOutbox(msg.ID); err != nil {
			d.log.Errorf("ack outbox msg %d: %v", msg.ID, err)
		}
	}
}
