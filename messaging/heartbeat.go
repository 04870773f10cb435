package messaging

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"qreport/checkup"
	"qreport/config"
	"qreport/store"
)

// Heartbeater sends field.register on startup and field.heartbeat periodically.
type Heartbeater struct {
	client    *Client
	db        *store.DB
	fieldID   string
	version   string
	src       Address
	dst       Address
	topic     string
	interval  time.Duration
	log       *zap.SugaredLogger
	startTime time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewHeartbeater creates a heartbeater for this field device.
func NewHeartbeater(client *Client, db *store.DB, cfg *config.Config, version string, log *zap.SugaredLogger) *Heartbeater {
	return &Heartbeater{
		client:   client,
		db:       db,
		fieldID:  cfg.FieldID(),
		version:  version,
		src:      FieldAddress(cfg.Org, cfg.DeviceID),
		dst:      OfficeAddress(cfg.Org),
		topic:    cfg.Messaging.ReportTopic,
		interval: 60 * time.Second,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start sends an initial registration and begins the heartbeat loop.
func (h *Heartbeater) Start() {
	h.startTime = time.Now()
	h.sendRegister()
	go h.loop()
}

// Stop halts the heartbeat loop.
func (h *Heartbeater) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

func (h *Heartbeater) sendRegister() {
	hostname, _ := os.Hostname()
	env, err := NewEnvelope(TypeFieldRegister, h.src, h.dst, &FieldRegister{
		FieldID:  h.fieldID,
		Org:      h.src.Org,
		Hostname: hostname,
		Version:  h.version,
	})
	if err != nil {
		h.log.Errorf("heartbeater: build register: %v", err)
		return
	}
	if err := h.client.PublishEnvelope(h.topic, env); err != nil {
		h.log.Warnf("heartbeater: send register: %v", err)
	} else {
		h.log.Infof("heartbeater: sent field.register (field=%s)", h.fieldID)
	}
}

func (h *Heartbeater) sendHeartbeat() {
	env, err := NewEnvelope(TypeFieldHeartbeat, h.src, h.dst, &FieldHeartbeat{
		FieldID:      h.fieldID,
		Uptime:       int64(time.Since(h.startTime).Seconds()),
		OpenCheckUps: h.openCheckUps(),
	})
	if err != nil {
		h.log.Errorf("heartbeater: build heartbeat: %v", err)
		return
	}
	if err := h.client.PublishEnvelope(h.topic, env); err != nil {
		h.log.Warnf("heartbeater: send heartbeat: %v", err)
	}
}

func (h *Heartbeater) openCheckUps() int {
	open := 0
	for _, status := range []string{checkup.StatusScheduled, checkup.StatusInProgress} {
		n, err := h.db.CountCheckUpsByStatus(status)
		if err != nil {
			h.log.Warnf("heartbeater: count %s check-ups: %v", status, err)
			continue
		}
		open += n
	}
	return open
}

func (h *Heartbeater) loop() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.sendHeartbeat()
		}
	}
}
