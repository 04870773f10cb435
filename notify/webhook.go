// Package notify pushes webhook notifications for noteworthy field
// events. Delivery is best effort and never blocks the caller.
package notify

import (
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"qreport/config"
	"qreport/engine"
)

// Notification is the JSON body posted to the webhook.
type Notification struct {
	Event       string `json:"event"`
	FieldID     string `json:"field_id"`
	CheckUpUUID string `json:"checkup_uuid,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Timestamp   string `json:"ts"`
}

// Notifier posts event notifications to a configured webhook URL.
// A notifier with an empty URL is disabled and drops everything.
type Notifier struct {
	client  *resty.Client
	url     string
	fieldID string
	log     *zap.SugaredLogger
}

// New creates a webhook notifier.
func New(cfg *config.NotifyConfig, fieldID string, log *zap.SugaredLogger) *Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(1).
		SetRetryWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Notifier{
		client:  client,
		url:     cfg.WebhookURL,
		fieldID: fieldID,
		log:     log,
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool { return n.url != "" }

// Attach subscribes the notifier to the engine events worth pushing.
func (n *Notifier) Attach(bus *engine.EventBus) {
	if !n.Enabled() {
		return
	}
	bus.SubscribeTypes(func(evt engine.Event) {
		switch p := evt.Payload.(type) {
		case engine.CheckUpCompletedEvent:
			n.Send("checkup.completed", p.UUID, "")
		case engine.SparePartLoggedEvent:
			if p.Urgent {
				n.Send("sparepart.urgent", "", p.Name)
			}
		case engine.ExportFailedEvent:
			n.Send("export.failed", "", p.Error)
		case engine.BackupCompletedEvent:
			n.Send("backup.completed", "", p.Filename)
		}
	}, engine.EventCheckUpCompleted, engine.EventSparePartLogged,
		engine.EventExportFailed, engine.EventBackupCompleted)
}

// Send posts a notification in the background.
func (n *Notifier) Send(event, checkupUUID, detail string) {
	if !n.Enabled() {
		return
	}
	note := Notification{
		Event:       event,
		FieldID:     n.fieldID,
		CheckUpUUID: checkupUUID,
		Detail:      detail,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		resp, err := n.client.R().SetBody(note).Post(n.url)
		if err != nil {
			n.log.Warnf("notify: post %s: %v", event, err)
			return
		}
		if resp.IsError() {
			n.log.Warnf("notify: webhook returned %d for %s", resp.StatusCode(), event)
		}
	}()
}
