package www

import (
	"encoding/json"
	"net/http"
	"time"

	"qreport/checkup"
)

func (h *Handlers) apiStatus(w http.ResponseWriter, r *http.Request) {
	db := h.engine.DB()
	cfg := h.engine.AppConfig()

	counts := make(map[string]int)
	for _, status := range []string{
		checkup.StatusScheduled, checkup.StatusInProgress,
		checkup.StatusCompleted, checkup.StatusArchived, checkup.StatusCancelled,
	} {
		n, err := db.CountCheckUpsByStatus(status)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		counts[status] = n
	}

	pendingOutbox, err := db.CountPendingOutbox()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, map[string]interface{}{
		"field_id":       cfg.FieldID(),
		"driver":         db.Driver(),
		"checkups":       counts,
		"pending_outbox": pendingOutbox,
	})
}

// --- Config Admin ---

func (h *Handlers) apiUpdateMessaging(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Backend      string   `json:"backend"`
		MQTTBroker   string   `json:"mqtt_broker"`
		MQTTPort     int      `json:"mqtt_port"`
		MQTTClientID string   `json:"mqtt_client_id"`
		KafkaBrokers []string `json:"kafka_brokers"`
		ReportTopic  string   `json:"report_topic"`
		InboundTopic string   `json:"inbound_topic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := h.engine.AppConfig()
	cfg.Lock()
	cfg.Messaging.Backend = req.Backend
	cfg.Messaging.MQTT.Broker = req.MQTTBroker
	cfg.Messaging.MQTT.Port = req.MQTTPort
	cfg.Messaging.MQTT.ClientID = req.MQTTClientID
	cfg.Messaging.Kafka.Brokers = req.KafkaBrokers
	cfg.Messaging.ReportTopic = req.ReportTopic
	cfg.Messaging.InboundTopic = req.InboundTopic
	cfg.Unlock()

	if err := cfg.Save(h.engine.ConfigPath()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiUpdateNotify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WebhookURL string `json:"webhook_url"`
		Timeout    string `json:"timeout"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := h.engine.AppConfig()
	cfg.Lock()
	cfg.Notify.WebhookURL = req.WebhookURL
	if req.Timeout != "" {
		d, err := time.ParseDuration(req.Timeout)
		if err != nil {
			cfg.Unlock()
			writeError(w, http.StatusBadRequest, "invalid timeout: "+err.Error())
			return
		}
		cfg.Notify.Timeout = d
	}
	cfg.Unlock()

	if err := cfg.Save(h.engine.ConfigPath()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiUpdateWeb(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AutoComplete bool  `json:"auto_complete"`
		MaxUploadMB  int64 `json:"max_upload_mb"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := h.engine.AppConfig()
	cfg.Lock()
	cfg.Web.AutoComplete = req.AutoComplete
	if req.MaxUploadMB > 0 {
		cfg.Web.MaxUploadMB = req.MaxUploadMB
	}
	cfg.Unlock()

	if err := cfg.Save(h.engine.ConfigPath()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
