package messaging

import (
	"encoding/json"

	"go.uber.org/zap"
)

// FilterFunc returns true if the message should be processed.
type FilterFunc func(hdr *RawHeader) bool

// FieldFilter accepts messages addressed to this org and field device.
// Messages with an empty dst field are broadcasts and pass.
func FieldFilter(org, deviceID string) FilterFunc {
	return func(hdr *RawHeader) bool {
		if hdr.Dst.Org != "" && hdr.Dst.Org != org {
			return false
		}
		if hdr.Dst.Field != "" && hdr.Dst.Field != deviceID {
			return false
		}
		return true
	}
}

// MessageHandler defines callbacks for all protocol message types.
// Embed NoOpHandler and override only the methods you need.
type MessageHandler interface {
	// Field -> Office
	HandleFieldRegister(env *Envelope, p *FieldRegister)
	HandleFieldHeartbeat(env *Envelope, p *FieldHeartbeat)
	HandleCheckUpCompleted(env *Envelope, p *CheckUpCompleted)
	HandleCheckUpProgress(env *Envelope, p *CheckUpProgress)
	HandleSparePartNeeded(env *Envelope, p *SparePartNeeded)
	HandleExportCompleted(env *Envelope, p *ExportCompleted)

	// Office -> Field
	HandleFieldRegistered(env *Envelope, p *FieldRegistered)
	HandleHeartbeatAck(env *Envelope, p *HeartbeatAck)
	HandleCheckUpAssign(env *Envelope, p *CheckUpAssign)
	HandleCheckUpRecall(env *Envelope, p *CheckUpRecall)
}

// Ingestor performs two-phase decode and dispatches to a MessageHandler.
type Ingestor struct {
	handler MessageHandler
	filter  FilterFunc
	log     *zap.SugaredLogger
}

// NewIngestor creates an ingestor with the given handler and filter.
func NewIngestor(handler MessageHandler, filter FilterFunc, log *zap.SugaredLogger) *Ingestor {
	return &Ingestor{
		handler: handler,
		filter:  filter,
		log:     log,
	}
}

// HandleRaw is the entry point for raw message bytes from the messaging layer.
func (ing *Ingestor) HandleRaw(data []byte) {
	// Phase 1: decode routing header only
	var hdr RawHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		ing.log.Warnf("ingestor: header decode error: %v", err)
		return
	}

	if IsExpiredHeader(&hdr) {
		ing.log.Debugf("ingestor: dropping expired message %s (type=%s)", hdr.ID, hdr.Type)
		return
	}

	if ing.filter != nil && !ing.filter(&hdr) {
		return
	}

	// Phase 2: full envelope decode
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		ing.log.Warnf("ingestor: envelope decode error: %v", err)
		return
	}

	switch env.Type {
	case TypeFieldRegister:
		decodeAndCall(ing.log, ing.handler.HandleFieldRegister, &env)
	case TypeFieldHeartbeat:
		decodeAndCall(ing.log, ing.handler.HandleFieldHeartbeat, &env)
	case TypeCheckUpCompleted:
		decodeAndCall(ing.log, ing.handler.HandleCheckUpCompleted, &env)
	case TypeCheckUpProgress:
		decodeAndCall(ing.log, ing.handler.HandleCheckUpProgress, &env)
	case TypeSparePartNeeded:
		decodeAndCall(ing.log, ing.handler.HandleSparePartNeeded, &env)
	case TypeExportCompleted:
		decodeAndCall(ing.log, ing.handler.HandleExportCompleted, &env)
	case TypeFieldRegistered:
		decodeAndCall(ing.log, ing.handler.HandleFieldRegistered, &env)
	case TypeHeartbeatAck:
		decodeAndCall(ing.log, ing.handler.HandleHeartbeatAck, &env)
	case TypeCheckUpAssign:
		decodeAndCall(ing.log, ing.handler.HandleCheckUpAssign, &env)
	case TypeCheckUpRecall:
		decodeAndCall(ing.log, ing.handler.HandleCheckUpRecall, &env)
	default:
		ing.log.Warnf("ingestor: unknown message type: %s", env.Type)
	}
}

// decodeAndCall unmarshals the payload and calls the handler method.
func decodeAndCall[T any](log *zap.SugaredLogger, fn func(*Envelope, *T), env *Envelope) {
	var p T
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		log.Warnf("ingestor: payload decode error for %s: %v", env.Type, err)
		return
	}
	fn(env, &p)
}
