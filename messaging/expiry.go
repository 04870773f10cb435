package messaging

import "time"

// Default TTLs by message category.
var defaultTTLs = map[string]time.Duration{
	TypeFieldHeartbeat: 90 * time.Second,
	TypeHeartbeatAck:   90 * time.Second,

	TypeFieldRegister:   5 * time.Minute,
	TypeFieldRegistered: 5 * time.Minute,
	TypeCheckUpProgress: 5 * time.Minute,

	TypeCheckUpAssign: 10 * time.Minute,
	TypeCheckUpRecall: 10 * time.Minute,

	TypeCheckUpCompleted: 30 * time.Minute,
	TypeSparePartNeeded:  30 * time.Minute,
	TypeExportCompleted:  30 * time.Minute,
}

// FallbackTTL is used when no specific TTL is configured.
const FallbackTTL = 10 * time.Minute

// DefaultTTLFor returns the default TTL for a message type.
func DefaultTTLFor(msgType string) time.Duration {
	if ttl, ok := defaultTTLs[msgType]; ok {
		return ttl
	}
	return FallbackTTL
}

// IsExpired returns true if the envelope has passed its expiry time.
func IsExpired(env *Envelope) bool {
	if env.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().UTC().After(env.ExpiresAt)
}

// IsExpiredHeader checks expiry using only the raw header.
func IsExpiredHeader(hdr *RawHeader) bool {
	if hdr.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().UTC().After(hdr.ExpiresAt)
}
