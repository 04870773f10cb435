package messaging

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	src := FieldAddress("robopack", "van-3")
	dst := OfficeAddress("robopack")

	env, err := NewEnvelope(TypeCheckUpCompleted, src, dst, &CheckUpCompleted{
		CheckUpUUID: "cu-uuid-1",
		Island:      "Palletizer 2",
		Technician:  "mario",
	})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}

	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded Envelope
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Version != Version {
		t.Errorf("Version = %d, want %d", decoded.Version, Version)
	}
	if decoded.Type != TypeCheckUpCompleted {
		t.Errorf("Type = %q, want %q", decoded.Type, TypeCheckUpCompleted)
	}
	if decoded.ID == "" {
		t.Error("ID should be assigned")
	}
	if decoded.Src.Role != RoleField || decoded.Src.Field != "van-3" || decoded.Src.Org != "robopack" {
		t.Errorf("Src = %+v, want field van-3 @ robopack", decoded.Src)
	}
	if decoded.Dst.Role != RoleOffice {
		t.Errorf("Dst.Role = %q, want %q", decoded.Dst.Role, RoleOffice)
	}

	var p CheckUpCompleted
	if err := decoded.DecodePayload(&p); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if p.CheckUpUUID != "cu-uuid-1" || p.Island != "Palletizer 2" || p.Technician != "mario" {
		t.Errorf("payload = %+v, want original values", p)
	}
}

func TestNewReplySetsCorrelation(t *testing.T) {
	office := OfficeAddress("robopack")
	field := FieldAddress("robopack", "van-3")

	reply, err := NewReply(TypeHeartbeatAck, office, field, "original-id", &HeartbeatAck{FieldID: "robopack.van-3"})
	if err != nil {
		t.Fatalf("NewReply: %v", err)
	}
	if reply.CorID != "original-id" {
		t.Errorf("CorID = %q, want original-id", reply.CorID)
	}
	if reply.ID == "original-id" {
		t.Error("reply must carry its own ID")
	}
}

func TestDefaultTTLs(t *testing.T) {
	tests := []struct {
		msgType string
		want    time.Duration
	}{
		{TypeFieldHeartbeat, 90 * time.Second},
		{TypeCheckUpAssign, 10 * time.Minute},
		{TypeCheckUpCompleted, 30 * time.Minute},
		{"made.up", FallbackTTL},
	}
	for _, tt := range tests {
		if got := DefaultTTLFor(tt.msgType); got != tt.want {
			t.Errorf("DefaultTTLFor(%q) = %v, want %v", tt.msgType, got, tt.want)
		}
	}
}

func TestEnvelopeExpirySet(t *testing.T) {
	env := NewRawEnvelope(TypeFieldHeartbeat, FieldAddress("o", "f"), OfficeAddress("o"), []byte(`{}`))

	ttl := env.ExpiresAt.Sub(env.Timestamp)
	if ttl != 90*time.Second {
		t.Errorf("heartbeat TTL = %v, want 90s", ttl)
	}
	if IsExpired(env) {
		t.Error("fresh envelope should not be expired")
	}
}

func TestIsExpired(t *testing.T) {
	env := &Envelope{ExpiresAt: time.Now().UTC().Add(-time.Second)}
	if !IsExpired(env) {
		t.Error("past expiry should report expired")
	}

	// Zero expiry means no deadline
	if IsExpired(&Envelope{}) {
		t.Error("zero expiry should never expire")
	}

	hdr := &RawHeader{ExpiresAt: time.Now().UTC().Add(-time.Second)}
	if !IsExpiredHeader(hdr) {
		t.Error("past header expiry should report expired")
	}
	if IsExpiredHeader(&RawHeader{}) {
		t.Error("zero header expiry should never expire")
	}
}

func TestFieldFilter(t *testing.T) {
	filter := FieldFilter("robopack", "van-3")

	tests := []struct {
		name string
		dst  Address
		want bool
	}{
		{"exact match", Address{Org: "robopack", Field: "van-3"}, true},
		{"org broadcast", Address{Org: "robopack"}, true},
		{"full broadcast", Address{}, true},
		{"other org", Address{Org: "someone-else", Field: "van-3"}, false},
		{"other device", Address{Org: "robopack", Field: "van-9"}, false},
	}
	for _, tt := range tests {
		hdr := &RawHeader{Dst: tt.dst}
		if got := filter(hdr); got != tt.want {
			t.Errorf("%s: filter = %v, want %v", tt.name, got, tt.want)
		}
	}
}
