package messaging

// Message type constants for the field/office protocol.
const (
	// Field -> Office (published on the report topic)
	TypeFieldRegister    = "field.register"
	TypeFieldHeartbeat   = "field.heartbeat"
	TypeCheckUpCompleted = "checkup.completed"
	TypeCheckUpProgress  = "checkup.progress"
	TypeSparePartNeeded  = "sparepart.needed"
	TypeExportCompleted  = "export.completed"

	// Office -> Field (published on the inbound topic)
	TypeFieldRegistered = "field.registered"
	TypeHeartbeatAck    = "heartbeat.ack"
	TypeCheckUpAssign   = "checkup.assign"
	TypeCheckUpRecall   = "checkup.recall"
)

// Roles for Address.Role.
const (
	RoleField  = "field"
	RoleOffice = "office"
)

// Protocol version.
const Version = 1
