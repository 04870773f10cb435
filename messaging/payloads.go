package messaging

// --- Field -> Office payloads ---

// FieldRegister is sent by a field device on startup.
type FieldRegister struct {
	FieldID  string `json:"field_id"`
	Org      string `json:"org"`
	Hostname string `json:"hostname"`
	Version  string `json:"version"`
}

// FieldHeartbeat is sent periodically by a field device.
type FieldHeartbeat struct {
	FieldID      string `json:"field_id"`
	Uptime       int64  `json:"uptime_s"`
	OpenCheckUps int    `json:"open_checkups"`
}

// CheckUpStats summarizes checklist progress on the wire.
type CheckUpStats struct {
	Total      int     `json:"total"`
	Pending    int     `json:"pending"`
	OK         int     `json:"ok"`
	NOK        int     `json:"nok"`
	NA         int     `json:"na"`
	Done       int     `json:"done"`
	Progress   float64 `json:"progress"`
	SpareParts int     `json:"spare_parts"`
	Photos     int     `json:"photos"`
}

// CheckUpCompleted is the completion report for a finished check-up.
type CheckUpCompleted struct {
	CheckUpUUID string       `json:"checkup_uuid"`
	Facility    string       `json:"facility"`
	Client      string       `json:"client"`
	Island      string       `json:"island"`
	Technician  string       `json:"technician"`
	Summary     string       `json:"summary"`
	Stats       CheckUpStats `json:"stats"`
	Timestamp   string       `json:"timestamp"`
}

// CheckUpProgress is a periodic progress digest for an in-progress check-up.
type CheckUpProgress struct {
	CheckUpUUID string `json:"checkup_uuid"`
	Island      string `json:"island"`
	Done        int    `json:"done"`
	Total       int    `json:"total"`
	NOK         int    `json:"nok"`
}

// SparePartNeeded flags an urgent spare part requirement.
type SparePartNeeded struct {
	CheckUpUUID string `json:"checkup_uuid"`
	Facility    string `json:"facility"`
	Client      string `json:"client"`
	Island      string `json:"island"`
	Name        string `json:"name"`
	PartNumber  string `json:"part_number"`
	Quantity    int    `json:"quantity"`
	Note        string `json:"note"`
	Timestamp   string `json:"timestamp"`
}

// ExportCompleted announces a finished export artifact.
type ExportCompleted struct {
	CheckUpUUID string `json:"checkup_uuid"`
	ExportUUID  string `json:"export_uuid"`
	Format      string `json:"format"`
	Filename    string `json:"filename"`
	SizeBytes   int64  `json:"size_bytes"`
	Timestamp   string `json:"timestamp"`
}

// --- Office -> Field payloads ---

// FieldRegistered acknowledges field registration.
type FieldRegistered struct {
	FieldID string `json:"field_id"`
	Message string `json:"message,omitempty"`
}

// HeartbeatAck acknowledges a heartbeat.
type HeartbeatAck struct {
	FieldID  string `json:"field_id"`
	ServerTS int64  `json:"server_ts"`
}

// CheckUpAssign schedules a check-up on a field device.
type CheckUpAssign struct {
	Facility     string `json:"facility,omitempty"`
	Island       string `json:"island,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Technician   string `json:"technician"`
	ScheduledFor string `json:"scheduled_for,omitempty"`
	Note         string `json:"note,omitempty"`
}

// CheckUpRecall cancels a previously assigned check-up.
type CheckUpRecall struct {
	CheckUpUUID string `json:"checkup_uuid"`
	Reason      string `json:"reason"`
}
