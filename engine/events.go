package engine

import (
	"time"

	"qreport/checkup"
)

// EventType identifies the kind of event emitted by the Engine.
type EventType int

const (
	// Check-up events
	EventCheckUpCreated EventType = iota + 1
	EventCheckUpStatusChanged
	EventCheckUpCompleted

	// Checklist events
	EventItemStatusChanged
	EventStatsUpdated

	// Field log events
	EventSparePartLogged
	EventPhotoAttached

	// Export events
	EventExportStarted
	EventExportCompleted
	EventExportFailed

	// Backup events
	EventBackupCompleted
)

// Event is the envelope emitted by the Engine's EventBus.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   any
}

// CheckUpCreatedEvent is emitted when a new check-up is scheduled.
type CheckUpCreatedEvent struct {
	CheckUpID  int64  `json:"checkup_id"`
	UUID       string `json:"uuid"`
	IslandName string `json:"island_name"`
}

// CheckUpStatusChangedEvent is emitted on check-up state transitions.
type CheckUpStatusChangedEvent struct {
	CheckUpID int64  `json:"checkup_id"`
	UUID      string `json:"uuid"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// CheckUpCompletedEvent is emitted when a check-up reaches completed.
type CheckUpCompletedEvent struct {
	CheckUpID int64  `json:"checkup_id"`
	UUID      string `json:"uuid"`
}

// ItemStatusChangedEvent is emitted when a checklist item is resolved,
// reopened or cycled.
type ItemStatusChangedEvent struct {
	CheckUpID int64  `json:"checkup_id"`
	ItemID    int64  `json:"item_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// StatsUpdatedEvent carries freshly recomputed check-up statistics.
type StatsUpdatedEvent struct {
	CheckUpID int64         `json:"checkup_id"`
	Stats     checkup.Stats `json:"stats"`
}

// SparePartLoggedEvent is emitted when a spare part is recorded.
type SparePartLoggedEvent struct {
	CheckUpID int64  `json:"checkup_id"`
	PartID    int64  `json:"part_id"`
	Name      string `json:"name"`
	Urgent    bool   `json:"urgent"`
}

// PhotoAttachedEvent is emitted when a photo is stored.
type PhotoAttachedEvent struct {
	CheckUpID int64  `json:"checkup_id"`
	PhotoID   int64  `json:"photo_id"`
	Filename  string `json:"filename"`
}

// ExportStartedEvent is emitted when an export run begins.
type ExportStartedEvent struct {
	RecordID  int64  `json:"record_id"`
	CheckUpID int64  `json:"checkup_id"`
	Format    string `json:"format"`
}

// ExportCompletedEvent is emitted when an export run produces its artifact.
type ExportCompletedEvent struct {
	RecordID  int64  `json:"record_id"`
	CheckUpID int64  `json:"checkup_id"`
	Format    string `json:"format"`
	Path      string `json:"path"`
}

// ExportFailedEvent is emitted when an export step fails.
type ExportFailedEvent struct {
	RecordID  int64  `json:"record_id"`
	CheckUpID int64  `json:"checkup_id"`
	Format    string `json:"format"`
	Error     string `json:"error"`
}

// BackupCompletedEvent is emitted when a backup archive is written.
type BackupCompletedEvent struct {
	RecordID  int64  `json:"record_id"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
}
