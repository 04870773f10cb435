package backup

// EventEmitter decouples the backup manager from the engine event bus.
type EventEmitter interface {
	EmitBackupCompleted(recordID int64, filename string, sizeBytes int64)
}
