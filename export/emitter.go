package export

// EventEmitter is the interface the export package uses to emit events.
type EventEmitter interface {
	EmitExportStarted(recordID, checkupID int64, format string)
	EmitExportCompleted(recordID, checkupID int64, format, path string)
	EmitExportFailed(recordID, checkupID int64, format, errDetail string)
}
