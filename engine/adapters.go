package engine

// checkupEmitter adapts the engine's EventBus to the checkup.EventEmitter interface.
type checkupEmitter struct {
	bus *EventBus
}

func (e *checkupEmitter) EmitCheckUpCreated(checkupID int64, checkupUUID, islandName string) {
	e.bus.Publish(EventCheckUpCreated, CheckUpCreatedEvent{
		CheckUpID: checkupID, UUID: checkupUUID, IslandName: islandName,
	})
}

func (e *checkupEmitter) EmitCheckUpStatusChanged(checkupID int64, checkupUUID, oldStatus, newStatus string) {
	e.bus.Publish(EventCheckUpStatusChanged, CheckUpStatusChangedEvent{
		CheckUpID: checkupID, UUID: checkupUUID, OldStatus: oldStatus, NewStatus: newStatus,
	})
}

func (e *checkupEmitter) EmitCheckUpCompleted(checkupID int64, checkupUUID string) {
	e.bus.Publish(EventCheckUpCompleted, CheckUpCompletedEvent{
		CheckUpID: checkupID, UUID: checkupUUID,
	})
}

func (e *checkupEmitter) EmitItemStatusChanged(checkupID, itemID int64, oldStatus, newStatus string) {
	e.bus.Publish(EventItemStatusChanged, ItemStatusChangedEvent{
		CheckUpID: checkupID, ItemID: itemID, OldStatus: oldStatus, NewStatus: newStatus,
	})
}

func (e *checkupEmitter) EmitSparePartLogged(checkupID, partID int64, name string, urgent bool) {
	e.bus.Publish(EventSparePartLogged, SparePartLoggedEvent{
		CheckUpID: checkupID, PartID: partID, Name: name, Urgent: urgent,
	})
}

func (e *checkupEmitter) EmitPhotoAttached(checkupID, photoID int64, filename string) {
	e.bus.Publish(EventPhotoAttached, PhotoAttachedEvent{
		CheckUpID: checkupID, PhotoID: photoID, Filename: filename,
	})
}

// exportEmitter adapts the engine's EventBus to the export.EventEmitter interface.
type exportEmitter struct {
	bus *EventBus
}

func (e *exportEmitter) EmitExportStarted(recordID, checkupID int64, format string) {
	e.bus.Publish(EventExportStarted, ExportStartedEvent{
		RecordID: recordID, CheckUpID: checkupID, Format: format,
	})
}

func (e *exportEmitter) EmitExportCompleted(recordID, checkupID int64, format, path string) {
	e.bus.Publish(EventExportCompleted, ExportCompletedEvent{
		RecordID: recordID, CheckUpID: checkupID, Format: format, Path: path,
	})
}

func (e *exportEmitter) EmitExportFailed(recordID, checkupID int64, format, errDetail string) {
	e.bus.Publish(EventExportFailed, ExportFailedEvent{
		RecordID: recordID, CheckUpID: checkupID, Format: format, Error: errDetail,
	})
}

// backupEmitter adapts the engine's EventBus to the backup.EventEmitter interface.
type backupEmitter struct {
	bus *EventBus
}

func (e *backupEmitter) EmitBackupCompleted(recordID int64, filename string, sizeBytes int64) {
	e.bus.Publish(EventBackupCompleted, BackupCompletedEvent{
		RecordID: recordID, Filename: filename, SizeBytes: sizeBytes,
	})
}
