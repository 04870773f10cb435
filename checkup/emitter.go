package checkup

// EventEmitter is the interface the checkup package uses to emit events.
type EventEmitter interface {
	EmitCheckUpCreated(checkupID int64, checkupUUID, islandName string)
	EmitCheckUpStatusChanged(checkupID int64, checkupUUID, oldStatus, newStatus string)
	EmitCheckUpCompleted(checkupID int64, checkupUUID string)
	EmitItemStatusChanged(checkupID, itemID int64, oldStatus, newStatus string)
	EmitSparePartLogged(checkupID, partID int64, name string, urgent bool)
	EmitPhotoAttached(checkupID, photoID int64, filename string)
}
