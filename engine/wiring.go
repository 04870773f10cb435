package engine

import "qreport/checkup"

// wireEventHandlers sets up the event chain:
// item/part/photo changes → stats recompute → StatsUpdated
// ItemStatusChanged → auto-complete once nothing is left pending
func (e *Engine) wireEventHandlers() {
	e.Events.SubscribeTypes(func(evt Event) {
		changed := evt.Payload.(ItemStatusChangedEvent)
		e.refreshStats(changed.CheckUpID)
		e.maybeAutoComplete(changed.CheckUpID)
	}, EventItemStatusChanged)

	e.Events.SubscribeTypes(func(evt Event) {
		logged := evt.Payload.(SparePartLoggedEvent)
		e.refreshStats(logged.CheckUpID)
	}, EventSparePartLogged)

	e.Events.SubscribeTypes(func(evt Event) {
		attached := evt.Payload.(PhotoAttachedEvent)
		e.refreshStats(attached.CheckUpID)
	}, EventPhotoAttached)

	e.Events.SubscribeTypes(func(evt Event) {
		failed := evt.Payload.(ExportFailedEvent)
		e.log.Warnf("export %d (%s) for check-up %d failed: %s",
			failed.RecordID, failed.Format, failed.CheckUpID, failed.Error)
	}, EventExportFailed)
}

func (e *Engine) refreshStats(checkupID int64) {
	stats, err := e.checkupMgr.ComputeStats(checkupID)
	if err != nil {
		e.log.Errorf("recompute stats for check-up %d: %v", checkupID, err)
		return
	}
	e.Events.Publish(EventStatsUpdated, StatsUpdatedEvent{CheckUpID: checkupID, Stats: *stats})
}

// maybeAutoComplete closes an in-progress check-up when auto-complete is
// enabled and every checklist item has been resolved.
func (e *Engine) maybeAutoComplete(checkupID int64) {
	if !e.cfg.Web.AutoComplete {
		return
	}
	cu, err := e.db.GetCheckUp(checkupID)
	if err != nil || cu.Status != checkup.StatusInProgress {
		return
	}
	pending, err := e.db.CountPendingItems(checkupID)
	if err != nil || pending > 0 {
		return
	}
	if err := e.checkupMgr.Complete(checkupID, false); err != nil {
		e.log.Errorf("auto-complete check-up %d: %v", checkupID, err)
	}
}
