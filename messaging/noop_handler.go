package messaging

// NoOpHandler implements MessageHandler with no-op methods.
// Embed this and override only the methods you need.
type NoOpHandler struct{}

func (NoOpHandler) HandleFieldRegister(*Envelope, *FieldRegister)       {}
func (NoOpHandler) HandleFieldHeartbeat(*Envelope, *FieldHeartbeat)     {}
func (NoOpHandler) HandleCheckUpCompleted(*Envelope, *CheckUpCompleted) {}
func (NoOpHandler) HandleCheckUpProgress(*Envelope, *CheckUpProgress)   {}
func (NoOpHandler) HandleSparePartNeeded(*Envelope, *SparePartNeeded)   {}
func (NoOpHandler) HandleExportCompleted(*Envelope, *ExportCompleted)   {}
func (NoOpHandler) HandleFieldRegistered(*Envelope, *FieldRegistered)   {}
func (NoOpHandler) HandleHeartbeatAck(*Envelope, *HeartbeatAck)         {}
func (NoOpHandler) HandleCheckUpAssign(*Envelope, *CheckUpAssign)       {}
func (NoOpHandler) HandleCheckUpRecall(*Envelope, *CheckUpRecall)       {}

// Compile-time check that NoOpHandler implements MessageHandler.
var _ MessageHandler = NoOpHandler{}
