package engine

import (
	"go.uber.org/zap"

	"qreport/backup"
	"qreport/checkup"
	"qreport/config"
	"qreport/export"
	"qreport/store"
)

// Engine centralizes the business logic and owns the domain managers.
type Engine struct {
	cfg        *config.Config
	configPath string
	db         *store.DB
	log        *zap.SugaredLogger

	checkupMgr *checkup.Manager
	exportMgr  *export.Manager
	backupMgr  *backup.Manager

	Events *EventBus
}

// Config holds the parameters needed to create an Engine.
type Config struct {
	AppConfig  *config.Config
	ConfigPath string
	DB         *store.DB
	Log        *zap.SugaredLogger
}

// New creates a new Engine. Call Start() to create and wire the managers.
func New(c Config) *Engine {
	log := c.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{
		cfg:        c.AppConfig,
		configPath: c.ConfigPath,
		db:         c.DB,
		log:        log,
		Events:     NewEventBus(),
	}
}

// Start creates the managers and wires the event chain.
func (e *Engine) Start() {
	e.checkupMgr = checkup.NewManager(e.db, &checkupEmitter{bus: e.Events}, e.cfg.Paths.PhotoDir, e.log)
	e.exportMgr = export.NewManager(e.db, &exportEmitter{bus: e.Events}, e.cfg.Paths.ExportDir, e.cfg.Paths.PhotoDir, e.log)
	e.backupMgr = backup.NewManager(e.db, &backupEmitter{bus: e.Events}, e.cfg.Paths.BackupDir, e.cfg.Paths.PhotoDir, e.configPath, e.log)

	e.wireEventHandlers()

	e.log.Infof("engine started: field=%s driver=%s", e.cfg.FieldID(), e.db.Driver())
}

// Stop shuts down the engine.
func (e *Engine) Stop() {
	e.log.Infof("engine stopped")
}

// DB returns the database handle.
func (e *Engine) DB() *store.DB { return e.db }

// AppConfig returns the app config.
func (e *Engine) AppConfig() *config.Config { return e.cfg }

// ConfigPath returns the config file path.
func (e *Engine) ConfigPath() string { return e.configPath }

// Log returns the engine logger.
func (e *Engine) Log() *zap.SugaredLogger { return e.log }

// CheckUpManager returns the check-up manager.
func (e *Engine) CheckUpManager() *checkup.Manager { return e.checkupMgr }

// ExportManager returns the export manager.
func (e *Engine) ExportManager() *export.Manager { return e.exportMgr }

// BackupManager returns the backup manager.
func (e *Engine) BackupManager() *backup.Manager { return e.backupMgr }
