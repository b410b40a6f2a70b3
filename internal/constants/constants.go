package constants

import "time"

const (
	AppName            = "plantmanager"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/plantmanager"
	DefaultConfigFile  = "config.yaml"
	DefaultDBFile      = "plantmanager.db"
	Version            = "v0.1.0"

	// Persisted keys. The user and plant keys match the layout written by
	// the mobile app so exported data can be read back as-is.
	UserKey          = "@plantmanager:user"
	PlantsKey        = "@plantmanager:plants"
	NotificationsKey = "@plantmanager:notifications"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Store backends
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendBadger   = "badger"

	// Catalog defaults
	DefaultCatalogURL     = "http://localhost:3333"
	DefaultCatalogPage    = 1
	DefaultCatalogLimit   = 8
	DefaultCatalogTimeout = 15 * time.Second
	CatalogPlantsPath     = "plants"
	CatalogEnvPath        = "plants_environments"
	EnvironmentAllKey     = "all"
	EnvironmentAllTitle   = "All"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "plantmanager-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifierLockfileName       = "plantmanager-notifier.lock"
	NotificationDurationMs     = 5000
	TrayAppIdentifier          = "com.julianstephens.plantmanager"
	TrayExecutablePrefix       = "plantmanager-tray"
	HandlePrefix               = "rem"
	ClaimPrefix                = "dsp"
	DefaultDispatchLease       = 2 * time.Minute
	DefaultNotificationGrace   = 10 * time.Minute
	DefaultDispatchInterval    = 30 * time.Second
	DefaultNotificationsEnable = true
)
