package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/plantmanager/internal/constants"
)

var (
	// Logger is the global logger instance
	Logger *log.Logger

	file string
)

const defaultMaxSizeMB = 10

// Config holds logger configuration
type Config struct {
	Debug bool
	// File is the log file. When empty it is logs/plantmanager.log under
	// ConfigDir.
	File      string
	ConfigDir string
	// Level is a charmbracelet/log level name. Debug overrides it.
	Level     string
	JSON      bool
	MaxSizeMB int
}

func (c Config) path() string {
	if c.File != "" {
		return c.File
	}
	return filepath.Join(c.ConfigDir, "logs", constants.AppName+".log")
}

func (c Config) level() (log.Level, error) {
	if c.Debug {
		return log.DebugLevel, nil
	}
	if c.Level == "" {
		return log.WarnLevel, nil
	}
	lvl, err := log.ParseLevel(c.Level)
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	return lvl, nil
}

// Init initializes the global logger with the given configuration. Reminder
// dispatch runs unattended, so everything goes to a rotating file; debug
// mode mirrors it to stderr.
func Init(cfg Config) error {
	level, err := cfg.level()
	if err != nil {
		return err
	}

	path := cfg.path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = defaultMaxSizeMB
	}
	fileWriter := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	var writer io.Writer = fileWriter
	if cfg.Debug {
		writer = io.MultiWriter(os.Stderr, fileWriter)
	}

	formatter := log.TextFormatter
	if cfg.JSON {
		formatter = log.JSONFormatter
	}

	Logger = log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.AppName,
		Formatter:       formatter,
	})
	file = path

	return nil
}

// Path is the file the logger writes to, empty before Init.
func Path() string {
	return file
}

// Debug logs a debug message
func Debug(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Info logs an info message
func Info(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Warn logs a warning message
func Warn(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs an error message
func Error(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Fatal logs a fatal error and exits
func Fatal(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Fatal(msg, keyvals...)
	}
	os.Exit(1)
}
