package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

type Level logging.Level

// The levels that can be passed to the SetLevel function.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

// The logger format
var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

// The internal leveled logger backend
var leveledBackend logging.LeveledBackend

// The logger interface
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// Create a new named logger.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// Override the backend output sink. The current verbosity is preserved.
func SetSink(sink io.Writer) {
	var curLevel = logging.NOTICE
	if leveledBackend != nil {
		curLevel = leveledBackend.GetLevel("")
	}

	backend := logging.NewLogBackend(sink, "", 0)
	backendWithFormatter := logging.NewBackendFormatter(backend, format)
	leveledBackend = logging.AddModuleLevel(backendWithFormatter)
	leveledBackend.SetLevel(curLevel, "")
	logging.SetBackend(leveledBackend)
}

// Level names and the go-logging levels they map to, indexed by Level.
var levels = [...]struct {
	name  string
	level logging.Level
}{
	Debug:   {"debug", logging.DEBUG},
	Info:    {"info", logging.INFO},
	Notice:  {"notice", logging.NOTICE},
	Warning: {"warning", logging.WARNING},
	Error:   {"error", logging.ERROR},
}

// Set logger verbosity. Unknown levels are ignored.
func SetLevel(level Level) {
	if int(level) >= len(levels) {
		return
	}
	leveledBackend.SetLevel(levels[level].level, "")
}

// Get the current logger verbosity.
func CurrentLevel() Level {
	cur := leveledBackend.GetLevel("")
	for level, entry := range levels {
		if entry.level == cur {
			return Level(level)
		}
	}
	return Notice
}

// Lookup a level by its name. "warn" is accepted as an alias for "warning".
func ParseLevel(name string) (Level, error) {
	name = strings.ToLower(name)
	if name == "warn" {
		name = "warning"
	}
	for level, entry := range levels {
		if entry.name == name {
			return Level(level), nil
		}
	}

	return Notice, fmt.Errorf("log: unknown level %q", name)
}

func (l Level) String() string {
	if int(l) >= len(levels) {
		return "unknown"
	}
	return levels[l].name
}

func init() {
	SetSink(os.Stdout)
	SetLevel(Notice)
}
