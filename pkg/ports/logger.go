package ports

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug covers per-component detail: pump ticks, decoder sessions.
	LevelDebug LogLevel = iota
	// LevelInfo covers playlist progress.
	LevelInfo
	// LevelWarn covers dropped frames and other recoverable problems.
	LevelWarn
	// LevelError covers failures that end a playback session.
	LevelError
	// LevelQuiet suppresses all log output.
	LevelQuiet
)

// LogLevelNames lists the names ParseLogLevel understands.
var LogLevelNames = []string{"debug", "info", "warn", "error", "quiet"}

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	if l >= LevelDebug && int(l) < len(LogLevelNames) {
		return LogLevelNames[l]
	}
	return "unknown"
}

// ParseLogLevel parses a level name. Unknown names map to LevelInfo.
func ParseLogLevel(s string) LogLevel {
	for i, name := range LogLevelNames {
		if name == s {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

// Logger abstracts logging operations with multi-language support.
// msg is a message key; implementations may translate it.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that prefixes messages with the component name.
	WithComponent(component string) Logger
}
