package logger

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/data/binding"
)

// maxLines keeps the UI log list manageable
const maxLines = 100

// AppLogger mirrors log lines into the UI list binding.
// It is used as the io.Writer behind a slog text handler.
type AppLogger struct {
	mu          sync.Mutex
	dataBinding binding.StringList
	pending     string
}

// NewAppLogger creates a new logger sink bound to the given list
func NewAppLogger(data binding.StringList) *AppLogger {
	return &AppLogger{
		dataBinding: data,
	}
}

// Write splits the handler output into lines and appends each one.
func (l *AppLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	buf := l.pending + string(p)
	lines := strings.Split(buf, "\n")
	l.pending = lines[len(lines)-1]
	lines = lines[:len(lines)-1]
	l.mu.Unlock()

	for _, line := range lines {
		if line == "" {
			continue
		}
		l.append(line)
	}
	return len(p), nil
}

// append handles the list update on the UI goroutine
func (l *AppLogger) append(line string) {
	fyne.Do(func() {
		l.dataBinding.Append(line)

		list, _ := l.dataBinding.Get()
		if len(list) > maxLines {
			l.dataBinding.Set(list[len(list)-maxLines:])
		}
	})
}

// New builds the structured logger used across the engine.
// Correlation IDs stored in the context are added to every record.
func New(w io.Writer, level slog.Level) *slog.Logger {
	text := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: shortTime,
	})
	return slog.New(NewCorrelationHandler(text))
}

// Discard returns a logger that drops everything (tests, dry runs).
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a settings string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func shortTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.String(slog.TimeKey, a.Value.Time().Format("15:04:05"))
	}
	return a
}
