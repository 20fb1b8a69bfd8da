package internal

import (
	"context"
	"log/slog"
)

// LevelTrace is below debug and is used for per-segment logging.
const LevelTrace = slog.LevelDebug - 2

// Enabled reports whether l would log at level. A nil logger is never enabled.
func Enabled(l *slog.Logger, level slog.Level) bool {
	if HeapAllocDebugging {
		return true
	}
	return l != nil && l.Handler().Enabled(context.Background(), level)
}
