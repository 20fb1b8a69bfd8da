//go:build debugheaplog

package internal

import (
	"log/slog"
	"runtime"
	"time"
	"unsafe"
)

const (
	HeapAllocDebugging = true
	timefmt            = "[01-02 15:04:05.000]"
)

var (
	memstats   runtime.MemStats
	lastAllocs uint64

	timebuf [len(timefmt) * 2]byte
)

// LogAttrs prints straight to stderr without allocating so that heap
// growth reported between calls belongs to the caller.
func LogAttrs(_ *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	now := time.Now()
	n := len(now.AppendFormat(timebuf[:0], timefmt))
	runtime.ReadMemStats(&memstats)
	if grew := memstats.TotalAlloc - lastAllocs; grew != 0 {
		println("[ALLOC] sponge grew=", grew, "total=", memstats.TotalAlloc)
	}
	print("time=", unsafe.String(&timebuf[0], n), " ")
	if level == LevelTrace {
		print("TRACE ")
	} else if level < slog.LevelDebug {
		print("SPONGE ")
	} else {
		print(level.String(), " ")
	}
	print(msg)

	for _, a := range attrs {
		switch a.Value.Kind() {
		case slog.KindString:
			print(" ", a.Key, "=", a.Value.String())
		case slog.KindInt64:
			print(" ", a.Key, "=", a.Value.Int64())
		case slog.KindUint64:
			print(" ", a.Key, "=", a.Value.Uint64())
		case slog.KindBool:
			print(" ", a.Key, "=", a.Value.Bool())
		case slog.KindDuration:
			print(" ", a.Key, "=", a.Value.Duration().Milliseconds(), "ms")
		default:
			if s, ok := a.Value.Any().(interface{ String() string }); ok {
				print(" ", a.Key, "=", s.String())
			}
		}
	}
	println()
	runtime.ReadMemStats(&memstats)
	lastAllocs = memstats.TotalAlloc
}
