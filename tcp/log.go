package tcp

import (
	"log/slog"

	"github.com/sponge-net/sponge/internal"
)

func (s *Sender) trace(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(s.logger, internal.LevelTrace, msg, attrs...)
}

func (s *Sender) debug(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(s.logger, slog.LevelDebug, msg, attrs...)
}

func (r *Receiver) trace(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(r.logger, internal.LevelTrace, msg, attrs...)
}

func (c *Conn) trace(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(c.logger, internal.LevelTrace, msg, attrs...)
}

func (c *Conn) info(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(c.logger, slog.LevelInfo, msg, attrs...)
}

func (c *Conn) logerr(msg string, attrs ...slog.Attr) {
	internal.LogAttrs(c.logger, slog.LevelError, msg, attrs...)
}
