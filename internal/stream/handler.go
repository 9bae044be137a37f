package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const timestampLayout = "2006-01-02 15:04:05 -0700"

// ChannelHandler is a slog.Handler that formats each record as a single line
// and sends it to the run's event channel. One handler is created per run at
// dispatch time; nothing here is shared across runs.
type ChannelHandler struct {
	ch     chan<- string
	level  slog.Leveler
	prefix string
	attrs  string
}

func NewChannelHandler(ch chan<- string, level slog.Leveler) *ChannelHandler {
	return &ChannelHandler{
		ch:    ch,
		level: level,
	}
}

func (h *ChannelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle sends the formatted line. The send blocks until the multiplexer
// consumes it, preserving producer order without loss; ctx aborts the send
// when the run is torn down.
func (h *ChannelHandler) Handle(ctx context.Context, record slog.Record) error {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] [%s] %s", record.Time.Format(timestampLayout), record.Level, record.Message)

	if h.attrs != "" {
		b.WriteString(h.attrs)
	}

	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(&b, h.prefix, attr)
		return true
	})

	select {
	case h.ch <- b.String():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *ChannelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder

	for _, attr := range attrs {
		writeAttr(&b, h.prefix, attr)
	}

	clone := *h
	clone.attrs += b.String()

	return &clone
}

func (h *ChannelHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	clone := *h
	clone.prefix = h.prefix + name + "."

	return &clone
}

func writeAttr(b *strings.Builder, prefix string, attr slog.Attr) {
	fmt.Fprintf(b, " %s%s=%s", prefix, attr.Key, attr.Value.String())
}
