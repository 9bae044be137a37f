package stream_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"dealhunt/internal/stream"
)

func TestChannelHandler(t *testing.T) {
	rq := require.New(t)

	ch := make(chan string, 8)

	logger := slog.New(stream.NewChannelHandler(ch, slog.LevelInfo))

	logger.Info("planner started", slog.String("recipient", "user@example.com"))
	logger.Debug("invisible")
	logger.Warn("slow response", slog.Int("attempt", 2))

	close(ch)

	var lines []string
	for line := range ch {
		lines = append(lines, line)
	}

	rq.Len(lines, 2)
	rq.Contains(lines[0], "[INFO] planner started recipient=user@example.com")
	rq.Contains(lines[1], "[WARN] slow response attempt=2")
}

func TestChannelHandlerWithAttrsAndGroup(t *testing.T) {
	rq := require.New(t)

	ch := make(chan string, 8)

	logger := slog.New(stream.NewChannelHandler(ch, slog.LevelInfo)).
		With(slog.String("run-id", "r1")).
		WithGroup("deal").
		With(slog.String("url", "https://deals.example/1"))

	logger.Info("found", slog.String("price", "99.99"))

	close(ch)

	line := <-ch
	rq.Contains(line, "run-id=r1")
	rq.Contains(line, "deal.url=https://deals.example/1")
	rq.Contains(line, "deal.price=99.99")
}

func TestChannelHandlerAbortsOnDone(t *testing.T) {
	rq := require.New(t)

	// Unbuffered channel with no consumer: the send must not hang once the
	// run context ends.
	ch := make(chan string)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handler := stream.NewChannelHandler(ch, slog.LevelInfo)

	var record slog.Record

	err := handler.Handle(ctx, record)
	rq.ErrorIs(err, context.Canceled)
}
