package service

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/heron-guild/guildhall/internal/application/eventhandler"
	"github.com/heron-guild/guildhall/pkg/logger"
)

// LogNotifier delivers notices to the structured log.
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{logger: log.With(logger.Component("notifier"))}
}

// Notify implements eventhandler.Notifier.
func (n *LogNotifier) Notify(_ context.Context, notice eventhandler.Notice) error {
	n.logger.Info(notice.Title,
		logger.UserID(notice.UserID),
		logger.String("body", notice.Body),
		logger.Time("at", notice.At),
	)
	return nil
}

// ConsoleNotifier prints notices for the person at the terminal.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleNotifier creates a ConsoleNotifier writing to w.
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

// Notify implements eventhandler.Notifier.
func (n *ConsoleNotifier) Notify(_ context.Context, notice eventhandler.Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.w, "* %s: %s\n", notice.Title, notice.Body)
	return err
}

// MultiNotifier fans a notice out to several notifiers and reports the first error.
type MultiNotifier []eventhandler.Notifier

// Notify implements eventhandler.Notifier.
func (m MultiNotifier) Notify(ctx context.Context, notice eventhandler.Notice) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, notice); err != nil && first == nil {
			first = err
		}
	}
	return first
}
